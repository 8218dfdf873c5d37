// Command babelctl inspects a running server through its read-only API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dkeye/Babel/internal/domain"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	addr := flag.String("addr", "http://localhost:3001", "server base URL")
	limit := flag.Int("limit", 20, "messages to fetch")
	lang := flag.String("lang", "", "show this translation next to the original")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: babelctl [flags] health|users|messages\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "health"
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, os.Stdout, newClient(*addr, *timeout), cmd, *limit, domain.Language(*lang)); err != nil {
		color.Error.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, c *client, cmd string, limit int, lang domain.Language) error {
	switch cmd {
	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		renderTable(w, []string{"Status", "Connected", "Messages"},
			[][]string{{h.Status, strconv.Itoa(h.ConnectedUsers), strconv.Itoa(h.TotalMessages)}})
	case "users":
		users, err := c.Users(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{u.Username, string(u.Language), u.JoinedAt.Local().Format("15:04:05"), string(u.ID)})
		}
		renderTable(w, []string{"Name", "Lang", "Joined", "ID"}, rows)
	case "messages":
		msgs, err := c.Messages(ctx, limit)
		if err != nil {
			return err
		}
		renderTable(w, []string{"Seq", "Time", "From", "Text", "Translations"}, messageRows(msgs, lang))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func messageRows(msgs []domain.Message, lang domain.Language) [][]string {
	rows := make([][]string, 0, len(msgs))
	for _, m := range msgs {
		text := m.OriginalText
		if lang != "" {
			text = m.TextFor(lang)
		}
		langs := make([]string, 0, len(m.Translations))
		for l := range m.Translations {
			langs = append(langs, string(l))
		}
		slices.Sort(langs)
		rows = append(rows, []string{
			strconv.FormatUint(m.Seq, 10),
			m.Timestamp.Local().Format("15:04:05"),
			m.Username,
			text,
			strings.Join(langs, ","),
		})
	}
	return rows
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	for i, h := range header {
		header[i] = color.New(color.FgGreen, color.OpBold).Render(h)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()
}
