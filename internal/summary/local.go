// Package summary produces conversation digests for chat_summary requests.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/Babel/internal/core"
	"github.com/samber/lo"
)

// Local is a deterministic digest that needs no external service.
type Local struct{}

func (Local) Summarize(_ context.Context, window []core.SummaryLine) (string, error) {
	speakers := lo.Uniq(lo.Map(window, func(l core.SummaryLine, _ int) string { return l.Username }))

	var b strings.Builder
	fmt.Fprintf(&b, "Recent conversation summary: %d messages exchanged", len(window))
	if len(speakers) > 0 {
		fmt.Fprintf(&b, " between %s", strings.Join(speakers, ", "))
	}
	b.WriteString(". Topics discussed include greetings, general conversation, and user interactions.")
	return b.String(), nil
}
