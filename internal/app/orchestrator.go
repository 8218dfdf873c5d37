package app

import (
	"context"
	"fmt"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultCatchUp = 50

// Orchestrator is the transport-agnostic entry point for connection events.
type Orchestrator struct {
	Registry      *Registry
	Relay         *Relay
	Policy        Policy
	CatchUp       int
	SummaryWindow int
}

type JoinResult struct {
	Conn   domain.Connection
	Recent []domain.Message
}

// Join registers id and reads the catch-up window as one step with respect to
// message commits. announce, when set, runs inside that step so that
// anything it enqueues precedes the next new_message.
func (o *Orchestrator) Join(id domain.ConnID, username, lang string, sig core.SignalConnection, announce func(JoinResult)) (JoinResult, error) {
	catchUp := o.CatchUp
	if catchUp <= 0 {
		catchUp = DefaultCatchUp
	}
	var (
		res JoinResult
		err error
	)
	o.Relay.Exclusive(func() {
		var conn domain.Connection
		conn, err = o.Registry.Join(id, username, lang, sig)
		if err != nil {
			return
		}
		res = JoinResult{Conn: conn, Recent: o.Relay.RecentHistory(catchUp)}
		if announce != nil {
			announce(res)
		}
	})
	if err != nil {
		return JoinResult{}, err
	}
	return res, nil
}

func (o *Orchestrator) Send(ctx context.Context, id domain.ConnID, text string) (domain.Message, error) {
	return o.Relay.Send(ctx, id, text)
}

// SetTyping resolves the display name of id and toggles it. ok is false
// when id has not joined.
func (o *Orchestrator) SetTyping(id domain.ConnID, typing bool) (conn domain.Connection, changed, ok bool) {
	conn, ok = o.Registry.Lookup(id)
	if !ok {
		return domain.Connection{}, false, false
	}
	return conn, o.Registry.SetTyping(conn.Username, typing), true
}

func (o *Orchestrator) RequestSummary(ctx context.Context, id domain.ConnID) (SummaryResult, error) {
	if _, ok := o.Registry.Lookup(id); !ok {
		return SummaryResult{}, fmt.Errorf("%w: %s", ErrUnknownSender, id)
	}
	return o.Relay.RequestSummary(ctx, o.SummaryWindow)
}

// OnDisconnect drops presence and typing state. Safe to call repeatedly.
func (o *Orchestrator) OnDisconnect(id domain.ConnID) (Departure, bool) {
	return o.Registry.Leave(id)
}

// PublishResult reports delivery stats/backpressure.
type PublishResult struct {
	SentTo  int
	Dropped []domain.Connection
}

// Deliver enqueues frame for every joined connection except the given ids
// and applies the backpressure policy to recipients whose buffer is full.
func (o *Orchestrator) Deliver(frame core.Frame, except ...domain.ConnID) PublishResult {
	res := PublishResult{}
	for _, rcpt := range o.Registry.Recipients(except...) {
		if err := rcpt.Signal.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, rcpt.Conn)
			o.onBackPressure(rcpt)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.orchestrator").Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (o *Orchestrator) onBackPressure(rcpt Recipient) {
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(rcpt.Conn) {
	case KickMember:
		log.Warn().Str("module", "app.orchestrator").Str("sid", string(rcpt.Conn.ID)).Msg("slow consumer kicked")
		rcpt.Signal.Close()
	case DropFrame, NoAction:
	}
}
