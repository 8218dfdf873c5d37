package signal

import (
	"context"
	"errors"

	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleSendMessage silently drops sends from connections that never joined.
// The new_message frame reaches the sender through Publish like everyone else.
func (ctl *SignalWSController) handleSendMessage(ctx context.Context, sid domain.ConnID, conn core.SignalConnection, p sendMessageEvent) {
	if _, ok := ctl.Orch.Registry.Lookup(sid); !ok {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("send before join dropped")
		return
	}
	if !ctl.limiter.Allow(sid) {
		ctl.sendError(conn, CodeRateLimited, "too many messages, slow down")
		return
	}

	msg, err := ctl.Orch.Send(ctx, sid, p.Text)
	switch {
	case err == nil:
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("id", msg.ID).Msg("message relayed")
	case errors.Is(err, app.ErrUnknownSender):
		log.Debug().Err(err).Str("module", "signal").Msg("sender left before send")
	default:
		ctl.sendError(conn, codeFor(err), err.Error())
	}
}

func (ctl *SignalWSController) handleSummary(ctx context.Context, sid domain.ConnID, conn core.SignalConnection) {
	res, err := ctl.Orch.RequestSummary(ctx, sid)
	switch {
	case errors.Is(err, app.ErrUnknownSender):
		ctl.sendError(conn, CodeNotJoined, "join first")
		return
	case err != nil:
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("summary failed")
		ctl.sendError(conn, CodeSummaryUnavailable, "summary unavailable")
		return
	}
	ctl.sendJSON(conn, summaryFrame(res))
}
