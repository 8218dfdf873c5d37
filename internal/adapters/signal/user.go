package signal

import (
	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleJoin: roster to everyone, catch-up to the joiner, notice to the rest.
func (ctl *SignalWSController) handleJoin(sid domain.ConnID, conn core.SignalConnection, p joinEvent) {
	ctl.fanout.Lock()
	defer ctl.fanout.Unlock()

	_, err := ctl.Orch.Join(sid, p.Username, p.PreferredLanguage, conn, func(res app.JoinResult) {
		ctl.broadcast(usersUpdated{Type: EventUsersUpdated, Users: ctl.Orch.Registry.Snapshot()})
		ctl.sendJSON(conn, recentMessages{Type: EventRecentMessages, Messages: res.Recent})
		ctl.broadcast(joinedNotice(res.Conn.Username), sid)
	})
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join rejected")
		ctl.sendError(conn, codeFor(err), err.Error())
	}
}

func (ctl *SignalWSController) handleTyping(sid domain.ConnID, conn core.SignalConnection, typing bool) {
	ctl.fanout.Lock()
	defer ctl.fanout.Unlock()

	member, changed, ok := ctl.Orch.SetTyping(sid, typing)
	if !ok {
		ctl.sendError(conn, CodeNotJoined, "join first")
		return
	}
	if changed {
		ctl.broadcast(userTyping{Type: EventUserTyping, Username: member.Username, IsTyping: typing}, sid)
	}
}

// handleDisconnect is idempotent; only the first call announces anything.
func (ctl *SignalWSController) handleDisconnect(sid domain.ConnID) {
	ctl.fanout.Lock()
	defer ctl.fanout.Unlock()

	ctl.limiter.Forget(sid)
	dep, ok := ctl.Orch.OnDisconnect(sid)
	if !ok {
		return
	}
	name := dep.Conn.Username
	if dep.WasTyping {
		ctl.broadcast(userTyping{Type: EventUserTyping, Username: name, IsTyping: false})
	}
	ctl.broadcast(usersUpdated{Type: EventUsersUpdated, Users: ctl.Orch.Registry.Snapshot()})
	ctl.broadcast(leftNotice(name))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", name).Msg("left")
}
