package signal

import (
	"context"
	"time"

	"github.com/dkeye/Babel/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

// readPump handles one connection's events strictly in arrival order.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.handleDisconnect(sid)
		c.Close()
		cancel()
	}()

	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait)) }
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = extend()
		ctl.dispatch(ctx, sid, c, data)
	}
}

// dispatch contains a handler panic to the event that caused it.
func (ctl *SignalWSController) dispatch(ctx context.Context, sid domain.ConnID, c *WsSignalConn, data []byte) {
	var pc panics.Catcher
	pc.Try(func() { ctl.handleSignal(ctx, sid, c, data) })
	if rec := pc.Recovered(); rec != nil {
		log.Error().Str("module", "signal").Str("sid", string(sid)).Str("panic", rec.String()).Msg("event handler panicked")
		ctl.sendError(c, CodeInternal, "internal error")
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid domain.ConnID, c *WsSignalConn, data []byte) {
	ev, err := decodeInbound(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("rejected frame")
		ctl.sendError(c, codeFor(err), err.Error())
		return
	}

	switch e := ev.(type) {
	case joinEvent:
		ctl.handleJoin(sid, c, e)
	case sendMessageEvent:
		ctl.handleSendMessage(ctx, sid, c, e)
	case typingEvent:
		ctl.handleTyping(sid, c, e.typing)
	case summaryRequestEvent:
		ctl.handleSummary(ctx, sid, c)
	case pingEvent:
		ctl.handlePing(c)
	}
}
