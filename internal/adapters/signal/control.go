package signal

import "github.com/dkeye/Babel/internal/core"

func (ctl *SignalWSController) handlePing(conn core.SignalConnection) {
	ctl.sendJSON(conn, pong{Type: EventPong})
}

func (ctl *SignalWSController) sendError(conn core.SignalConnection, code, msg string) {
	ctl.sendJSON(conn, errorFrame{Type: EventError, Code: code, Error: msg})
}
