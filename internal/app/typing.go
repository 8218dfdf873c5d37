package app

import "github.com/rs/zerolog/log"

// SetTyping toggles a display name in the typing set and reports whether
// membership actually changed. Repeated starts or stops are not deltas.
func (r *Registry) SetTyping(username string, typing bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, present := r.typing[username]
	if present == typing {
		return false
	}
	if typing {
		r.typing[username] = struct{}{}
	} else {
		delete(r.typing, username)
	}
	log.Debug().Str("module", "app.typing").Str("username", username).Bool("typing", typing).Msg("typing changed")
	return true
}

func (r *Registry) IsTyping(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.typing[username]
	return ok
}
