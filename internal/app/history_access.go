package app

import "github.com/dkeye/Babel/internal/domain"

func (r *Registry) appendMessage(m domain.Message) domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Append(m)
}

// Recent returns at most limit most recent messages in send order.
func (r *Registry) Recent(limit int) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history.Last(limit)
}

// RecentWithTotal reads a window and the all-time message count atomically.
func (r *Registry) RecentWithTotal(limit int) ([]domain.Message, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history.Last(limit), r.history.Total()
}
