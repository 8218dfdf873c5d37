package app

import "github.com/dkeye/Babel/internal/domain"

// History is a fixed-capacity ring of messages in send order.
// It is not safe for concurrent use; Registry guards it.
type History struct {
	buf   []domain.Message
	start int
	size  int
	total uint64
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]domain.Message, capacity)}
}

// Append stores m, evicting the oldest entry when full, and returns m with
// its sequence number set.
func (h *History) Append(m domain.Message) domain.Message {
	h.total++
	m.Seq = h.total

	idx := (h.start + h.size) % len(h.buf)
	h.buf[idx] = m
	if h.size < len(h.buf) {
		h.size++
	} else {
		h.start = (h.start + 1) % len(h.buf)
	}
	return m
}

// Last returns copies of at most n most recent messages, oldest first.
func (h *History) Last(n int) []domain.Message {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return []domain.Message{}
	}
	out := make([]domain.Message, 0, n)
	for i := h.size - n; i < h.size; i++ {
		out = append(out, h.buf[(h.start+i)%len(h.buf)].Clone())
	}
	return out
}

// Len is the number of retained messages.
func (h *History) Len() int { return h.size }

// Total counts every message ever appended, evicted ones included.
func (h *History) Total() uint64 { return h.total }

func (h *History) Cap() int { return len(h.buf) }
