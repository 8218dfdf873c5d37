package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrDuplicateConnection = errors.New("connection already joined")
	ErrUnknownSender       = errors.New("unknown sender")
)

type sessionEntry struct {
	Conn   domain.Connection
	Signal core.SignalConnection
}

// Registry is the single guarded store for presence, typing state and
// message history. Every read that spans more than one of them is taken
// under the same lock, so roster, typing set and history never drift apart.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
	typing   map[string]struct{}
	history  *History
	now      func() time.Time
}

func NewRegistry(historyCapacity int) *Registry {
	return &Registry{
		sessions: make(map[domain.ConnID]*sessionEntry),
		typing:   make(map[string]struct{}),
		history:  NewHistory(historyCapacity),
		now:      time.Now,
	}
}

// Join registers a connection. sig may be nil for callers that never
// receive broadcasts.
func (r *Registry) Join(id domain.ConnID, username, lang string, sig core.SignalConnection) (domain.Connection, error) {
	conn, err := domain.NewConnection(id, username, lang, r.now())
	if err != nil {
		return domain.Connection{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return domain.Connection{}, fmt.Errorf("%w: %s", ErrDuplicateConnection, id)
	}
	r.sessions[id] = &sessionEntry{Conn: conn, Signal: sig}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("username", conn.Username).Str("lang", string(conn.Language)).Msg("joined")
	return conn, nil
}

// Departure describes what Leave removed.
type Departure struct {
	Conn      domain.Connection
	WasTyping bool
}

// Leave removes the connection and its typing membership in one step.
// Removing an absent id is a no-op and reports false.
func (r *Registry) Leave(id domain.ConnID) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return Departure{}, false
	}
	delete(r.sessions, id)
	_, typing := r.typing[e.Conn.Username]
	delete(r.typing, e.Conn.Username)
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("username", e.Conn.Username).Msg("left")
	return Departure{Conn: e.Conn, WasTyping: typing}, true
}

func (r *Registry) Lookup(id domain.ConnID) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return domain.Connection{}, false
	}
	return e.Conn, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Languages returns the distinct non-baseline languages currently
// preferred, sorted.
func (r *Registry) Languages() []domain.Language {
	r.mu.RLock()
	seen := make(map[domain.Language]struct{}, len(r.sessions))
	for _, e := range r.sessions {
		if !e.Conn.Language.IsBaseline() {
			seen[e.Conn.Language] = struct{}{}
		}
	}
	r.mu.RUnlock()

	out := make([]domain.Language, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Snapshot returns a point-in-time copy of the roster ordered by join time.
func (r *Registry) Snapshot() []domain.Connection {
	r.mu.RLock()
	out := make([]domain.Connection, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.Conn)
	}
	r.mu.RUnlock()
	sortRoster(out)
	return out
}

func sortRoster(conns []domain.Connection) {
	slices.SortFunc(conns, func(a, b domain.Connection) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
}

// Recipient is a broadcast target taken from a snapshot.
type Recipient struct {
	Conn   domain.Connection
	Signal core.SignalConnection
}

// Recipients returns every joined connection with a transport, except the
// given ids.
func (r *Registry) Recipients(except ...domain.ConnID) []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Recipient, 0, len(r.sessions))
	for id, e := range r.sessions {
		if e.Signal == nil || slices.Contains(except, id) {
			continue
		}
		out = append(out, Recipient{Conn: e.Conn, Signal: e.Signal})
	}
	return out
}

// Presence is a consistent view of roster and history counters.
type Presence struct {
	Roster        []domain.Connection
	StoredCount   int
	MessageTotal  uint64
	TypingMembers []string
}

func (r *Registry) Presence() Presence {
	r.mu.RLock()
	p := Presence{
		Roster:        make([]domain.Connection, 0, len(r.sessions)),
		StoredCount:   r.history.Len(),
		MessageTotal:  r.history.Total(),
		TypingMembers: make([]string, 0, len(r.typing)),
	}
	for _, e := range r.sessions {
		p.Roster = append(p.Roster, e.Conn)
	}
	for name := range r.typing {
		p.TypingMembers = append(p.TypingMembers, name)
	}
	r.mu.RUnlock()
	sortRoster(p.Roster)
	slices.Sort(p.TypingMembers)
	return p
}
