// Package domain contains entities without transport or concurrency logic.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const MaxUsernameLen = 20

var ErrInvalidName = errors.New("invalid display name")

var validate = validator.New()

// ConnID identifies one live connection. A reconnect always gets a new one.
type ConnID string

// Connection is one participant session as seen by the rest of the room.
type Connection struct {
	ID       ConnID    `json:"id"`
	Username string    `json:"username" validate:"required,max=20"`
	Language Language  `json:"preferredLanguage"`
	JoinedAt time.Time `json:"joinTime"`
}

// NewConnection trims the display name, checks its bounds and normalizes
// the preferred language.
func NewConnection(id ConnID, username, lang string, joinedAt time.Time) (Connection, error) {
	c := Connection{
		ID:       id,
		Username: strings.TrimSpace(username),
		Language: ParseLanguage(lang),
		JoinedAt: joinedAt,
	}
	if err := validate.Struct(c); err != nil {
		return Connection{}, fmt.Errorf("%w: %q", ErrInvalidName, username)
	}
	return c, nil
}
