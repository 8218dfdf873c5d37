package app

import (
	"fmt"

	"github.com/dkeye/Babel/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a recipient whose outbound buffer is full.
type Policy interface {
	OnBackPressure(member domain.Connection) BackpressureAction
}

// KickPolicy disconnects slow consumers; they rejoin and catch up from history.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.Connection) BackpressureAction { return KickMember }

// DropPolicy silently loses the frame for that recipient.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.Connection) BackpressureAction { return DropFrame }

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return KickPolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
