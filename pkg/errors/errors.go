package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an engine failure so callers can map it to a transport
// status without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindTurnOrder
	KindRule
	KindNotFound
)

// Error is a game-rule failure with a human-readable reason. The message is
// safe to surface to players (it names suits, bid thresholds, card codes).
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func TurnOrder(format string, args ...interface{}) error {
	return &Error{Kind: KindTurnOrder, Message: fmt.Sprintf(format, args...)}
}

func Rule(format string, args ...interface{}) error {
	return &Error{Kind: KindRule, Message: fmt.Sprintf(format, args...)}
}

// KindOf unwraps err and returns its Kind, or KindUnknown for errors that did
// not originate in the engine.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	ErrGameNotFound     = &Error{Kind: KindNotFound, Message: "game not found"}
	ErrGameCodeNotFound = &Error{Kind: KindNotFound, Message: "invalid game code"}
	ErrStateNotFound    = &Error{Kind: KindNotFound, Message: "game state not found"}
	ErrPlayerNotFound   = &Error{Kind: KindNotFound, Message: "player not found in game"}
	ErrNoPlayers        = &Error{Kind: KindNotFound, Message: "no players found for game"}
)
