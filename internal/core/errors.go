package core

import (
	"fmt"

	"github.com/multibot-dev/multibot/internal/models"
)

// AmbiguityError is returned by the resolver when the two top-scoring
// candidates are indistinguishable by score and priority. The engine
// refuses to guess between equally ranked intents; strict mode surfaces
// the condition to the user, otherwise the dispatch is dropped.
type AmbiguityError struct {
	First  string
	Second string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous intent: %q and %q matched with equal score and priority", e.First, e.Second)
}

// NotFoundError reports a requested role, user, chat or message that does
// not exist. Surfaced as a user-visible reply, never a crash.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.What)
}

// LimitError reports a bulk operation exceeding a platform or configured
// limit, e.g. clearing more messages than DeleteMessageLimit allows.
type LimitError struct {
	Requested int
	Limit     int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("requested %d exceeds the limit of %d", e.Requested, e.Limit)
}

// UserDisconnectedError lives in models so adapters can return it without
// importing this package.
type UserDisconnectedError = models.UserDisconnectedError

// SendError reports a failed outbound delivery.
type SendError struct {
	Platform string
	Cause    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed on %s: %v", e.Platform, e.Cause)
}

func (e *SendError) Unwrap() error {
	return e.Cause
}
