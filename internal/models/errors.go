package models

import "fmt"

// UserDisconnectedError reports a moderation target that is not in a state
// where the action applies (already left, already unbanned). The penalty
// sweep swallows it and retries on the next pass.
type UserDisconnectedError struct {
	UserID string
}

func (e *UserDisconnectedError) Error() string {
	return fmt.Sprintf("user %s is not connected", e.UserID)
}
