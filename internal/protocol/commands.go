package protocol

import (
	"fmt"
	"strconv"
)

// Activity identifies a player intent sent to the server. The set is open
// on the server side; these are the verbs the table client uses.
type Activity string

const (
	ActivityFold  Activity = "fold"
	ActivityCheck Activity = "check"
	ActivityCall  Activity = "call"
	ActivityBet   Activity = "bet"
	ActivityRaise Activity = "raise"
	ActivityAllIn Activity = "all-in"
	ActivityReady Activity = "ready"
)

// Command is the single outbound frame shape. Args are always strings on
// the wire regardless of their source type.
type Command struct {
	UserID   string   `json:"user_id"`
	RoomID   string   `json:"room_id"`
	Activity Activity `json:"activity"`
	Args     []string `json:"args"`
}

// NewCommand builds an outbound command, coercing every arg to its string
// form.
func NewCommand(userID, roomID string, activity Activity, args ...any) Command {
	strArgs := make([]string, len(args))
	for i, a := range args {
		strArgs[i] = fmt.Sprint(a)
	}
	return Command{
		UserID:   userID,
		RoomID:   roomID,
		Activity: activity,
		Args:     strArgs,
	}
}

// NewReadyCommand builds the readiness toggle command.
func NewReadyCommand(userID, roomID string, isReady bool) Command {
	return Command{
		UserID:   userID,
		RoomID:   roomID,
		Activity: ActivityReady,
		Args:     []string{strconv.FormatBool(isReady)},
	}
}
