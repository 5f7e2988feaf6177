package assistant

import (
	"strconv"
	"strings"
)

// Button is an action the user can pick instead of typing.
type Button struct {
	Label  string
	Action string
}

// Reply is the answer to one user turn.
type Reply struct {
	Text    string
	Buttons []Button
}

// Actions carried by buttons.
const (
	ActionConflictConfirm = "conflict_confirm"
	ActionConflictCancel  = "conflict_cancel"
	ActionConfirmDelete   = "confirm_delete"
	ActionCancelDelete    = "cancel_delete"
	ActionCancelUpdate    = "cancel_update"
	ActionCancelLookup    = "cancel_lookup"
	ActionSlotsEarlier    = "slots_earlier"
	ActionSlotsLater      = "slots_later"
	ActionSeriesConfirm   = "series_confirm"
	ActionSeriesCancel    = "series_cancel"
)

// Prefixes of numbered choices, e.g. "update_2".
const (
	PrefixDelete = "delete_"
	PrefixUpdate = "update_"
	PrefixLookup = "lookup_"
)

func choiceAction(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}

// parseChoice splits a numbered choice into its prefix and index.
func parseChoice(action string) (string, int, bool) {
	for _, prefix := range []string{PrefixDelete, PrefixUpdate, PrefixLookup} {
		rest, found := strings.CutPrefix(action, prefix)
		if !found {
			continue
		}
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 {
			return "", 0, false
		}
		return prefix, i, true
	}
	return "", 0, false
}

func say(s string) Reply {
	return Reply{Text: s}
}
