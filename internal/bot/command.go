package bot

import (
	"errors"
	"strings"
)

// Callback data follows one colon-delimited shape everywhere:
// <action>:<scope>:<arg>. The old per-family shapes (confirm_almaz:<id>,
// reject_pubg:<id>:<uid>) are gone; commands are decoded once here and
// dispatched typed.
type Command struct {
	Action string // "menu", "fam", "buy", "confirm", "reject", "topup", "promo", "admin", "back"
	Scope  string // family name, "order"/"topup", or a sub-action
	Arg    string // item key, order id, card rail, ...
}

var ErrBadCommand = errors.New("malformed callback data")

// ParseCommand decodes callback data. Arg may itself contain colons (uuid
// never does, item keys never do, but splitting at two keeps it safe).
func ParseCommand(data string) (Command, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return Command{}, ErrBadCommand
	}
	c := Command{Action: parts[0], Scope: parts[1]}
	if len(parts) == 3 {
		c.Arg = parts[2]
	}
	return c, nil
}

// String re-encodes the command for keyboard construction.
func (c Command) String() string {
	if c.Arg == "" {
		return c.Action + ":" + c.Scope
	}
	return c.Action + ":" + c.Scope + ":" + c.Arg
}
