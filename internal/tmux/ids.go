package tmux

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSessionID converts a tmux session id ("$7") or a bare number ("7")
// to its integer form.
func ParseSessionID(s string) (int, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "$")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: session %q", ErrInvalidTarget, s)
	}
	return id, nil
}

// FormatSessionID returns the tmux target for a session id.
func FormatSessionID(id int) string {
	return "$" + strconv.Itoa(id)
}
