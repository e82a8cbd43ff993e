package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// MessageType selects the color of a status message.
type MessageType int

// The message types printed by the rescale command.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// ANSI colors of the message types.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
}

// DecorateText wraps s in the color of msgType. Unknown types leave s as it is.
func DecorateText(s string, msgType MessageType) string {
	color, ok := messageColors[msgType]
	if !ok {
		return s
	}
	return color + s + DefaultColor
}

// IsTerminal reports whether w is a file attached to a terminal.
// Colors are only worth printing there.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var timeUnits = []struct {
	unit   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
}

// FormatTime prints d as days, hours, minutes and seconds, leaving out the
// leading units which are zero, e.g. "2m 5.00s".
func FormatTime(d time.Duration) string {
	var b strings.Builder
	started := false
	for _, u := range timeUnits {
		n := d / u.unit
		if n == 0 && !started {
			continue
		}
		fmt.Fprintf(&b, "%d%s ", n, u.suffix)
		d -= n * u.unit
		started = true
	}
	fmt.Fprintf(&b, "%.2fs", d.Seconds())
	return b.String()
}
