package lamp

import "fmt"

// Command sets the three LED strip channels.
type Command struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Off returns the all-channels-off command.
func Off() Command {
	return Command{}
}

// Uniform returns a command with every channel at level.
func Uniform(level uint8) Command {
	return Command{R: level, G: level, B: level}
}

// IsOff reports whether every channel is zero.
func (c Command) IsOff() bool {
	return c == Command{}
}

// Kind is a short label used for metrics and logs ("off" or "on").
func (c Command) Kind() string {
	if c.IsOff() {
		return "off"
	}
	return "on"
}

// String formats the command as r,g,b.
func (c Command) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}
