package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidClock = errors.New("invalid clock time")
)

// Clock es una hora de reloj local (sin fecha ni zona horaria).
type Clock struct {
	Hour   int
	Minute int
}

func NewClock(hour, minute int) Clock {
	return Clock{Hour: hour, Minute: minute}
}

func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// String devuelve "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock acepta "H:MM" o "HH:MM".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	c := Clock{Hour: h, Minute: m}
	if !c.Valid() {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return c, nil
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FormatList une los horarios con coma ("08:00,20:00"); así se persisten.
func FormatList(times []Clock) string {
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ",")
}

func ParseList(s string) ([]Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []Clock{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Clock, 0, len(parts))
	for _, p := range parts {
		c, err := ParseClock(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
