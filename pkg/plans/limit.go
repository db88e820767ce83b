package plans

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const unlimitedLiteral = "unlimited"

// Limit is a resource cap. A Limit is either a finite bound or unlimited;
// the zero value is Limited(0), which permits nothing.
type Limit struct {
	max       int64
	unlimited bool
}

// Limited returns a finite limit. Negative values are clamped to zero.
func Limited(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{max: n}
}

// Unlimited returns a limit without an upper bound.
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// FromLegacy converts integer limits stored by older clients, where zero or a
// negative value meant "no limit".
func FromLegacy(n int64) Limit {
	if n <= 0 {
		return Unlimited()
	}
	return Limited(n)
}

func (l Limit) IsUnlimited() bool { return l.unlimited }

// Max returns the finite bound. ok is false for unlimited limits.
func (l Limit) Max() (n int64, ok bool) {
	if l.unlimited {
		return 0, false
	}
	return l.max, true
}

// Allows reports whether one more unit fits when current units are in use.
func (l Limit) Allows(current int64) bool {
	if l.unlimited {
		return true
	}
	return current < l.max
}

// Remaining returns how many units are still available.
// ok is false for unlimited limits.
func (l Limit) Remaining(current int64) (n int64, ok bool) {
	if l.unlimited {
		return 0, false
	}
	if current >= l.max {
		return 0, true
	}
	return l.max - current, true
}

// Less reports whether l is strictly smaller than other. Unlimited is the
// largest value.
func (l Limit) Less(other Limit) bool {
	switch {
	case l.unlimited:
		return false
	case other.unlimited:
		return true
	default:
		return l.max < other.max
	}
}

func (l Limit) String() string {
	if l.unlimited {
		return unlimitedLiteral
	}
	return strconv.FormatInt(l.max, 10)
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.unlimited {
		return json.Marshal(unlimitedLiteral)
	}
	return json.Marshal(l.max)
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return l.parse(s)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLimit, string(data))
	}
	return l.setInt(n)
}

func (l Limit) MarshalYAML() (any, error) {
	if l.unlimited {
		return unlimitedLiteral, nil
	}
	return l.max, nil
}

func (l *Limit) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected scalar", ErrInvalidLimit, node.Line)
	}
	return l.parse(node.Value)
}

func (l *Limit) parse(s string) error {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, unlimitedLiteral) {
		*l = Unlimited()
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}
	return l.setInt(n)
}

func (l *Limit) setInt(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: negative value %d", ErrInvalidLimit, n)
	}
	*l = Limited(n)
	return nil
}
