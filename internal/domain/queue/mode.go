package queue

import "github.com/cockroachdb/errors"

// RepeatMode is the track-repeat policy.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota // Stop advancing at either end
	RepeatAll                    // Wrap around at either end
	RepeatOne                    // Restart the current track
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the following mode in the cycle none -> all -> one -> none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// ParseRepeatMode converts a persisted string back to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "none":
		return RepeatNone, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	default:
		return RepeatNone, errors.Newf("unknown repeat mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m RepeatMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RepeatMode) UnmarshalText(b []byte) error {
	parsed, err := ParseRepeatMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
