package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind classifies a reminder relative to the due date. It drives message
// wording and embed severity.
type Kind string

const (
	KindAdvance Kind = "ADVANCE"
	KindDue     Kind = "DUE"
	KindOverdue Kind = "OVERDUE"
)

// Offset is a signed delta from a cycle's due date defining when a reminder
// should fire. The set of configured offsets is loaded once at startup and
// immutable for the life of the process.
type Offset struct {
	// ID is the stable identifier recorded in the notification log; together
	// with the cycle ID it forms the anti-duplicate key.
	ID    string
	Delta time.Duration
}

// NewOffset builds an offset with its canonical identifier.
func NewOffset(d time.Duration) Offset {
	return Offset{ID: d.String(), Delta: d}
}

// Kind derives the reminder class from the offset sign.
func (o Offset) Kind() Kind {
	switch {
	case o.Delta < 0:
		return KindAdvance
	case o.Delta == 0:
		return KindDue
	default:
		return KindOverdue
	}
}

// FireAt returns the instant this offset crosses for the given due date.
func (o Offset) FireAt(due time.Time) time.Time {
	return due.Add(o.Delta)
}

// ParseOffsets parses a comma-separated list of signed durations
// (e.g. "-72h,-24h,0s,24h") into a deduplicated, sorted offset set.
// An empty or invalid list is a configuration error.
func ParseOffsets(s string) ([]Offset, error) {
	parts := strings.Split(s, ",")
	seen := make(map[string]bool)
	offsets := make([]Offset, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("invalid notification offset %q: %w", part, err)
		}
		o := NewOffset(d)
		if seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		offsets = append(offsets, o)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("notification offset list is empty")
	}
	sortOffsets(offsets)
	return offsets, nil
}

// MaxAdvance returns the largest "before due" lead among the offsets, as a
// non-negative duration. It bounds how far into the future the evaluator
// must look for due dates.
func MaxAdvance(offsets []Offset) time.Duration {
	var max time.Duration
	for _, o := range offsets {
		if -o.Delta > max {
			max = -o.Delta
		}
	}
	return max
}

func sortOffsets(offsets []Offset) {
	sort.Slice(offsets, func(i, j int) bool { return offsets[i].Delta < offsets[j].Delta })
}
