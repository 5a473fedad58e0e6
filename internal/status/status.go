package status

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Status.
type Kind uint8

const (
	KindNew Kind = iota + 1
	KindReviewed
	KindShortlisted
	KindStage
	KindRejected
	KindSelected
)

const stagePrefix = "STAGE_"

// ErrInvalid is returned when a status label cannot be parsed.
var ErrInvalid = errors.New("invalid application status")

// Status is the tagged application status. The zero value is not a valid status.
type Status struct {
	kind  Kind
	stage int
}

var (
	New         = Status{kind: KindNew}
	Reviewed    = Status{kind: KindReviewed}
	Shortlisted = Status{kind: KindShortlisted}
	Rejected    = Status{kind: KindRejected}
	Selected    = Status{kind: KindSelected}
)

var labels = map[Kind]string{
	KindNew:         "NEW",
	KindReviewed:    "REVIEWED",
	KindShortlisted: "SHORTLISTED",
	KindRejected:    "REJECTED",
	KindSelected:    "SELECTED",
}

// Stage returns the in-flight status for interview stage n.
func Stage(n int) Status {
	return Status{kind: KindStage, stage: n}
}

// Kind reports the variant.
func (s Status) Kind() Kind { return s.kind }

// StageNumber returns the stage carried by a STAGE_<n> status.
func (s Status) StageNumber() (int, bool) {
	if s.kind != KindStage {
		return 0, false
	}
	return s.stage, true
}

// IsZero reports whether s is the unset zero value.
func (s Status) IsZero() bool { return s.kind == 0 }

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s.kind == KindRejected || s.kind == KindSelected
}

// Validate checks the status against a job's stage bound.
func (s Status) Validate(totalStages int) error {
	switch s.kind {
	case KindNew, KindReviewed, KindShortlisted, KindRejected, KindSelected:
		return nil
	case KindStage:
		if s.stage < 1 || s.stage > totalStages {
			return fmt.Errorf("%w: stage %d outside 1..%d", ErrInvalid, s.stage, totalStages)
		}
		return nil
	default:
		return fmt.Errorf("%w: unset", ErrInvalid)
	}
}

// String returns the canonical label, e.g. "SHORTLISTED" or "STAGE_3".
func (s Status) String() string {
	if s.kind == KindStage {
		return stagePrefix + strconv.Itoa(s.stage)
	}
	if label, ok := labels[s.kind]; ok {
		return label
	}
	return ""
}

// Parse converts a label into a Status. Matching ignores case and
// surrounding whitespace; stage numbers must be positive without leading zeros.
func Parse(value string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return Status{}, fmt.Errorf("%w: empty", ErrInvalid)
	}
	if digits, ok := strings.CutPrefix(normalized, stagePrefix); ok {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 || strconv.Itoa(n) != digits {
			return Status{}, fmt.Errorf("%w: %q", ErrInvalid, value)
		}
		return Stage(n), nil
	}
	for kind, label := range labels {
		if label == normalized {
			return Status{kind: kind}, nil
		}
	}
	return Status{}, fmt.Errorf("%w: %q", ErrInvalid, value)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("%w: unset", ErrInvalid)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("%w: unset", ErrInvalid)
	}
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalid, src)
	}
}
