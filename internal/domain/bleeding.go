package domain

// Severity is the bleeding level recorded for a calendar day.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLight    Severity = "light"
	SeverityModerate Severity = "moderate"
	SeverityHeavy    Severity = "heavy"
)

func (s Severity) String() string {
	return string(s)
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityLight, SeverityModerate, SeverityHeavy:
		return true
	}
	return false
}

// Bleeding reports whether the day counts toward a bleeding streak.
func (s Severity) Bleeding() bool {
	return s.Valid() && s != SeverityNone
}

// BleedingRecord holds one entry per calendar day. Upserted by day key;
// the last write for a day wins.
type BleedingRecord struct {
	Day   string
	Level Severity
}
