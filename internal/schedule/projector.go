package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the number of upcoming entries a projection always contains.
const DefaultWindow = 5

var dayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

const (
	fallbackVenue = "To be decided..."
	fallbackTime  = "2:00 PM"
)

// ConfirmedJam is a persisted jam occurrence fed into the projector.
type ConfirmedJam struct {
	ID        string
	Date      string
	Day       string
	Venue     string
	Time      string
	MapLink   string
	Cancelled bool
}

// Config carries the site defaults used when synthesizing proposal entries.
type Config struct {
	DefaultDay     string
	DefaultVenue   string
	DefaultTime    string
	DefaultMapLink string
}

// Entry is a single row of the projected schedule. Confirmed entries keep
// their stored fields; proposal entries are synthesized from Config and are
// never persisted.
type Entry struct {
	ID         string
	Date       time.Time
	Day        string
	Venue      string
	Time       string
	MapLink    string
	Cancelled  bool
	IsProposal bool
	// Special marks a confirmed entry that falls outside the configured
	// default weekday. The renderer highlights these rows.
	Special bool
}

// Projector expands confirmed jams into a fixed-length upcoming schedule.
type Projector struct {
	location *time.Location
	window   int
}

// NewProjector constructs a Projector that normalizes dates to the provided
// location. If loc is nil, the local timezone is used.
func NewProjector(loc *time.Location) *Projector {
	if loc == nil {
		loc = time.Local
	}
	return &Projector{location: loc, window: DefaultWindow}
}

// ErrUnparsableDate indicates a stored date string matched none of the
// supported formats.
var ErrUnparsableDate = errors.New("schedule: unparsable date")

var legacyLayouts = []string{"Jan 2 2006", "January 2 2006"}

// ParseDate interprets a stored jam date. Two textual forms are accepted for
// backward compatibility with records written by earlier schema revisions:
// ISO "YYYY-MM-DD", and a legacy month-day string ("Sep: 21") with the year
// implied and colon characters stripped before parsing.
func ParseDate(raw string, impliedYear int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, ErrUnparsableDate
	}

	if strings.Contains(trimmed, "-") {
		parsed, err := time.ParseInLocation("2006-1-2", trimmed, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, raw)
		}
		return parsed, nil
	}

	withYear := fmt.Sprintf("%s %d", strings.ReplaceAll(trimmed, ":", ""), impliedYear)
	for _, layout := range legacyLayouts {
		if parsed, err := time.ParseInLocation(layout, withYear, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, raw)
}

// ResolveWeekday maps a configured default day to a weekday. Numeric values
// are treated as indexes (0=Sunday..6=Saturday); otherwise the value is
// matched against weekday names. Unrecognized input falls back to Saturday.
func ResolveWeekday(value string) time.Weekday {
	trimmed := strings.TrimSpace(value)
	if index, err := strconv.Atoi(trimmed); err == nil && index >= 0 && index <= 6 {
		return time.Weekday(index)
	}
	for i, name := range dayNames {
		if strings.EqualFold(name, trimmed) {
			return time.Weekday(i)
		}
	}
	return time.Saturday
}

// Project returns the next entries as of the provided date, padding the list
// with synthesized proposals when confirmed jams run short. Confirmed jams
// whose dates cannot be parsed are dropped and reported in the second return
// value so callers can log them; one bad record never fails the projection.
func (p *Projector) Project(confirmed []ConfirmedJam, cfg Config, asOf time.Time) ([]Entry, []ConfirmedJam) {
	loc := p.location
	if loc == nil {
		loc = time.Local
	}
	window := p.window
	if window <= 0 {
		window = DefaultWindow
	}

	asOf = midnight(asOf.In(loc))
	target := ResolveWeekday(cfg.DefaultDay)

	var dropped []ConfirmedJam
	entries := make([]Entry, 0, window)
	for _, jam := range confirmed {
		date, err := ParseDate(jam.Date, asOf.Year(), loc)
		if err != nil {
			dropped = append(dropped, jam)
			continue
		}
		if date.Before(asOf) {
			continue
		}
		entries = append(entries, Entry{
			ID:        jam.ID,
			Date:      date,
			Day:       jam.Day,
			Venue:     jam.Venue,
			Time:      jam.Time,
			MapLink:   jam.MapLink,
			Cancelled: jam.Cancelled,
			Special:   date.Weekday() != target,
		})
	}
	sortEntries(entries)

	// Roll forward from the last confirmed entry, or the day before asOf when
	// none exist, so the first synthesized date can land on asOf's own week.
	anchor := asOf.AddDate(0, 0, -1)
	if len(entries) > 0 {
		anchor = entries[len(entries)-1].Date
	}

	occupied := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		occupied[isoDate(entry.Date)] = struct{}{}
	}

	venue := cfg.DefaultVenue
	if venue == "" {
		venue = fallbackVenue
	}
	slot := cfg.DefaultTime
	if slot == "" {
		slot = fallbackTime
	}

	// Each iteration advances the anchor by at least one day and at most
	// seven, so the loop is bounded even when every candidate is occupied.
	for len(entries) < window {
		anchor = nextWeekday(anchor, target)
		key := isoDate(anchor)
		if _, taken := occupied[key]; taken {
			continue
		}
		occupied[key] = struct{}{}
		entries = append(entries, Entry{
			ID:         "proposal-" + key,
			Date:       anchor,
			Day:        dayNames[target],
			Venue:      venue,
			Time:       slot,
			MapLink:    cfg.DefaultMapLink,
			IsProposal: true,
		})
	}

	sortEntries(entries)
	if len(entries) > window {
		entries = entries[:window]
	}
	return entries, dropped
}

// nextWeekday returns the next occurrence of target strictly after from. When
// from already falls on the target weekday, a full week is added so the
// anchor date itself is never synthesized.
func nextWeekday(from time.Time, target time.Weekday) time.Time {
	days := (int(target) - int(from.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return from.AddDate(0, 0, days)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func sortEntries(entries []Entry) {
	// Insertion sort keeps equal dates in input order, which preserves
	// duplicate confirmed entries ahead of anything synthesized later.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Date.Before(entries[j-1].Date); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// FormatTime renders a stored 24-hour clock value as a 12-hour label. Values
// already carrying an AM/PM suffix, or without a colon, pass through.
func FormatTime(value string) string {
	if !strings.Contains(value, ":") {
		return value
	}
	lower := strings.ToLower(value)
	if strings.Contains(lower, "am") || strings.Contains(lower, "pm") {
		return value
	}
	parts := strings.SplitN(value, ":", 2)
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return value
	}
	suffix := "AM"
	if hours >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%s %s", (hours+11)%12+1, parts[1], suffix)
}
