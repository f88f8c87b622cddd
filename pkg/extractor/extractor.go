// Package extractor detects calendar events in unstructured email text.
// It is deliberately pattern-based: the first date found in reading order
// decides the event, which keeps the behavior deterministic. Ranges like
// "from January 10 to January 15" are a known limitation and resolve to
// the first date.
package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

const (
	descriptionLimit = 500
	defaultDuration  = time.Hour
)

type dateShape int

const (
	shapeSlash dateShape = iota // MM/DD/YYYY, US ordering
	shapeISO                    // YYYY-MM-DD
	shapeMonth                  // "January 15, 2024"
)

var (
	slashDateRe = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	isoDateRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	monthDateRe = regexp.MustCompile(`(?i)(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`)

	meridiemTimeRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)
	bareTimeRe     = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

	locationRe = regexp.MustCompile(`(?i)(?:\b(?:at|location:?|venue:?)|@)\s+([^\n,.]+)`)

	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

var eventKeywords = []string{
	"meeting", "conference", "appointment", "event", "reminder",
	"invitation", "rsvp", "schedule", "calendar", "date", "time",
}

type dateMatch struct {
	pos   int
	text  string
	shape dateShape
}

// Extract scans subject and body for an event description and returns the
// materialized event, or nil when the text does not contain a parseable
// date. Parse failures never propagate; a malformed mail yields nil.
func Extract(subject, body string) *calendar.Event {
	dates := findDates(body)
	if len(dates) == 0 {
		return nil
	}

	// First date in reading order is authoritative.
	start, err := parseDate(dates[0])
	if err != nil {
		log.Debugf("discarding event candidate, unparseable date %q: %v", dates[0].text, err)
		return nil
	}

	if hour, minute, ok := findTime(body); ok {
		start = time.Date(start.Year(), start.Month(), start.Day(), hour, minute, 0, 0, start.Location())
	}

	return &calendar.Event{
		ID:          newEventID(),
		Title:       subject,
		Description: truncate(body, descriptionLimit),
		Start:       start,
		End:         start.Add(defaultDuration),
		Location:    findLocation(body),
		Source:      calendar.SourceMail,
		AccountID:   calendar.MailboxAccountID,
	}
}

// IsLikelyEvent reports whether the text mentions any event keyword. It is
// a cheap pre-filter only; Extract's sole gate is the presence of a date.
func IsLikelyEvent(subject, body string) bool {
	text := strings.ToLower(subject + " " + body)
	for _, keyword := range eventKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

type ContactInfo struct {
	Email string
	Phone string
}

// ExtractContactInfo returns the first email-shaped and phone-shaped
// substrings of the body, each independently optional.
func ExtractContactInfo(body string) ContactInfo {
	return ContactInfo{
		Email: emailRe.FindString(body),
		Phone: phoneRe.FindString(body),
	}
}

func findDates(body string) []dateMatch {
	var matches []dateMatch
	for _, re := range []struct {
		re    *regexp.Regexp
		shape dateShape
	}{
		{slashDateRe, shapeSlash},
		{isoDateRe, shapeISO},
		{monthDateRe, shapeMonth},
	} {
		for _, loc := range re.re.FindAllStringIndex(body, -1) {
			matches = append(matches, dateMatch{pos: loc[0], text: body[loc[0]:loc[1]], shape: re.shape})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	return matches
}

func parseDate(m dateMatch) (time.Time, error) {
	switch m.shape {
	case shapeISO:
		return time.ParseInLocation("2006-01-02", m.text, time.Local)
	case shapeSlash:
		return time.ParseInLocation("1/2/2006", m.text, time.Local)
	default:
		return parseMonthDate(m.text)
	}
}

// parseMonthDate handles "January 15, 2024" with an optional comma and a
// case-insensitive month name.
func parseMonthDate(text string) (time.Time, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("unexpected date format: %q", text)
	}
	month := strings.ToLower(fields[0])
	normalized := strings.ToUpper(month[:1]) + month[1:] + " " + fields[1] + " " + fields[2]

	for _, layout := range []string{"January 2, 2006", "January 2 2006"} {
		if t, err := time.ParseInLocation(layout, normalized, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", text)
}

// findTime returns the first matched time of day, preferring the AM/PM form
// over a bare H:MM anywhere in the text, converted to 24-hour values.
func findTime(body string) (hour, minute int, ok bool) {
	if m := meridiemTimeRe.FindStringSubmatch(body); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		switch strings.ToUpper(m[3]) {
		case "PM":
			if hour < 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		}
		return hour, minute, true
	}
	if m := bareTimeRe.FindStringSubmatch(body); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute, true
	}
	return 0, 0, false
}

// findLocation returns the first lead-in match ("at", "@", "location:",
// "venue:") whose captured text is not itself a date or a time. Without
// that check "at 2:00 PM" would shadow a later "Location: Conference Room A".
func findLocation(body string) string {
	rest := body
	for {
		m := locationRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return ""
		}
		candidate := strings.TrimSpace(rest[m[2]:m[3]])
		if candidate != "" && !looksLikeDateOrTime(candidate) {
			return candidate
		}
		// The capture is greedy, so a rejected match may still contain a
		// later lead-in ("at 7:00 PM at Luigi's"). Resume inside it.
		rest = rest[m[2]:]
	}
}

func looksLikeDateOrTime(s string) bool {
	for _, re := range []*regexp.Regexp{bareTimeRe, slashDateRe, isoDateRe, monthDateRe} {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// newEventID produces an id unique across calls within a process lifetime.
func newEventID() string {
	return fmt.Sprintf("mail-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
