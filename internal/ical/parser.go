package ical

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCalendar is returned when a document cannot be parsed.
var ErrInvalidCalendar = errors.New("invalid calendar document")

// VEvent is one event block of a calendar document.
type VEvent struct {
	UID         string
	Stamp       time.Time
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
}

// Parse reads the event blocks of a calendar document. Folded lines are unfolded
// and property parameters (e.g. ";VALUE=DATE-TIME") are ignored.
func Parse(text string) ([]VEvent, error) {
	lines := unfold(text)

	var (
		events      []VEvent
		current     *VEvent
		inContainer bool
		sawEnd      bool
	)
	for n, line := range lines {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: line %d has no value separator", ErrInvalidCalendar, n+1)
		}
		if i := strings.IndexByte(name, ';'); i >= 0 {
			name = name[:i]
		}
		name = strings.ToUpper(name)

		switch {
		case name == "BEGIN" && value == "VCALENDAR":
			inContainer = true
		case name == "END" && value == "VCALENDAR":
			if current != nil {
				return nil, fmt.Errorf("%w: unterminated event block", ErrInvalidCalendar)
			}
			sawEnd = true
		case !inContainer:
			return nil, fmt.Errorf("%w: content before container start", ErrInvalidCalendar)
		case name == "BEGIN" && value == "VEVENT":
			if current != nil {
				return nil, fmt.Errorf("%w: nested event block", ErrInvalidCalendar)
			}
			current = &VEvent{}
		case name == "END" && value == "VEVENT":
			if current == nil {
				return nil, fmt.Errorf("%w: event end without start", ErrInvalidCalendar)
			}
			events = append(events, *current)
			current = nil
		case current != nil:
			if err := current.set(name, value); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCalendar, n+1, err)
			}
		}
	}
	if !inContainer || !sawEnd {
		return nil, fmt.Errorf("%w: missing container", ErrInvalidCalendar)
	}
	return events, nil
}

func (v *VEvent) set(name, value string) error {
	var err error
	switch name {
	case "UID":
		v.UID = value
	case "DTSTAMP":
		v.Stamp, err = ParseTime(value)
	case "DTSTART":
		v.Start, err = ParseTime(value)
	case "DTEND":
		v.End, err = ParseTime(value)
	case "SUMMARY":
		v.Summary = value
	case "DESCRIPTION":
		v.Description = value
	case "LOCATION":
		v.Location = value
	}
	return err
}

// ParseTime reads a basic-format timestamp. Values without the trailing Z are read as UTC.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("20060102T150405", value, time.UTC)
}

// unfold joins continuation lines onto the line before them. Lines are not
// length-limited.
func unfold(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
