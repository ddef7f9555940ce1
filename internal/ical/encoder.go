// Package ical writes and reads the calendar interchange documents handed to users.
//
// Output follows the iCalendar layout (VCALENDAR container, one VEVENT per item,
// CRLF line endings, UTC basic timestamps). Property values are written verbatim:
// embedded newlines are not escaped, so a value containing a line break does not
// survive a round trip.
package ical

import (
	"strings"
	"time"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

// TimestampLayout is the canonical basic UTC format used for every timestamp.
const TimestampLayout = "20060102T150405Z"

const (
	crlf   = "\r\n"
	prodID = "-//eventticketing//Ticketing Calendar//EN"
)

// Encoder renders calendar documents. UIDs are suffixed with the configured domain.
type Encoder struct {
	domain string
	clock  clock.Clock
}

// NewEncoder returns an Encoder that stamps documents with clk.
func NewEncoder(uidDomain string, clk clock.Clock) *Encoder {
	return &Encoder{domain: uidDomain, clock: clk}
}

var _ domain.CalendarEncoder = (*Encoder)(nil)

// ExportOne renders a document holding exactly one event.
func (e *Encoder) ExportOne(event *domain.Event) string {
	var b strings.Builder
	writeHeader(&b)
	e.writeEvent(&b, VEvent{
		UID:         e.uid(event.ID),
		Start:       event.StartsAt,
		End:         event.End(),
		Summary:     event.Title,
		Description: deref(event.Description),
		Location:    event.Location,
	})
	writeFooter(&b)
	return b.String()
}

// ExportAll renders every entry inside a single container.
func (e *Encoder) ExportAll(entries []*domain.CalendarEntry) string {
	var b strings.Builder
	writeHeader(&b)
	for _, entry := range entries {
		e.writeEvent(&b, VEvent{
			UID:         e.uid(entry.ID),
			Start:       entry.StartsAt,
			End:         entry.EndsAt,
			Summary:     entry.Title,
			Description: deref(entry.Description),
			Location:    entry.Location,
		})
	}
	writeFooter(&b)
	return b.String()
}

func (e *Encoder) uid(id string) string {
	return id + "@" + e.domain
}

func (e *Encoder) writeEvent(b *strings.Builder, ev VEvent) {
	writeLine(b, "BEGIN", "VEVENT")
	writeLine(b, "UID", ev.UID)
	writeLine(b, "DTSTAMP", FormatTime(e.clock.Now()))
	writeLine(b, "DTSTART", FormatTime(ev.Start))
	writeLine(b, "DTEND", FormatTime(ev.End))
	writeLine(b, "SUMMARY", ev.Summary)
	if ev.Description != "" {
		writeLine(b, "DESCRIPTION", ev.Description)
	}
	writeLine(b, "LOCATION", ev.Location)
	writeLine(b, "END", "VEVENT")
}

func writeHeader(b *strings.Builder) {
	writeLine(b, "BEGIN", "VCALENDAR")
	writeLine(b, "VERSION", "2.0")
	writeLine(b, "PRODID", prodID)
	writeLine(b, "CALSCALE", "GREGORIAN")
	writeLine(b, "METHOD", "PUBLISH")
}

func writeFooter(b *strings.Builder) {
	writeLine(b, "END", "VCALENDAR")
}

func writeLine(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteString(crlf)
}

// FormatTime renders t in the canonical basic UTC format, truncated to the second.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
