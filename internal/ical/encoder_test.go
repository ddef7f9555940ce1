package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

var stamp = time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func strPtr(s string) *string { return &s }

func TestEncoder_ExportOne_Golden(t *testing.T) {
	end := time.Date(2026, 11, 20, 22, 30, 0, 0, time.UTC)
	ev := &domain.Event{
		ID:          "evt-1",
		Title:       "Night Market Live",
		Description: strPtr("Doors open at 18:00"),
		StartsAt:    time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC),
		EndsAt:      &end,
		Location:    "Pier 9, Hall B",
	}
	enc := NewEncoder("tickets.example.com", clock.NewFixed(stamp))

	newGoldie(t).Assert(t, "export_one", []byte(enc.ExportOne(ev)))
}

func TestEncoder_ExportAll_Golden(t *testing.T) {
	entries := []*domain.CalendarEntry{
		{
			ID:       "entry-1",
			Title:    "Opening Keynote",
			Location: "Main Stage",
			StartsAt: time.Date(2026, 11, 20, 9, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 11, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          "entry-2",
			Title:       "Closing Party",
			Location:    "Rooftop",
			Description: strPtr("Bring your ticket"),
			StartsAt:    time.Date(2026, 11, 21, 20, 0, 0, 0, time.FixedZone("CET", 3600)),
			EndsAt:      time.Date(2026, 11, 21, 23, 0, 0, 0, time.FixedZone("CET", 3600)),
		},
	}
	enc := NewEncoder("tickets.example.com", clock.NewFixed(stamp))

	newGoldie(t).Assert(t, "export_all", []byte(enc.ExportAll(entries)))
}

func TestEncoder_ExportOne_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		event *domain.Event
	}{
		{
			name: "explicit end with sub-second precision",
			event: &domain.Event{
				ID:       "e1",
				Title:    "Jazz Evening",
				StartsAt: time.Date(2026, 6, 1, 19, 30, 15, 987654321, time.UTC),
				EndsAt: func() *time.Time {
					t := time.Date(2026, 6, 1, 22, 0, 59, 999, time.UTC)
					return &t
				}(),
				Location: "Blue Note",
			},
		},
		{
			name: "default end, non-UTC zone",
			event: &domain.Event{
				ID:       "e2",
				Title:    "Morning Run",
				StartsAt: time.Date(2026, 6, 2, 7, 0, 0, 0, time.FixedZone("EST", -5*3600)),
				Location: "Central Park",
			},
		},
		{
			name: "value with colon and semicolon",
			event: &domain.Event{
				ID:       "e3",
				Title:    "Talk: Go; Concurrency",
				StartsAt: time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC),
				Location: "Room 1: Level 2",
			},
		},
		{
			name: "value longer than a scanner token",
			event: &domain.Event{
				ID:       "e4",
				Title:    strings.Repeat("Encore", 12*1024),
				StartsAt: time.Date(2026, 6, 4, 20, 0, 0, 0, time.UTC),
				Location: "Arena",
			},
		},
	}

	enc := NewEncoder("tickets.example.com", clock.NewFixed(stamp))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Parse(enc.ExportOne(tt.event))
			require.NoError(t, err)
			require.Len(t, events, 1)

			got := events[0]
			assert.True(t, tt.event.StartsAt.Truncate(time.Second).Equal(got.Start))
			assert.True(t, tt.event.End().Truncate(time.Second).Equal(got.End))
			assert.Equal(t, tt.event.Title, got.Summary)
			assert.Equal(t, tt.event.Location, got.Location)
			assert.Equal(t, tt.event.ID+"@tickets.example.com", got.UID)
			assert.True(t, stamp.Equal(got.Stamp))
		})
	}
}

func TestEncoder_ExportAll_Empty(t *testing.T) {
	enc := NewEncoder("tickets.example.com", clock.NewFixed(stamp))
	events, err := Parse(enc.ExportAll(nil))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFormatTime(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 600, time.FixedZone("X", 2*3600))
	assert.Equal(t, "20260102T010405Z", FormatTime(at))
}
