package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	start := testNow.Add(48 * time.Hour)
	before := start.Add(-time.Minute)
	negative := -1.0

	tests := []struct {
		name    string
		event   *domain.Event
		wantErr error
	}{
		{
			name:  "success",
			event: &domain.Event{Title: "  Conf  ", StartsAt: start, Capacity: 10},
		},
		{
			name:    "missing title",
			event:   &domain.Event{StartsAt: start},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing start",
			event:   &domain.Event{Title: "Conf"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "end before start",
			event:   &domain.Event{Title: "Conf", StartsAt: start, EndsAt: &before},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative capacity",
			event:   &domain.Event{Title: "Conf", StartsAt: start, Capacity: -1},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative base price",
			event:   &domain.Event{Title: "Conf", StartsAt: start, BasePrice: &negative},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.events.CreateEvent(ctx, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, tt.event.ID)
			assert.Equal(t, "Conf", tt.event.Title)
			assert.Equal(t, testNow, tt.event.CreatedAt)

			got, err := f.events.GetEvent(ctx, tt.event.ID)
			require.NoError(t, err)
			assert.Equal(t, start.Add(time.Hour), got.End())
		})
	}
}

func TestEventService_GetEvent_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.events.GetEvent(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventService_ListEvents(t *testing.T) {
	f := newFixture(t)
	f.createEvent(t, "Later", 72*time.Hour, 1)
	f.createEvent(t, "Sooner", 24*time.Hour, 1)

	events, total, err := f.events.ListEvents(context.Background(), domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 2)
	assert.Equal(t, "Sooner", events[0].Title)
}
