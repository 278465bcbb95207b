package notifications

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/partstock/internal/domain/models"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

func newTestFeed(start time.Time) *Feed {
	seq := 0
	clock := start
	return NewFeed(
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("n-%d", seq)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
}

func TestAppendPrependsUnreadEntries(t *testing.T) {
	f := newTestFeed(time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC))

	first := f.Append(models.NotificationEvent{Type: models.NotificationStockIn, Title: "Stock In: Filter", Unread: false})
	second := f.Append(models.NotificationEvent{Type: models.NotificationStockOut, Title: "Removed: Pump"})

	assert.Equal(t, "n-1", first.ID)
	assert.True(t, first.Unread)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	list := f.List(ListParams{})
	require.Len(t, list, 2)
	assert.Equal(t, "n-2", list[0].ID)
	assert.Equal(t, "n-1", list[1].ID)
	assert.Equal(t, 2, f.UnreadCount())
	assert.Equal(t, 2, f.Len())
}

func TestListFiltersAndLimits(t *testing.T) {
	f := newTestFeed(time.Now())
	for i := 0; i < 5; i++ {
		f.Append(models.NotificationEvent{Title: fmt.Sprintf("event %d", i)})
	}
	_, err := f.MarkRead("n-5")
	require.NoError(t, err)

	unread := f.List(ListParams{UnreadOnly: true, Limit: 2})
	require.Len(t, unread, 2)
	assert.Equal(t, "n-4", unread[0].ID)
	assert.Equal(t, "n-3", unread[1].ID)

	all := f.List(ListParams{Limit: 10})
	assert.Len(t, all, 5)
}

func TestListReturnsCopy(t *testing.T) {
	f := newTestFeed(time.Now())
	f.Append(models.NotificationEvent{Title: "a"})

	list := f.List(ListParams{})
	list[0].Unread = false

	assert.Equal(t, 1, f.UnreadCount())
}

func TestMarkReadUnknownID(t *testing.T) {
	f := newTestFeed(time.Now())
	f.Append(models.NotificationEvent{Title: "a"})

	_, err := f.MarkRead("missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 1, f.UnreadCount())
}

func TestMarkReadKeepsOrder(t *testing.T) {
	f := newTestFeed(time.Now())
	f.Append(models.NotificationEvent{Title: "a"})
	f.Append(models.NotificationEvent{Title: "b"})

	updated, err := f.MarkRead("n-1")
	require.NoError(t, err)
	assert.False(t, updated.Unread)

	list := f.List(ListParams{})
	assert.Equal(t, []string{"n-2", "n-1"}, []string{list[0].ID, list[1].ID})
	assert.True(t, list[0].Unread)
	assert.False(t, list[1].Unread)
}

func TestMarkAllRead(t *testing.T) {
	f := newTestFeed(time.Now())
	f.Append(models.NotificationEvent{Title: "a"})
	f.Append(models.NotificationEvent{Title: "b"})
	f.Append(models.NotificationEvent{Title: "c"})
	_, _ = f.MarkRead("n-2")

	assert.Equal(t, 2, f.MarkAllRead())
	assert.Equal(t, 0, f.UnreadCount())
	assert.Equal(t, 0, f.MarkAllRead())
	assert.Equal(t, 3, f.Len())
}

func TestBetweenIsHalfOpenAndChronological(t *testing.T) {
	start := time.Date(2025, time.March, 1, 23, 57, 0, 0, time.UTC)
	f := newTestFeed(start)
	for i := 0; i < 5; i++ {
		f.Append(models.NotificationEvent{Title: fmt.Sprintf("e%d", i)})
	}

	day := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	got := f.Between(day, day.AddDate(0, 0, 1))

	require.Len(t, got, 3)
	assert.Equal(t, "n-3", got[0].ID)
	assert.Equal(t, "n-5", got[2].ID)
}
