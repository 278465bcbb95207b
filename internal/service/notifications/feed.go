// Package notifications keeps the newest-first event feed produced by inventory mutations.
package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/partstock/internal/domain/models"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

// ListParams narrows a feed snapshot.
type ListParams struct {
	UnreadOnly bool
	Limit      int
}

// Feed is an append-only event log with read state. Entries are never removed
// or reordered and there is no cap on its size.
//
// Feed does no locking of its own; the inventory store is its single writer
// and serializes every call.
type Feed struct {
	events []models.NotificationEvent
	now    func() time.Time
	newID  func() string
}

// Option customizes a Feed.
type Option func(*Feed)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) {
		if now != nil {
			f.now = now
		}
	}
}

// WithIDGenerator overrides how entry ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(f *Feed) {
		if newID != nil {
			f.newID = newID
		}
	}
}

// NewFeed returns an empty feed.
func NewFeed(opts ...Option) *Feed {
	f := &Feed{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Append stamps event with a fresh id, the current time and unread state, and
// puts it at the head of the feed.
func (f *Feed) Append(event models.NotificationEvent) models.NotificationEvent {
	event.ID = f.newID()
	event.Timestamp = f.now()
	event.Unread = true

	f.events = append(f.events, models.NotificationEvent{})
	copy(f.events[1:], f.events[:len(f.events)-1])
	f.events[0] = event

	return event
}

// List returns a copy of the feed, newest first.
func (f *Feed) List(params ListParams) []models.NotificationEvent {
	out := make([]models.NotificationEvent, 0, len(f.events))
	for _, event := range f.events {
		if params.UnreadOnly && !event.Unread {
			continue
		}
		out = append(out, event)
		if params.Limit > 0 && len(out) == params.Limit {
			break
		}
	}
	return out
}

// MarkRead clears the unread flag of one entry.
func (f *Feed) MarkRead(id string) (models.NotificationEvent, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].Unread = false
			return f.events[i], nil
		}
	}
	return models.NotificationEvent{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "notification %s not found", id)
}

// MarkAllRead clears every unread flag and reports how many changed.
func (f *Feed) MarkAllRead() int {
	changed := 0
	for i := range f.events {
		if f.events[i].Unread {
			f.events[i].Unread = false
			changed++
		}
	}
	return changed
}

// UnreadCount counts entries still flagged unread.
func (f *Feed) UnreadCount() int {
	count := 0
	for _, event := range f.events {
		if event.Unread {
			count++
		}
	}
	return count
}

// Len is the total number of entries ever appended.
func (f *Feed) Len() int {
	return len(f.events)
}

// Between returns entries with start <= timestamp < end, oldest first.
func (f *Feed) Between(start, end time.Time) []models.NotificationEvent {
	var out []models.NotificationEvent
	for i := len(f.events) - 1; i >= 0; i-- {
		ts := f.events[i].Timestamp
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		out = append(out, f.events[i])
	}
	return out
}
