// Package inventory owns the canonical item list, the stock ledger and the
// notification feed, and keeps the three consistent across every mutation.
package inventory

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/service/notifications"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
	"github.com/mamadbah2/partstock/pkg/metrics"
)

// DefaultLowStockThreshold is the remaining quantity at or below which a
// stock-out raises a low-stock alert.
const DefaultLowStockThreshold = 5

var allowedPageSizes = []int{10, 25, 50}

// Store is the single source of truth for inventory state. Every public
// method holds one mutex for its whole duration, so no caller can observe the
// item list, the statistics and the feed out of step with each other.
type Store struct {
	mu sync.Mutex

	items []models.InventoryItem
	stats models.StockStatistics
	feed  *notifications.Feed

	lowStockThreshold int
	metrics           *metrics.StoreMetrics
	logger            *zap.Logger
	now               func() time.Time
	newID             func() string
}

// Option customizes a Store.
type Option func(*Store)

func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLowStockThreshold(threshold int) Option {
	return func(s *Store) {
		if threshold >= 0 {
			s.lowStockThreshold = threshold
		}
	}
}

// WithClock overrides the time source for item dates and feed timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how item ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithFeed replaces the default empty feed.
func WithFeed(feed *notifications.Feed) Option {
	return func(s *Store) {
		if feed != nil {
			s.feed = feed
		}
	}
}

// NewStore builds an empty store.
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		lowStockThreshold: DefaultLowStockThreshold,
		logger:            logger,
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.feed == nil {
		s.feed = notifications.NewFeed(notifications.WithClock(s.now))
	}
	return s
}

// LowStockThreshold returns the configured alert threshold.
func (s *Store) LowStockThreshold() int {
	return s.lowStockThreshold
}

// Items returns a snapshot of every item, newest first.
func (s *Store) Items() []models.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneItems(s.items)
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(id)
	if idx < 0 {
		return models.InventoryItem{}, itemNotFound(id)
	}
	return s.items[idx], nil
}

// FindByPartsNumber returns the first item whose part number matches exactly.
func (s *Store) FindByPartsNumber(partsNumber string) (models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByPartsNumber(strings.TrimSpace(partsNumber))
	if idx < 0 {
		return models.InventoryItem{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "part %s not found", partsNumber)
	}
	return s.items[idx], nil
}

// Search filters items by a case-insensitive substring of name, part number
// or component and returns the requested page.
func (s *Store) Search(params models.SearchParams) models.ItemPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(params.Query))
	matched := make([]models.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		if query == "" ||
			strings.Contains(strings.ToLower(item.PartsName), query) ||
			strings.Contains(strings.ToLower(item.PartsNumber), query) ||
			strings.Contains(strings.ToLower(string(item.Component)), query) {
			matched = append(matched, item)
		}
	}

	perPage := normalizePageSize(params.PerPage)
	page := params.Page
	if page < 1 {
		page = 1
	}

	result := models.ItemPage{
		Items:      []models.InventoryItem{},
		Total:      len(matched),
		Page:       page,
		PerPage:    perPage,
		TotalPages: int(math.Ceil(float64(len(matched)) / float64(perPage))),
	}

	start := (page - 1) * perPage
	if start < len(matched) {
		end := start + perPage
		if end > len(matched) {
			end = len(matched)
		}
		result.Items = matched[start:end]
	}
	return result
}

// Statistics returns the current ledger.
func (s *Store) Statistics() models.StockStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// LowStock lists items at or below the low-stock threshold.
func (s *Store) LowStock() []models.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.InventoryItem
	for _, item := range s.items {
		if item.Quantity <= s.lowStockThreshold {
			out = append(out, item)
		}
	}
	return out
}

// Notifications returns a snapshot of the feed.
func (s *Store) Notifications(params notifications.ListParams) []models.NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.feed.List(params)
}

// MarkNotificationRead clears the unread flag of one feed entry.
func (s *Store) MarkNotificationRead(id string) (models.NotificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.feed.MarkRead(id)
	if err != nil {
		return models.NotificationEvent{}, err
	}
	s.publishLevels()
	return event, nil
}

// MarkAllNotificationsRead clears every unread flag.
func (s *Store) MarkAllNotificationsRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.feed.MarkAllRead()
	s.publishLevels()
	return changed
}

// UnreadCount counts unread feed entries.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.feed.UnreadCount()
}

// Activity returns feed entries with start <= timestamp < end, oldest first.
func (s *Store) Activity(start, end time.Time) []models.NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.feed.Between(start, end)
}

func (s *Store) indexByID(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexByPartsNumber(partsNumber string) int {
	if partsNumber == "" {
		return -1
	}
	for i := range s.items {
		if s.items[i].PartsNumber == partsNumber {
			return i
		}
	}
	return -1
}

// publishLevels must be called with mu held.
func (s *Store) publishLevels() {
	s.metrics.SetLevels(s.stats.ItemsInHand, s.feed.UnreadCount())
}

func (s *Store) today() models.Date {
	return models.NewDate(s.now())
}

func itemNotFound(id string) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "item %s not found", id).WithDetails(map[string]string{"id": id})
}

func normalizePageSize(perPage int) int {
	for _, allowed := range allowedPageSizes {
		if perPage == allowed {
			return perPage
		}
	}
	return allowedPageSizes[0]
}

func cloneItems(items []models.InventoryItem) []models.InventoryItem {
	out := make([]models.InventoryItem, len(items))
	copy(out, items)
	return out
}

func displayName(item models.InventoryItem) string {
	if item.PartsName != "" {
		return item.PartsName
	}
	return item.PartsNumber
}
