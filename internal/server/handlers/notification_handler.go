package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/service/notifications"
)

// NotificationStore is the feed surface exposed over HTTP.
type NotificationStore interface {
	Notifications(params notifications.ListParams) []models.NotificationEvent
	MarkNotificationRead(id string) (models.NotificationEvent, error)
	MarkAllNotificationsRead() int
	UnreadCount() int
}

// NotificationHandler serves the notification feed.
type NotificationHandler struct {
	store  NotificationStore
	logger *zap.Logger
}

func NewNotificationHandler(store NotificationStore, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{store: store, logger: logger}
}

type notificationList struct {
	Notifications []models.NotificationEvent `json:"notifications"`
	UnreadCount   int                        `json:"unreadCount"`
}

// List returns the feed newest first; ?unread_only=true and ?limit=N narrow it.
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := false
	if raw := c.Query("unread_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, h.logger, err, "unread_only must be true or false")
			return
		}
		unreadOnly = parsed
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil || limit < 0 {
		badRequest(c, h.logger, err, "limit must be a non-negative number")
		return
	}

	c.JSON(http.StatusOK, notificationList{
		Notifications: h.store.Notifications(notifications.ListParams{UnreadOnly: unreadOnly, Limit: limit}),
		UnreadCount:   h.store.UnreadCount(),
	})
}

// MarkRead clears the unread flag of one notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	event, err := h.store.MarkNotificationRead(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// MarkAllRead clears every unread flag.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	changed := h.store.MarkAllNotificationsRead()
	c.JSON(http.StatusOK, gin.H{"updated": changed})
}
