package api

import (
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications notification.Service
	log           *logger.Logger
}

func NewNotificationHandler(svc notification.Service, baseLog *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: svc, log: baseLog.With("handler", "NotificationHandler")}
}

func (h *NotificationHandler) List(c *gin.Context) {
	q, ok := bindPage(c, h.log)
	if !ok {
		return
	}
	page, err := h.notifications.List(c.Request.Context(), currentUser(c), q.Page, q.Limit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, page)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), currentUser(c), id); err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"id": id, "is_read": true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"updated": n})
}
