package api

import (
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/recovery"
	"github.com/gin-gonic/gin"
)

type RecoveryHandler struct {
	recovery recovery.Service
	log      *logger.Logger
}

func NewRecoveryHandler(recoverySvc recovery.Service, baseLog *logger.Logger) *RecoveryHandler {
	return &RecoveryHandler{recovery: recoverySvc, log: baseLog.With("handler", "RecoveryHandler")}
}

func (h *RecoveryHandler) Status(c *gin.Context) {
	st, err := h.recovery.Status(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, st)
}

type actionRequest struct {
	Action recovery.ActionType `json:"action" binding:"required"`
}

func (h *RecoveryHandler) SubmitAction(c *gin.Context) {
	var req actionRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	res, err := h.recovery.SubmitAction(c.Request.Context(), currentUser(c), req.Action)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, res)
}
