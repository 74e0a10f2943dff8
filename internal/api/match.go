package api

import (
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/matching"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matching matching.Service
	log      *logger.Logger
}

func NewMatchHandler(matchingSvc matching.Service, baseLog *logger.Logger) *MatchHandler {
	return &MatchHandler{matching: matchingSvc, log: baseLog.With("handler", "MatchHandler")}
}

type sendRequestBody struct {
	ToUserID uuid.UUID `json:"to_user_id" binding:"required"`
	Message  string    `json:"message"`
}

func (h *MatchHandler) SendRequest(c *gin.Context) {
	var req sendRequestBody
	if !bindJSON(c, h.log, &req) {
		return
	}
	r, err := h.matching.SendRequest(c.Request.Context(), currentUser(c), req.ToUserID, req.Message)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondCreated(c, r)
}

type respondBody struct {
	Response matching.Response `json:"response" binding:"required"`
}

func (h *MatchHandler) Respond(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	var req respondBody
	if !bindJSON(c, h.log, &req) {
		return
	}
	res, err := h.matching.Respond(c.Request.Context(), currentUser(c), id, req.Response)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, res)
}
