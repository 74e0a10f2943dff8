package api

import (
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/pairing"
	"github.com/gin-gonic/gin"
)

type CoupleHandler struct {
	pairing pairing.Service
	log     *logger.Logger
}

func NewCoupleHandler(pairingSvc pairing.Service, baseLog *logger.Logger) *CoupleHandler {
	return &CoupleHandler{pairing: pairingSvc, log: baseLog.With("handler", "CoupleHandler")}
}

func (h *CoupleHandler) GenerateCode(c *gin.Context) {
	code, err := h.pairing.GenerateCode(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"love_id": code})
}

type connectRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *CoupleHandler) Connect(c *gin.Context) {
	var req connectRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	coupleID, err := h.pairing.Connect(c.Request.Context(), currentUser(c), req.Code)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"couple_id": coupleID})
}

func (h *CoupleHandler) Status(c *gin.Context) {
	st, err := h.pairing.Status(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, st)
}

func (h *CoupleHandler) Disconnect(c *gin.Context) {
	if err := h.pairing.Disconnect(c.Request.Context(), currentUser(c)); err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"status": "disconnected"})
}
