package api

import (
	"time"

	interactionRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/interaction"
	"github.com/gin-gonic/gin"
)

type LoveHandler struct {
	interactions interaction.Service
	log          *logger.Logger
}

func NewLoveHandler(interactions interaction.Service, baseLog *logger.Logger) *LoveHandler {
	return &LoveHandler{interactions: interactions, log: baseLog.With("handler", "LoveHandler")}
}

type moodRequest struct {
	Mood interactionRepo.Mood `json:"mood" binding:"required"`
}

func (h *LoveHandler) SubmitMood(c *gin.Context) {
	var req moodRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	out, err := h.interactions.SubmitMood(c.Request.Context(), currentUser(c), req.Mood)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

type appreciationRequest struct {
	Kind interactionRepo.AppreciationKind `json:"kind" binding:"required"`
}

func (h *LoveHandler) SendAppreciation(c *gin.Context) {
	var req appreciationRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	out, err := h.interactions.SendAppreciation(c.Request.Context(), currentUser(c), req.Kind)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *LoveHandler) Status(c *gin.Context) {
	st, err := h.interactions.LoveStatus(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, st)
}

type memoryRequest struct {
	ImageURL string     `json:"image_url" binding:"required"`
	MediaID  string     `json:"media_id" binding:"required"`
	Note     string     `json:"note"`
	TakenAt  *time.Time `json:"taken_at"`
}

func (h *LoveHandler) AddMemory(c *gin.Context) {
	var req memoryRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	m, out, err := h.interactions.AddMemory(c.Request.Context(), currentUser(c), interaction.MemoryInput{
		ImageURL: req.ImageURL,
		MediaID:  req.MediaID,
		Note:     req.Note,
		TakenAt:  req.TakenAt,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"memory": m, "score": out.Score, "stage": out.Stage, "points": out.Points})
}

func (h *LoveHandler) ListMemories(c *gin.Context) {
	q, ok := bindPage(c, h.log)
	if !ok {
		return
	}
	items, err := h.interactions.ListMemories(c.Request.Context(), currentUser(c), q.Page, q.Limit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"memories": items, "page": q.Page})
}
