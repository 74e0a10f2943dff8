package api

import (
	"errors"
	"net/http"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type APIError struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError renders err with the status of its code. Errors without a
// code are logged and hidden behind a generic message.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code == apperrors.CodeInternal {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Code: apperrors.CodeInternal, Message: "internal error"},
		})
		return
	}
	if appErr.Code == apperrors.CodeTransient {
		log.Warn("transient failure", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(apperrors.HTTPStatus(appErr.Code), ErrorEnvelope{
		Error: APIError{Code: appErr.Code, Message: appErr.Message},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func bindJSON(c *gin.Context, log *logger.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, log, apperrors.Wrap(apperrors.CodeValidation, "invalid request body", err))
		return false
	}
	return true
}

func pathID(c *gin.Context, log *logger.Logger, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, log, apperrors.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

type pageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func bindPage(c *gin.Context, log *logger.Logger) (pageQuery, bool) {
	q := pageQuery{Page: 1, Limit: 20}
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, log, apperrors.Wrap(apperrors.CodeValidation, "invalid paging parameters", err))
		return q, false
	}
	return q, true
}
