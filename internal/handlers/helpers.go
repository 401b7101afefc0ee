package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/middleware"
	"account-service/internal/models"
	"account-service/internal/softdelete"
)

// EventEmitter receives the domain events produced by successful mutations.
type EventEmitter interface {
	Emit(ctx context.Context, requestID string, event models.Event)
}

func accountURL(accountID int) string {
	return "/accounts/" + strconv.Itoa(accountID)
}

func messageURL(messageID int) string {
	return "/messages/" + strconv.Itoa(messageID)
}

// parseID reads an id path parameter. Ids are SERIAL columns, so a number
// outside int32 cannot name a row and is answered with notFoundMsg.
func parseID(c *gin.Context, param, invalidMsg, notFoundMsg string) (int, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
		return 0, false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidMsg})
		return 0, false
	}
	return int(id), true
}

func requestIDFromContext(c *gin.Context) string {
	return c.GetString(middleware.RequestIDContextKey)
}

// respondError maps query layer errors onto HTTP responses. Unexpected errors
// are logged and answered with failMsg only.
func respondError(c *gin.Context, log logrus.FieldLogger, err error, notFoundMsg, failMsg string) {
	switch {
	case errors.Is(err, softdelete.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, softdelete.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithField("request_id", requestIDFromContext(c)).WithError(err).Error(failMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failMsg})
	}
}
