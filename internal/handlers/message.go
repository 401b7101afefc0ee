package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/models"
	"account-service/internal/softdelete"
)

// MessageHandler manages message endpoints.
type MessageHandler struct {
	queries softdelete.Querier
	events  EventEmitter
	log     logrus.FieldLogger
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(queries softdelete.Querier, events EventEmitter, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{
		queries: queries,
		events:  events,
		log:     log,
	}
}

type messageResponse struct {
	ID         int       `json:"id"`
	Text       string    `json:"text"`
	AccountID  int       `json:"account_id"`
	CreatedAt  time.Time `json:"created_at"`
	URL        string    `json:"url"`
	AccountURL *string   `json:"account_url"`
}

func newMessageResponse(view models.MessageView) messageResponse {
	resp := messageResponse{
		ID:        view.ID,
		Text:      view.Text,
		AccountID: view.AccountID,
		CreatedAt: view.CreatedAt,
		URL:       messageURL(view.ID),
	}
	if view.Owner != nil {
		url := accountURL(*view.Owner)
		resp.AccountURL = &url
	}
	return resp
}

func newMessageListResponse(views []models.MessageView) gin.H {
	resp := make([]messageResponse, 0, len(views))
	for _, m := range views {
		resp = append(resp, newMessageResponse(m))
	}
	return gin.H{"messages": resp}
}

// CreateMessage posts a message under an account that has not been deleted.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	accountID, ok := parseID(c, "account_id", "invalid account id", "account not found")
	if !ok {
		return
	}

	var req models.NewMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.queries.CreateMessage(c.Request.Context(), accountID, req)
	if err != nil {
		respondError(c, h.log, err, "account not found", "failed to store message")
		return
	}

	h.log.WithFields(logrus.Fields{
		"account_id": accountID,
		"message_id": msg.ID,
		"request_id": requestIDFromContext(c),
	}).Info("message created")
	h.events.Emit(c.Request.Context(), requestIDFromContext(c), models.Event{
		Type:      models.EventMessageCreated,
		Message:   &msg.Message,
		AccountID: accountID,
	})

	c.Header("Location", messageURL(msg.ID))
	c.JSON(http.StatusCreated, newMessageResponse(msg))
}

// ListAccountMessages returns the messages of an account that has not been deleted.
func (h *MessageHandler) ListAccountMessages(c *gin.Context) {
	accountID, ok := parseID(c, "account_id", "invalid account id", "account not found")
	if !ok {
		return
	}

	msgs, err := h.queries.ListAccountMessages(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, h.log, err, "account not found", "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, newMessageListResponse(msgs))
}

// ListMessages returns every message. Messages of deleted accounts are
// included with a null account_url.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	msgs, err := h.queries.ListMessages(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "message not found", "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, newMessageListResponse(msgs))
}

// GetMessage returns a single message.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	messageID, ok := parseID(c, "message_id", "invalid message id", "message not found")
	if !ok {
		return
	}

	msg, err := h.queries.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, h.log, err, "message not found", "failed to load message")
		return
	}
	c.JSON(http.StatusOK, newMessageResponse(msg))
}
