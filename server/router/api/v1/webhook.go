package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/mailsense/plugin/triage"
	trerrors "github.com/hrygo/mailsense/internal/errors"
	"github.com/hrygo/mailsense/server/internal/observability"
)

// EmailWebhookRequest is the inbound email event from the mail provider.
type EmailWebhookRequest struct {
	FromEmail      string `json:"from_email"`
	Subject        string `json:"subject"`
	BodyText       string `json:"body_text"`
	MessageID      string `json:"message_id"`
	ProposedTime   string `json:"proposed_time"`
	ConversationID string `json:"conversation_id"`
}

// ChatWebhookRequest is an operator message from the chat transport.
type ChatWebhookRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// HandleEmailWebhook opens a decision dialogue for a qualifying inbound email.
// POST /api/v1/webhooks/email
func (s *APIV1Service) HandleEmailWebhook(c echo.Context) error {
	var req EmailWebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed payload"})
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = s.Profile.OperatorConversationID
	}
	if conversationID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "conversation_id is required and no operator conversation is configured",
		})
	}

	reqCtx := observability.NewRequestContext(slog.Default(), "email_webhook", conversationID)
	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)

	email := triage.Email{
		From:         req.FromEmail,
		Subject:      req.Subject,
		Body:         req.BodyText,
		ProposedTime: req.ProposedTime,
		MessageID:    req.MessageID,
	}
	if err := s.Triage.HandleInboundEmail(ctx, conversationID, email); err != nil {
		reqCtx.Error("inbound email rejected", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	reqCtx.Info("decision dialogue opened",
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleChatWebhook advances a dialogue by one operator message.
// POST /api/v1/webhooks/chat
func (s *APIV1Service) HandleChatWebhook(c echo.Context) error {
	var req ChatWebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed payload"})
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "conversation_id is required"})
	}

	reqCtx := observability.NewRequestContext(slog.Default(), "chat_webhook", conversationID)
	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)

	if err := s.Triage.HandleChatMessage(ctx, conversationID, req.Text); err != nil {
		reqCtx.Error("chat message handling failed", err,
			slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
		// A failed composition leaves the dialogue intact; tell the transport
		// the upstream was at fault so it may redeliver.
		if trerrors.IsCode(err, trerrors.ErrCodeComposeFailed) {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "reply composition failed"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	reqCtx.Info("chat message handled",
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
