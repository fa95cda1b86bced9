package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/hrygo/mailsense/plugin/ai/timeout"
	trerrors "github.com/hrygo/mailsense/internal/errors"
)

// Notifier delivers a chat message to the operator conversation. Best-effort:
// callers log failures but do not abort on them.
type Notifier interface {
	Send(ctx context.Context, conversationID, text string) error
}

// OutboundReply is the payload handed to the downstream send collaborator.
type OutboundReply struct {
	To                string `json:"to"`
	Subject           string `json:"subject"`
	Body              string `json:"body"`
	OriginalMessageID string `json:"original_message_id,omitempty"`
}

// OutboundDispatcher hands the final reply to the downstream "send the email"
// hook. Best-effort.
type OutboundDispatcher interface {
	Dispatch(ctx context.Context, reply OutboundReply) error
}

// WebhookNotifier posts chat messages to a configured endpoint
// (a Telegram-style sendMessage hook). Sends are rate limited because chat
// transports throttle bots aggressively.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewWebhookNotifier creates a notifier for the given endpoint.
func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout.NotifyTimeout},
		limiter:  rate.NewLimiter(rate.Limit(25), 5),
	}
}

// Send implements Notifier.
func (n *WebhookNotifier) Send(ctx context.Context, conversationID, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return trerrors.NotifyFailed("rate limit wait aborted", err)
	}

	payload := map[string]string{
		"conversation_id": conversationID,
		"text":            text,
	}
	if err := n.post(ctx, payload); err != nil {
		return trerrors.NotifyFailed("chat send failed", err)
	}
	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// WebhookDispatcher posts the final reply to the outbound send hook.
type WebhookDispatcher struct {
	endpoint string
	client   *http.Client
}

// NewWebhookDispatcher creates a dispatcher for the given endpoint.
func NewWebhookDispatcher(endpoint string) *WebhookDispatcher {
	return &WebhookDispatcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout.DispatchTimeout},
	}
}

// Dispatch implements OutboundDispatcher.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, reply OutboundReply) error {
	body, err := json.Marshal(reply)
	if err != nil {
		return trerrors.DispatchFailed("marshal outbound reply", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return trerrors.DispatchFailed("build outbound request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return trerrors.DispatchFailed("outbound webhook failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return trerrors.DispatchFailed(fmt.Sprintf("outbound webhook status %d", resp.StatusCode), nil)
	}
	return nil
}

// LogNotifier writes operator messages to the log. Used in demo mode when no
// chat transport is configured.
type LogNotifier struct{}

// Send implements Notifier.
func (LogNotifier) Send(ctx context.Context, conversationID, text string) error {
	slog.Info("operator message",
		slog.String("conversation_id", conversationID),
		slog.String("text", text))
	return nil
}

// LogDispatcher writes outbound replies to the log instead of delivering them.
// Used in demo mode when no outbound hook is configured.
type LogDispatcher struct{}

// Dispatch implements OutboundDispatcher.
func (LogDispatcher) Dispatch(ctx context.Context, reply OutboundReply) error {
	slog.Info("outbound reply",
		slog.String("to", reply.To),
		slog.String("subject", reply.Subject),
		slog.String("body", reply.Body))
	return nil
}

var (
	_ Notifier           = (*WebhookNotifier)(nil)
	_ OutboundDispatcher = (*WebhookDispatcher)(nil)
	_ Notifier           = LogNotifier{}
	_ OutboundDispatcher = LogDispatcher{}
)
