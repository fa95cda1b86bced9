package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hrygo/mailsense/plugin/ai/memory"
	"github.com/hrygo/mailsense/plugin/ai/timeout"
)

const (
	startCommand = "/start"

	noActiveRequestNotice = "There is no email awaiting a decision right now."

	availabilityReprompt      = "Please answer yes or no: are you available?"
	timePrompt                = "What time should I propose? Reply with the time."
	rescheduleConfirmPrompt   = "Should I ask to reschedule to another time? (yes/no)"
	rescheduleConfirmReprompt = "Please answer yes or no: should I propose another time?"
	rescheduleTimePrompt      = "What time should I suggest instead? Reply with the time."

	// replyDisclosure is appended to every outbound reply so recipients know a
	// delegated assistant produced it.
	replyDisclosure = "This reply was sent on behalf of the recipient by their scheduling assistant."

	promptExcerptLen = 400
)

// Service is the decision orchestration engine. It owns the dialogue state
// machine and sequences retrieval, composition, notification, dispatch and
// memory write-back when a dialogue reaches a terminal decision.
type Service struct {
	store      *SessionStore
	composer   *Composer
	gateway    *memory.Gateway
	writer     *SummaryWriter
	notifier   Notifier
	dispatcher OutboundDispatcher
	classifier IntentClassifier
	metrics    *Metrics

	// Per-conversation locks so an inbound email and a chat answer for the
	// same dialogue never interleave mid-transition.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewService wires the orchestrator from its collaborators.
func NewService(
	store *SessionStore,
	composer *Composer,
	gateway *memory.Gateway,
	writer *SummaryWriter,
	notifier Notifier,
	dispatcher OutboundDispatcher,
	metrics *Metrics,
) *Service {
	return &Service{
		store:      store,
		composer:   composer,
		gateway:    gateway,
		writer:     writer,
		notifier:   notifier,
		dispatcher: dispatcher,
		classifier: KeywordClassifier{},
		metrics:    metrics,
		locks:      make(map[string]*sync.Mutex),
	}
}

// HandleInboundEmail opens (or replaces) the decision dialogue for the
// conversation and prompts the operator. The notification is best-effort;
// the session exists regardless.
func (s *Service) HandleInboundEmail(ctx context.Context, conversationID string, email Email) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("conversation id is required")
	}
	email = email.Normalized()

	unlock := s.lockConversation(conversationID)
	defer unlock()

	replaced := s.store.Put(conversationID, Session{
		Email: email,
		State: StateAwaitingAvailability,
	})
	if replaced {
		slog.Warn("pending decision dialogue replaced by newer email",
			slog.String("conversation_id", conversationID),
			slog.String("from", email.From))
	}

	s.notify(ctx, conversationID, inboundPrompt(email))
	return nil
}

// HandleChatMessage advances the conversation's dialogue by one operator
// message. Messages for conversations without a session get a fixed notice;
// the start command is answered without touching dialogue state at all.
func (s *Service) HandleChatMessage(ctx context.Context, conversationID, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == startCommand {
		s.notify(ctx, conversationID, fmt.Sprintf("Connected. Your conversation ID is %s.", conversationID))
		return nil
	}

	unlock := s.lockConversation(conversationID)
	defer unlock()

	session, ok := s.store.Get(conversationID)
	if !ok {
		s.notify(ctx, conversationID, noActiveRequestNotice)
		return nil
	}

	switch session.State {
	case StateAwaitingAvailability:
		return s.onAvailabilityAnswer(ctx, conversationID, session, trimmed)
	case StateAwaitingTime:
		return s.onTimeAnswer(ctx, conversationID, session, trimmed)
	case StateAwaitingRescheduleConfirm:
		return s.onRescheduleConfirmAnswer(ctx, conversationID, session, trimmed)
	case StateAwaitingRescheduleTime:
		return s.onRescheduleTimeAnswer(ctx, conversationID, session, trimmed)
	default:
		// Unreachable unless a new state is added without a handler. Drop the
		// broken session rather than wedging the conversation.
		slog.Error("dialogue in unknown state, discarding session",
			slog.String("conversation_id", conversationID),
			slog.String("state", string(session.State)))
		s.store.Remove(conversationID)
		s.notify(ctx, conversationID, noActiveRequestNotice)
		return nil
	}
}

func (s *Service) onAvailabilityAnswer(ctx context.Context, conversationID string, session Session, text string) error {
	switch s.classifier.Classify(text) {
	case IntentYes:
		if session.Email.HasProposedTime() {
			return s.finalize(ctx, conversationID, session, Decision{Kind: DecisionAccept})
		}
		s.transition(ctx, conversationID, session, StateAwaitingTime, timePrompt)
		return nil
	case IntentNo:
		s.transition(ctx, conversationID, session, StateAwaitingRescheduleConfirm, rescheduleConfirmPrompt)
		return nil
	default:
		s.notify(ctx, conversationID, availabilityReprompt)
		return nil
	}
}

func (s *Service) onTimeAnswer(ctx context.Context, conversationID string, session Session, text string) error {
	if text == "" {
		s.notify(ctx, conversationID, timePrompt)
		return nil
	}
	return s.finalize(ctx, conversationID, session, Decision{Kind: DecisionAcceptWithTime, Time: text})
}

func (s *Service) onRescheduleConfirmAnswer(ctx context.Context, conversationID string, session Session, text string) error {
	switch s.classifier.Classify(text) {
	case IntentYes:
		s.transition(ctx, conversationID, session, StateAwaitingRescheduleTime, rescheduleTimePrompt)
		return nil
	case IntentNo:
		return s.finalize(ctx, conversationID, session, Decision{Kind: DecisionDecline})
	default:
		s.notify(ctx, conversationID, rescheduleConfirmReprompt)
		return nil
	}
}

func (s *Service) onRescheduleTimeAnswer(ctx context.Context, conversationID string, session Session, text string) error {
	if text == "" {
		s.notify(ctx, conversationID, rescheduleTimePrompt)
		return nil
	}
	return s.finalize(ctx, conversationID, session, Decision{Kind: DecisionReschedule, Time: text})
}

// finalize runs the terminal sequence: compose the reply (with retrieval),
// notify the operator, dispatch the outbound email, schedule the memory
// write-back and drop the session, in that order. Composition failure aborts
// everything with the session intact so the operator's next answer retries;
// every later step is best-effort.
func (s *Service) finalize(ctx context.Context, conversationID string, session Session, decision Decision) error {
	email := session.Email
	snippets := s.gateway.Retrieve(ctx, email.Body, email.From)

	reply, err := s.composer.Compose(ctx, email, snippets, decision.Instruction())
	if err != nil {
		s.metrics.recordComposeFailure()
		s.notify(ctx, conversationID, "I could not draft the reply just now. Please repeat your answer to retry.")
		return err
	}
	reply = strings.TrimSpace(reply) + "\n\n" + replyDisclosure

	s.notify(ctx, conversationID, fmt.Sprintf("Replied to %s (%s):\n\n%s", email.From, decision.Kind, reply))

	dispatchCtx, cancel := context.WithTimeout(ctx, timeout.DispatchTimeout)
	err = s.dispatcher.Dispatch(dispatchCtx, OutboundReply{
		To:                email.From,
		Subject:           replySubject(email.Subject),
		Body:              reply,
		OriginalMessageID: email.MessageID,
	})
	cancel()
	if err != nil {
		s.metrics.recordDispatchFailure()
		slog.Warn("outbound reply dispatch failed",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()))
	}

	s.writer.WriteBack(email)
	s.store.Remove(conversationID)
	s.metrics.recordReplySent()

	slog.Info("decision dialogue finalized",
		slog.String("conversation_id", conversationID),
		slog.String("decision", string(decision.Kind)),
		slog.String("namespace", memory.DeriveNamespace(email.From)))
	return nil
}

func (s *Service) transition(ctx context.Context, conversationID string, session Session, next State, prompt string) {
	session.State = next
	s.store.Put(conversationID, session)
	s.notify(ctx, conversationID, prompt)
}

// notify sends an operator chat message, absorbing failures. A lost prompt is
// recoverable (the operator can always write again); a wedged dialogue is not.
func (s *Service) notify(ctx context.Context, conversationID, text string) {
	notifyCtx, cancel := context.WithTimeout(ctx, timeout.NotifyTimeout)
	defer cancel()

	if err := s.notifier.Send(notifyCtx, conversationID, text); err != nil {
		s.metrics.recordNotifyFailure()
		slog.Warn("operator notification failed",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) lockConversation(conversationID string) func() {
	s.lockMu.Lock()
	mu, ok := s.locks[conversationID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[conversationID] = mu
	}
	s.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func inboundPrompt(email Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New meeting request from %s\n", email.From)
	if email.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	}
	if email.HasProposedTime() {
		fmt.Fprintf(&b, "Proposed time: %s\n", email.ProposedTime)
	}
	if excerpt := email.Excerpt(promptExcerptLen); excerpt != "" {
		b.WriteString("\n")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}
	b.WriteString("\nAre you available? (yes/no)")
	return b.String()
}

func replySubject(subject string) string {
	if subject == "" {
		return "Re: your message"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
