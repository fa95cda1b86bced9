package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/mailsense/plugin/ai"
	"github.com/hrygo/mailsense/plugin/ai/memory"
	"github.com/hrygo/mailsense/plugin/ai/timeout"
)

const summarySystemPrompt = `You condense emails into memory notes. Reply with 1-2 plain sentences capturing who wrote, what they want and any proposed time. No preamble.`

// SummaryWriter condenses a handled email into a short memory record, off the
// critical path. Failures are absorbed and counted; nothing propagates to the
// finalize sequence that scheduled the write.
type SummaryWriter struct {
	llm     ai.LLMService
	gateway *memory.Gateway
	metrics *Metrics

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewSummaryWriter creates a SummaryWriter with a bounded worker budget.
func NewSummaryWriter(llm ai.LLMService, gateway *memory.Gateway, metrics *Metrics) *SummaryWriter {
	return &SummaryWriter{
		llm:     llm,
		gateway: gateway,
		metrics: metrics,
		sem:     semaphore.NewWeighted(timeout.MaxConcurrentWriteBacks),
	}
}

// WriteBack schedules the summary write in the background. The caller's reply
// is already determined at this point; completion or failure of the write is
// never awaited by, or reported to, the caller.
func (w *SummaryWriter) WriteBack(email Email) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		// Detached from the request lifecycle on purpose: the HTTP response
		// may complete long before this finishes.
		ctx, cancel := context.WithTimeout(context.Background(), timeout.WriteBackTimeout)
		defer cancel()

		if err := w.sem.Acquire(ctx, 1); err != nil {
			w.absorb("write-back skipped: worker budget exhausted", email, err)
			return
		}
		defer w.sem.Release(1)

		summary, err := w.summarize(ctx, email)
		if err != nil {
			w.absorb("write-back summarization failed", email, err)
			return
		}

		if err := w.gateway.Commit(ctx, email.From, email.Subject, summary); err != nil {
			w.absorb("write-back commit failed", email, err)
			return
		}

		slog.Debug("memory write-back committed",
			slog.String("namespace", memory.DeriveNamespace(email.From)))
	}()
}

// Wait blocks until all scheduled write-backs have finished. Used on shutdown
// and in tests; production callers never wait per write.
func (w *SummaryWriter) Wait() {
	w.wg.Wait()
}

func (w *SummaryWriter) summarize(ctx context.Context, email Email) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout.CompletionTimeout)
	defer cancel()

	text, err := w.llm.Chat(callCtx, []ai.Message{
		ai.SystemPrompt(summarySystemPrompt),
		ai.UserMessage(fmt.Sprintf("From: %s\nSubject: %s\n\n%s", email.From, email.Subject, email.Body)),
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		return "", fmt.Errorf("empty summary")
	}
	return summary, nil
}

func (w *SummaryWriter) absorb(msg string, email Email, err error) {
	w.metrics.recordWriteBackFailure()
	slog.Warn(msg,
		slog.String("namespace", memory.DeriveNamespace(email.From)),
		slog.String("error", err.Error()))
}
