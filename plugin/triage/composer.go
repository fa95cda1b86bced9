package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/mailsense/plugin/ai"
	"github.com/hrygo/mailsense/plugin/ai/timeout"
	trerrors "github.com/hrygo/mailsense/internal/errors"
)

// snippetDelimiter separates retrieved memory snippets in the prompt.
const snippetDelimiter = "\n---\n"

const composerSystemPrompt = `You draft email replies on behalf of a busy professional.
Rules:
- Be concise and professional: 3 to 6 sentences.
- Plain text only, no markdown.
- Sign off naturally without placeholders like [Your Name].
- Never reveal that stored notes, memory or retrieval were used.`

// Composer builds the reply prompt from an email, retrieved memory and an
// optional decision instruction, and obtains one completion.
type Composer struct {
	llm ai.LLMService
}

// NewComposer creates a Composer over the completion service.
func NewComposer(llm ai.LLMService) *Composer {
	return &Composer{llm: llm}
}

// Compose returns the model's reply text verbatim. This sits on the critical
// path: failures propagate because no reply can be produced without it.
func (c *Composer) Compose(ctx context.Context, email Email, snippets []string, decisionInstruction string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a reply to this email.\n\nFrom: %s\nSubject: %s\n\n%s\n", email.From, email.Subject, email.Body)

	if len(snippets) > 0 {
		b.WriteString("\nBackground notes about this sender (do not mention them directly):\n")
		b.WriteString(strings.Join(snippets, snippetDelimiter))
		b.WriteString("\n")
	}

	if decisionInstruction != "" {
		b.WriteString("\nInstruction: ")
		b.WriteString(decisionInstruction)
		b.WriteString("\n")
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout.CompletionTimeout)
	defer cancel()

	reply, err := c.llm.Chat(callCtx, []ai.Message{
		ai.SystemPrompt(composerSystemPrompt),
		ai.UserMessage(b.String()),
	})
	if err != nil {
		return "", trerrors.ComposeFailed("reply composition failed", err)
	}
	return reply, nil
}
