package triage

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trerrors "github.com/hrygo/mailsense/internal/errors"
)

func TestComposeBuildsPrompt(t *testing.T) {
	llm := &fakeLLM{reply: "Sounds good, see you Tuesday."}
	c := NewComposer(llm)

	snippets := []string{
		"Alice prefers afternoon meetings.",
		"Last project with Alice shipped in May.",
	}
	reply, err := c.Compose(context.Background(), meetingEmail(), snippets, Decision{Kind: DecisionAccept}.Instruction())
	require.NoError(t, err)
	assert.Equal(t, "Sounds good, see you Tuesday.", reply)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "alice@example.com")
	assert.Contains(t, prompt, "Coffee next week?")
	assert.Contains(t, prompt, "Alice prefers afternoon meetings."+snippetDelimiter+"Last project with Alice shipped in May.")
	assert.Contains(t, prompt, "Instruction: Confirm that the recipient is available")
}

func TestComposeWithoutMemoryOrInstruction(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	c := NewComposer(llm)

	_, err := c.Compose(context.Background(), meetingEmail(), nil, "")
	require.NoError(t, err)

	prompt := llm.lastPrompt()
	assert.NotContains(t, prompt, "Background notes")
	assert.NotContains(t, prompt, "Instruction:")
}

func TestComposeErrorPropagates(t *testing.T) {
	llm := &fakeLLM{err: errors.New("backend down")}
	c := NewComposer(llm)

	_, err := c.Compose(context.Background(), meetingEmail(), nil, "")
	require.Error(t, err)
	assert.True(t, trerrors.IsCode(err, trerrors.ErrCodeComposeFailed))
	assert.ErrorContains(t, err, "backend down")
}
