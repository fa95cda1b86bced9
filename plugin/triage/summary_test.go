package triage

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/hrygo/mailsense/plugin/ai/memory"
	"github.com/hrygo/mailsense/plugin/ai/vector"
)

func newWriterFixture(llm *fakeLLM, store *vector.MockStore) (*SummaryWriter, *Metrics) {
	metrics := NewMetrics()
	gateway := memory.NewGateway(&stubEmbedder{dims: 4}, store)
	return NewSummaryWriter(llm, gateway, metrics), metrics
}

func TestWriteBackCommitsSummary(t *testing.T) {
	store := vector.NewMockStore()
	writer, metrics := newWriterFixture(&fakeLLM{reply: "Alice asked to meet Tuesday 3pm."}, store)

	writer.WriteBack(meetingEmail())
	writer.Wait()

	assert.Equal(t, 1, store.Count("alice@example.com"))
	assert.Equal(t, int64(0), metrics.Snapshot().WriteBackFailures)
}

func TestWriteBackAbsorbsSummarizationFailure(t *testing.T) {
	store := vector.NewMockStore()
	writer, metrics := newWriterFixture(&fakeLLM{err: errors.New("backend down")}, store)

	writer.WriteBack(meetingEmail())
	writer.Wait()

	assert.Equal(t, 0, store.Count("alice@example.com"))
	assert.Equal(t, int64(1), metrics.Snapshot().WriteBackFailures)
}

func TestWriteBackAbsorbsEmptySummary(t *testing.T) {
	store := vector.NewMockStore()
	writer, metrics := newWriterFixture(&fakeLLM{reply: "   "}, store)

	writer.WriteBack(meetingEmail())
	writer.Wait()

	assert.Equal(t, 0, store.Count("alice@example.com"))
	assert.Equal(t, int64(1), metrics.Snapshot().WriteBackFailures)
}

func TestWriteBackAbsorbsCommitFailure(t *testing.T) {
	store := vector.NewMockStore()
	store.FailAll = true
	writer, metrics := newWriterFixture(&fakeLLM{reply: "note"}, store)

	writer.WriteBack(meetingEmail())
	writer.Wait()

	assert.Equal(t, int64(1), metrics.Snapshot().WriteBackFailures)
}

func TestWriteBackNamespacesBySender(t *testing.T) {
	store := vector.NewMockStore()
	writer, _ := newWriterFixture(&fakeLLM{reply: "note"}, store)

	a := meetingEmail()
	b := meetingEmail()
	b.From = " Bob@Example.com "
	c := meetingEmail()
	c.From = ""

	writer.WriteBack(a)
	writer.WriteBack(b)
	writer.WriteBack(c.Normalized())
	writer.Wait()

	assert.Equal(t, 1, store.Count("alice@example.com"))
	assert.Equal(t, 1, store.Count("bob@example.com"))
	assert.Equal(t, 1, store.Count("unknown"))
}
