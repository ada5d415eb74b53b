package events

import (
	"context"
	"encoding/json"
	"testing"

	"DocPilot/internal/modules/rag/domain/repository"
	"DocPilot/internal/modules/rag/infrastructure/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	msgs []mq.Message
}

func (c *capturePublisher) Publish(ctx context.Context, msg mq.Message) (mq.PublishResult, error) {
	c.msgs = append(c.msgs, msg)
	return mq.PublishResult{}, nil
}

func (c *capturePublisher) Close() error { return nil }

func TestPublishDocumentEvent(t *testing.T) {
	cp := &capturePublisher{}
	p, err := NewKafkaDocumentEventPublisher(cp, "docpilot.document.events")
	require.NoError(t, err)

	err = p.PublishDocumentEvent(context.Background(), repository.DocumentEvent{
		Type:       repository.DocumentEventIngested,
		DocumentID: "doc_1_abcdef",
		Filename:   "a.txt",
		Chunks:     3,
		Stored:     3,
	})
	require.NoError(t, err)
	require.Len(t, cp.msgs, 1)

	msg := cp.msgs[0]
	assert.Equal(t, "docpilot.document.events", msg.Topic)
	assert.Equal(t, []byte("doc_1_abcdef"), msg.Key)
	assert.Equal(t, repository.DocumentEventIngested, msg.Headers["event_type"])

	var ev repository.DocumentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, 3, ev.Chunks)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestNewKafkaDocumentEventPublisher_Validates(t *testing.T) {
	_, err := NewKafkaDocumentEventPublisher(nil, "t")
	assert.Error(t, err)
	_, err = NewKafkaDocumentEventPublisher(&capturePublisher{}, " ")
	assert.Error(t, err)
}
