package events

import (
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	messages []*message.Message
}

func (p *capturingPublisher) Publish(_ string, messages ...*message.Message) error {
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func TestPublisherManagerDistributesToSubscribedTopics(t *testing.T) {
	pm := NewPublisherManager()
	first := &capturingPublisher{}
	second := &capturingPublisher{}
	pm.SubscribePublisher(DefaultTopic, first)
	pm.SubscribePublisher(DefaultTopic, second)

	require.NoError(t, pm.Publish(New(EventTypeBranchCreated).WithSession("session_a").WithNode("node_b")))

	require.Len(t, first.messages, 1)
	require.Len(t, second.messages, 1)

	var event Event
	require.NoError(t, json.Unmarshal(first.messages[0].Payload, &event))
	assert.Equal(t, EventTypeBranchCreated, event.Type)
	assert.Equal(t, "session_a", string(event.SessionID))
	assert.Equal(t, "node_b", string(event.NodeID))
	assert.Equal(t, "branch-created", first.messages[0].Metadata.Get("event_type"))
}

func TestPublisherManagerStampsSequenceNumbers(t *testing.T) {
	pm := NewPublisherManager()
	p := &capturingPublisher{}
	pm.SubscribePublisher(DefaultTopic, p)

	require.NoError(t, pm.Publish(New(EventTypeTurnStarted)))
	require.NoError(t, pm.Publish(New(EventTypeTurnCompleted)))

	require.Len(t, p.messages, 2)
	assert.Equal(t, "0", p.messages[0].Metadata.Get("sequence_number"))
	assert.Equal(t, "1", p.messages[1].Metadata.Get("sequence_number"))
}

func TestPublishBlindOnNilManager(t *testing.T) {
	var pm *PublisherManager
	pm.PublishBlind(New(EventTypeSessionCreated))
}
