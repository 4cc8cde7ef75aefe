package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// DefaultTopic is where the store publishes its lifecycle events.
const DefaultTopic = "arbor.store"

// PublisherManager distributes events to a set of watermill Publishers.
// You "subscribe" a publisher to a topic; every published event is
// distributed to all publishers on the topics they were subscribed with.
//
// The manager stamps each outgoing message with a sequence number in the
// order Publish handles them.
type PublisherManager struct {
	publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mutex          sync.Mutex
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		publishers: make(map[string][]message.Publisher),
	}
}

func (pm *PublisherManager) SubscribePublisher(topic string, publisher message.Publisher) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.publishers[topic] = append(pm.publishers[topic], publisher)
}

// Publish serializes the event to JSON and distributes it.
func (pm *PublisherManager) Publish(event Event) error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	b, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), b)
	msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", pm.sequenceNumber))
	msg.Metadata.Set("event_type", string(event.Type))
	pm.sequenceNumber++

	for topic, publishers := range pm.publishers {
		for _, publisher := range publishers {
			if err := publisher.Publish(topic, msg); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
			}
		}
	}

	return nil
}

// PublishBlind publishes and logs instead of returning errors, for call
// sites where event delivery is best-effort.
func (pm *PublisherManager) PublishBlind(event Event) {
	if pm == nil {
		return
	}
	if err := pm.Publish(event); err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish event")
	}
}
