package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic carries JSON media documents published by the backend.
const DefaultTopic = "soundtrack/media/latest"

// MQTTSource watches an MQTT topic whose messages are JSON MediaDocuments.
// Every message is reported as a Modified change.
type MQTTSource struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTSource subscribes to topic on an already connected client.
func NewMQTTSource(client mqtt.Client, topic string) *MQTTSource {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTSource{client: client, topic: topic, qos: 1}
}

// DialMQTT connects to broker with automatic reconnects.
func DialMQTT(broker string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("soundtrack-%d", time.Now().Unix()))
	opts.SetAutoReconnect(true)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("realtime: mqtt connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to %s: %w", broker, token.Error())
	}
	return client, nil
}

// Watch subscribes to the topic until ctx is done. Messages are handed to fn
// one at a time from this goroutine, never from the client's callback.
func (s *MQTTSource) Watch(ctx context.Context, fn func([]Change)) error {
	msgs := make(chan mqtt.Message, 16)

	token := s.client.Subscribe(s.topic, s.qos, func(_ mqtt.Client, m mqtt.Message) {
		select {
		case msgs <- m:
		case <-ctx.Done():
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", s.topic, token.Error())
	}
	defer s.client.Unsubscribe(s.topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-msgs:
			var doc MediaDocument
			if err := json.Unmarshal(m.Payload(), &doc); err != nil {
				log.Printf("realtime: skipping malformed message on %s: %v", m.Topic(), err)
				continue
			}
			fn([]Change{{Kind: Modified, Doc: doc}})
		}
	}
}
