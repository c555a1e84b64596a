package bus

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gitlab.com/lologarithm/climatesim/climate"
)

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT is a view that publishes every snapshot as json.
type MQTT struct {
	client  publisher
	topic   string
	Timeout time.Duration
}

// DialMQTT connects to broker (e.g. tcp://localhost:1883).
func DialMQTT(broker, clientID, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("connecting to %s: %v", broker, token.Error())
	}
	return NewMQTT(client, topic), nil
}

func NewMQTT(client publisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic, Timeout: 5 * time.Second}
}

func (m *MQTT) Display(s climate.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 0, false, payload)
	if !token.WaitTimeout(m.Timeout) {
		return fmt.Errorf("publishing tick %d: timed out", s.Tick)
	}
	if token.Error() != nil {
		return fmt.Errorf("publishing tick %d: %w", s.Tick, token.Error())
	}
	return nil
}

// Close disconnects when the client is a full mqtt client.
func (m *MQTT) Close() error {
	if c, ok := m.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}
