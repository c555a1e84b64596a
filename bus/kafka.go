// Package bus publishes snapshots to message brokers.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"gitlab.com/lologarithm/climatesim/climate"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka is a view that writes every snapshot as json to a topic, keyed by run
// so one run stays on one partition.
type Kafka struct {
	w       messageWriter
	Timeout time.Duration
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		Timeout: 5 * time.Second,
	}
}

func (k *Kafka) Display(s climate.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), k.Timeout)
	defer cancel()
	err = k.w.WriteMessages(ctx, kafka.Message{Key: []byte(s.Run), Value: b, Time: s.Time})
	if err != nil {
		return fmt.Errorf("kafka write of tick %d: %w", s.Tick, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
