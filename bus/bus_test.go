package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lologarithm/climatesim/climate"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

var snap = climate.Snapshot{
	Run:        "run1",
	Tick:       4,
	Time:       time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	ATS:        10,
	WaterValve: 50,
	Fan:        65,
	Mode:       climate.ModeNormal,
}

func TestKafkaDisplay(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{w: w, Timeout: time.Second}
	require.NoError(t, k.Display(snap))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "run1", string(w.msgs[0].Key))
	assert.Equal(t, snap.Time, w.msgs[0].Time)

	var got climate.Snapshot
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, snap, got)
}

func TestKafkaDisplayError(t *testing.T) {
	k := &Kafka{w: &fakeWriter{err: errors.New("no brokers")}, Timeout: time.Second}
	assert.ErrorContains(t, k.Display(snap), "no brokers")
}

type fakeToken struct {
	err  error
	done bool
}

func (f *fakeToken) Wait() bool                     { return f.done }
func (f *fakeToken) WaitTimeout(time.Duration) bool { return f.done }
func (f *fakeToken) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
func (f *fakeToken) Error() error { return f.err }

type fakePublisher struct {
	topic   string
	payload []byte
	token   *fakeToken
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topic = topic
	f.payload = payload.([]byte)
	return f.token
}

func TestMQTTDisplay(t *testing.T) {
	p := &fakePublisher{token: &fakeToken{done: true}}
	m := NewMQTT(p, "climate/ticks")
	require.NoError(t, m.Display(snap))

	assert.Equal(t, "climate/ticks", p.topic)
	assert.Contains(t, string(p.payload), `"Mode":"normal"`)
	assert.NoError(t, m.Close())
}

func TestMQTTDisplayFailures(t *testing.T) {
	m := NewMQTT(&fakePublisher{token: &fakeToken{done: false}}, "t")
	assert.ErrorContains(t, m.Display(snap), "timed out")

	m = NewMQTT(&fakePublisher{token: &fakeToken{done: true, err: errors.New("not connected")}}, "t")
	assert.ErrorContains(t, m.Display(snap), "not connected")
}
