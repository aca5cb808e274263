package mailer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaMailerPublishesEvent(t *testing.T) {
	w := &captureWriter{}
	m := &KafkaMailer{writer: w}
	exp := time.Date(2026, 5, 1, 12, 15, 0, 0, time.UTC)

	err := m.SendPasswordResetCode(context.Background(), PasswordResetEmail{
		To: "ana@uni.edu", Name: "Ana", Code: "042913", ExpiresAt: exp,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ana@uni.edu", string(w.msgs[0].Key))

	var ev mailEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, EventPasswordReset, ev.Type)
	assert.Equal(t, "042913", ev.Code)
	assert.True(t, exp.Equal(ev.ExpiresAt))
}

func TestLogMailerOmitsCode(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	require.NoError(t, m.SendPasswordResetCode(context.Background(), PasswordResetEmail{
		To: "ana@uni.edu", Code: "123456", ExpiresAt: time.Now(),
	}))
	require.Equal(t, 1, logs.Len())
	for _, f := range logs.All()[0].Context {
		assert.NotEqual(t, "123456", f.String)
	}
}
