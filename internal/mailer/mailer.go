// Package mailer hands outbound mail to the mail service.
package mailer

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"
)

const EventPasswordReset = "password_reset_requested"

type PasswordResetEmail struct {
	To        string
	Name      string
	Code      string
	ExpiresAt time.Time
}

type Mailer interface {
	SendPasswordResetCode(ctx context.Context, m PasswordResetEmail) error
}

type mailEvent struct {
	Type      string    `json:"type"`
	To        string    `json:"to"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer publishes mail events consumed by the mail service.
type KafkaMailer struct {
	writer messageWriter
}

type KafkaConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string
}

func NewKafkaMailer(cfg KafkaConfig) *KafkaMailer {
	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
		transport.TLS = &tls.Config{}
	}

	return &KafkaMailer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Broker),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (m *KafkaMailer) SendPasswordResetCode(ctx context.Context, e PasswordResetEmail) error {
	value, err := json.Marshal(mailEvent{
		Type:      EventPasswordReset,
		To:        e.To,
		Name:      e.Name,
		Code:      e.Code,
		ExpiresAt: e.ExpiresAt,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.To),
		Value: value,
		Time:  time.Now(),
	})
}

func (m *KafkaMailer) Close() error {
	return m.writer.Close()
}

// LogMailer is used when no broker is configured. The code is never logged.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordResetCode(_ context.Context, e PasswordResetEmail) error {
	m.log.Info("password reset mail (no broker configured)",
		zap.String("to", e.To),
		zap.Time("expires_at", e.ExpiresAt),
	)
	return nil
}
