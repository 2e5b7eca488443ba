package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"oncult-backend/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects published by this service.
const (
	SubjectPurchaseCompleted = "oncult.purchases.completed"
	SubjectPaymentFailed     = "oncult.payments.failed"
)

// NATSClient publishes purchase lifecycle events over JetStream.
type NATSClient struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	streamName string
}

// PurchaseCompletedEvent is the payload of SubjectPurchaseCompleted.
type PurchaseCompletedEvent struct {
	PaymentID      string `json:"payment_id"`
	ItemID         string `json:"item_id"`
	ItemName       string `json:"item_name"`
	Buyer          string `json:"buyer"`
	Seller         string `json:"seller"`
	ChainID        uint64 `json:"chain_id"`
	TxHash         string `json:"tx_hash"`
	ReceiptTokenID string `json:"receipt_token_id,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// PaymentFailedEvent is the payload of SubjectPaymentFailed.
type PaymentFailedEvent struct {
	PaymentID      string `json:"payment_id"`
	ItemID         string `json:"item_id"`
	Buyer          string `json:"buyer"`
	State          string `json:"state"`
	Reason         string `json:"reason"`
	FundsCustodied bool   `json:"funds_custodied"`
	Timestamp      int64  `json:"timestamp"`
}

// NewNATSClient connects to NATS and makes sure the event stream
// exists.
func NewNATSClient(url, streamName string, timeout time.Duration) (*NATSClient, error) {
	conn, err := nats.Connect(url,
		nats.Timeout(timeout),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("init JetStream: %w", err)
	}

	client := &NATSClient{
		conn:       conn,
		js:         js,
		streamName: streamName,
	}
	if err := client.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	metrics.NATSConnectionStatus.Set(1)
	return client, nil
}

func (c *NATSClient) ensureStream() error {
	_, err := c.js.StreamInfo(c.streamName)
	if err == nil {
		return nil
	}
	_, err = c.js.AddStream(&nats.StreamConfig{
		Name:     c.streamName,
		Subjects: []string{"oncult.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", c.streamName, err)
	}
	return nil
}

// PublishPurchaseCompleted emits a purchase completion event.
func (c *NATSClient) PublishPurchaseCompleted(event PurchaseCompletedEvent) error {
	return c.publish(SubjectPurchaseCompleted, event)
}

// PublishPaymentFailed emits a terminal payment failure event.
// FundsCustodied is set when the failure happened after the Gateway
// deposit landed, the boundary that needs operator attention.
func (c *NATSClient) PublishPaymentFailed(event PaymentFailedEvent) error {
	return c.publish(SubjectPaymentFailed, event)
}

func (c *NATSClient) publish(subject string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	if _, err := c.js.Publish(subject, payload); err != nil {
		metrics.NATSMessagesFailed.WithLabelValues(subject).Inc()
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	metrics.NATSMessagesPublished.WithLabelValues(subject).Inc()
	return nil
}

// Conn exposes the underlying connection for readiness checks.
func (c *NATSClient) Conn() *nats.Conn {
	return c.conn
}

// Close drains the connection.
func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
