package changelog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"ordercart/internal/cart"
	"ordercart/internal/kafkaaddr"
)

// Entry is the wire form of a cart event.
type Entry struct {
	CartID     string          `json:"cartId"`
	Seq        int64           `json:"seq"`
	Op         string          `json:"op"`
	LineID     string          `json:"lineId,omitempty"`
	MenuItemID string          `json:"menuItemId,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
	ItemCount  int             `json:"itemCount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
	TS         int64           `json:"ts"` // unix millis
}

func FromEvent(e cart.Event) Entry {
	return Entry{
		CartID:     e.CartID,
		Seq:        e.Seq,
		Op:         string(e.Op),
		LineID:     e.LineID,
		MenuItemID: e.MenuItemID,
		Quantity:   e.Quantity,
		ItemCount:  e.ItemCount,
		Subtotal:   e.Totals.Subtotal,
		Total:      e.Totals.Total,
		TS:         e.At.UnixMilli(),
	}
}

type Writer interface {
	Append(e Entry) error
}

// Notifier turns a Writer into a cart.Notifier.
func Notifier(w Writer) cart.Notifier {
	return cart.NotifierFunc(func(e cart.Event) error {
		if err := w.Append(FromEvent(e)); err != nil {
			return fmt.Errorf("changelog append: %w", err)
		}
		return nil
	})
}

// MultiWriter appends each entry to every writer in order and stops at the
// first failure, so later sinks never get ahead of earlier ones.
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

func (m *MultiWriter) Append(e Entry) error {
	for i, w := range m.writers {
		if err := w.Append(e); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// FileWriter appends entries as JSON lines to one open file.
type FileWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func NewFileWriter(dir string, filename string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return &FileWriter{f: f, enc: json.NewEncoder(f)}, nil
}

func (w *FileWriter) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(&e); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// KafkaWriter publishes entries keyed by cart id, so one cart's entries
// share a partition and stay ordered.
type KafkaWriter struct {
	writer  kafkaMessageWriter
	timeout time.Duration
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter creates a Kafka writer.
// bootstrap can be a comma-separated list of host:port.
func NewKafkaWriter(bootstrap string, topic string) *KafkaWriter {
	return NewKafkaWriterWith(&kafka.Writer{
		Addr:         kafka.TCP(kafkaaddr.Split(bootstrap)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	})
}

// NewKafkaWriterWith wraps any kafkaMessageWriter; tests pass fakes.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w, timeout: 10 * time.Second}
}

func (k *KafkaWriter) Append(e Entry) error {
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.CartID), Value: b}); err != nil {
		return fmt.Errorf("publish %s#%d: %w", e.CartID, e.Seq, err)
	}
	return nil
}
