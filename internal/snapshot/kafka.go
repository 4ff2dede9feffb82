package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ordercart/internal/cart"
	"ordercart/internal/kafkaaddr"
)

// snapshotPartition holds every cart snapshot on the topic. Load reads
// only this partition.
const snapshotPartition = 0

// pinnedBalancer routes every record to snapshotPartition whatever the
// topic's partition count.
var pinnedBalancer = kafka.BalancerFunc(func(kafka.Message, ...int) int { return snapshotPartition })

// KafkaStore keeps carts on a compacted Kafka topic, one record per save
// keyed by cart id. Load reads snapshotPartition from its first offset up
// to the head it saw before scanning and keeps the last record for the key.
type KafkaStore struct {
	writer      kafkaMessageWriter
	newReader   func() kafkaMessageReader
	offsets     offsetsFunc
	key         []byte
	scanTimeout time.Duration
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// kafkaMessageReader abstracts kafka.Reader for testability.
type kafkaMessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// offsetsFunc reports the first offset and the head (next offset to be
// written) of snapshotPartition.
type offsetsFunc func(ctx context.Context) (first, head int64, err error)

// NewKafkaStore creates a Kafka-backed persister for one cart.
// bootstrap can be a comma-separated list of host:port.
func NewKafkaStore(bootstrap string, topic string, cartID string) *KafkaStore {
	addrs := kafkaaddr.Split(bootstrap)
	return &KafkaStore{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(addrs...),
			Topic:        topic,
			Balancer:     pinnedBalancer,
			RequiredAcks: kafka.RequireAll,
		},
		newReader: func() kafkaMessageReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:   addrs,
				Topic:     topic,
				Partition: snapshotPartition,
				MinBytes:  1,
				MaxBytes:  10e6,
			})
		},
		offsets:     leaderOffsets(addrs, topic),
		key:         []byte(cartID),
		scanTimeout: 10 * time.Second,
	}
}

// NewKafkaStoreWith is only for tests to inject fakes.
func NewKafkaStoreWith(w kafkaMessageWriter, newReader func() kafkaMessageReader, offsets offsetsFunc, cartID string, scanTimeout time.Duration) *KafkaStore {
	return &KafkaStore{writer: w, newReader: newReader, offsets: offsets, key: []byte(cartID), scanTimeout: scanTimeout}
}

// leaderOffsets asks the partition leader, trying each broker in turn.
func leaderOffsets(addrs []string, topic string) offsetsFunc {
	return func(ctx context.Context) (int64, int64, error) {
		err := errors.New("no brokers configured")
		for _, addr := range addrs {
			var conn *kafka.Conn
			conn, err = kafka.DialLeader(ctx, "tcp", addr, topic, snapshotPartition)
			if err != nil {
				continue
			}
			if dl, ok := ctx.Deadline(); ok {
				_ = conn.SetDeadline(dl)
			}
			first, head, rerr := conn.ReadOffsets()
			conn.Close()
			if rerr == nil {
				return first, head, nil
			}
			err = rerr
		}
		return 0, 0, err
	}
}

func (k *KafkaStore) Save(s cart.Snapshot) error {
	b, err := json.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(context.Background(), kafka.Message{Key: k.key, Value: b})
}

// Load fails rather than returning a partial view when the partition
// cannot be read up to its head before scanTimeout.
func (k *KafkaStore) Load() (*cart.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), k.scanTimeout)
	defer cancel()

	first, head, err := k.offsets(ctx)
	if err != nil {
		return nil, fmt.Errorf("kafka offsets: %w", err)
	}
	if head <= first {
		return nil, nil
	}

	r := k.newReader()
	defer r.Close()

	var last []byte
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("scan kafka: %w", ctx.Err())
			}
			return nil, fmt.Errorf("read kafka: %w", err)
		}
		if string(m.Key) == string(k.key) {
			// an empty value is a tombstone
			last = m.Value
		}
		if m.Offset >= head-1 {
			break
		}
	}
	if len(last) == 0 {
		return nil, nil
	}
	var s cart.Snapshot
	if err := json.Unmarshal(last, &s); err != nil {
		return nil, fmt.Errorf("unmarshal kafka snapshot: %w", err)
	}
	return &s, nil
}
