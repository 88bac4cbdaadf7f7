package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// Kafka consumes RawMessage JSON records from a topic through a consumer group.
// Offsets are marked only once the handler has accepted a record.
type Kafka struct {
	brokers []string
	topic   string
	groupID string
	config  *sarama.Config
	logger  *zap.Logger

	// newGroup is swapped in tests
	newGroup func(brokers []string, groupID string, config *sarama.Config) (sarama.ConsumerGroup, error)
}

// NewKafka creates a Kafka source. version may be empty for the sarama default.
func NewKafka(brokers []string, topic, groupID, version string, oldest bool, logger *zap.Logger) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.AutoCommit.Enable = true
	config.Consumer.Offsets.AutoCommit.Interval = time.Second
	config.Consumer.Return.Errors = true
	if oldest {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		config.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if version != "" {
		v, err := sarama.ParseKafkaVersion(version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version %q: %w", version, err)
		}
		config.Version = v
	}

	if len(brokers) == 0 {
		return nil, errors.New("kafka source needs at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka source needs a topic")
	}

	return &Kafka{
		brokers:  brokers,
		topic:    topic,
		groupID:  groupID,
		config:   config,
		logger:   logger,
		newGroup: sarama.NewConsumerGroup,
	}, nil
}

// Name identifies the source in logs
func (k *Kafka) Name() string { return "kafka" }

// Fetch returns nothing; the consumer group owns the backlog and replays it on Subscribe
func (k *Kafka) Fetch(context.Context, int) ([]core.RawMessage, error) {
	return []core.RawMessage{}, nil
}

// Subscribe joins the consumer group and consumes until the disposer is called
func (k *Kafka) Subscribe(ctx context.Context, handler core.Handler) (func(), error) {
	group, err := k.newGroup(k.brokers, k.groupID, k.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	k.logger.Info("Kafka consumer starting",
		zap.Strings("brokers", k.brokers),
		zap.String("topic", k.topic),
		zap.String("group", k.groupID))

	groupHandler := &claimHandler{handler: handler, logger: k.logger}

	stop := runLoop(ctx, func(ctx context.Context) {
		go func() {
			for err := range group.Errors() {
				k.logger.Error("Kafka consumer error", zap.Error(err))
			}
		}()

		// Consume returns on every rebalance, so it runs in a loop
		for {
			if err := group.Consume(ctx, []string{k.topic}, groupHandler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || ctx.Err() != nil {
					return
				}
				k.logger.Error("Kafka consume failed", zap.Error(err))
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	})

	return func() {
		stop()
		if err := group.Close(); err != nil {
			k.logger.Warn("Failed to close consumer group", zap.Error(err))
		}
		k.logger.Info("Kafka consumer stopped")
	}, nil
}

// claimHandler implements sarama.ConsumerGroupHandler
type claimHandler struct {
	handler core.Handler
	logger  *zap.Logger
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim ingests each record of a partition claim
func (h *claimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			raw, err := DecodeRawMessage(message.Value)
			if err != nil {
				// a malformed record never becomes valid; skip it
				h.logger.Warn("Skipping invalid Kafka record",
					zap.String("topic", message.Topic),
					zap.Int32("partition", message.Partition),
					zap.Int64("offset", message.Offset),
					zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}
			if raw.Timestamp == 0 && !message.Timestamp.IsZero() {
				raw.Timestamp = message.Timestamp.UnixMilli()
			}

			if _, err := h.handler(session.Context(), raw); err != nil {
				// leave the offset unmarked so the record is redelivered
				h.logger.Warn("Kafka record not ingested",
					zap.Int32("partition", message.Partition),
					zap.Int64("offset", message.Offset),
					zap.Error(err))
				return err
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}
