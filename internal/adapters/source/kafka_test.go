package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32                             { return nil }
func (s *fakeSession) MemberID() string                                       { return "member" }
func (s *fakeSession) GenerationID() int32                                    { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)                {}
func (s *fakeSession) Commit()                                                {}
func (s *fakeSession) ResetOffset(string, int32, int64, string)               {}
func (s *fakeSession) Context() context.Context                               { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "messages" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func newClaim(values ...string) *fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(values))
	for i, v := range values {
		ch <- &sarama.ConsumerMessage{
			Topic:     "messages",
			Offset:    int64(i),
			Value:     []byte(v),
			Timestamp: time.UnixMilli(1700000000000 + int64(i)),
		}
	}
	close(ch)
	return &fakeClaim{messages: ch}
}

func TestClaimHandler_MarksAfterSuccess(t *testing.T) {
	c := newCollector()
	h := &claimHandler{handler: c.handle, logger: zap.NewNop()}
	session := &fakeSession{ctx: context.Background()}

	claim := newClaim(
		`{"address":"+233201234567","body":"hello"}`,
		`{"body":"missing address"}`,
		`{"address":"x","body":"with time","timestamp":42}`,
	)

	require.NoError(t, h.ConsumeClaim(session, claim))

	assert.Equal(t, []int64{0, 1, 2}, session.marked)
	raws := c.received()
	require.Len(t, raws, 2)
	assert.Equal(t, int64(1700000000000), raws[0].Timestamp)
	assert.Equal(t, int64(42), raws[1].Timestamp)
}

func TestClaimHandler_HandlerFailureLeavesOffset(t *testing.T) {
	c := newCollector()
	c.err = errors.New("context canceled")
	h := &claimHandler{handler: c.handle, logger: zap.NewNop()}
	session := &fakeSession{ctx: context.Background()}

	err := h.ConsumeClaim(session, newClaim(`{"address":"a","body":"b"}`, `{"address":"c","body":"d"}`))
	assert.Error(t, err)
	assert.Empty(t, session.marked)
	assert.Len(t, c.received(), 1)
}

func TestClaimHandler_StopsWithSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &claimHandler{handler: newCollector().handle, logger: zap.NewNop()}
	session := &fakeSession{ctx: ctx}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage)}

	assert.NoError(t, h.ConsumeClaim(session, claim))
}

func TestNewKafka_Validation(t *testing.T) {
	_, err := NewKafka(nil, "messages", "group", "", true, zap.NewNop())
	assert.Error(t, err)

	_, err = NewKafka([]string{"localhost:9092"}, "", "group", "", true, zap.NewNop())
	assert.Error(t, err)

	_, err = NewKafka([]string{"localhost:9092"}, "messages", "group", "not-a-version", true, zap.NewNop())
	assert.Error(t, err)

	k, err := NewKafka([]string{"localhost:9092"}, "messages", "group", "2.8.0", false, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, sarama.OffsetNewest, k.config.Consumer.Offsets.Initial)
	assert.Equal(t, sarama.V2_8_0_0, k.config.Version)

	raws, err := k.Fetch(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, raws)
}

func TestKafka_SubscribeGroupFailure(t *testing.T) {
	k, err := NewKafka([]string{"localhost:9092"}, "messages", "group", "", true, zap.NewNop())
	require.NoError(t, err)
	k.newGroup = func([]string, string, *sarama.Config) (sarama.ConsumerGroup, error) {
		return nil, errors.New("brokers unreachable")
	}

	_, err = k.Subscribe(context.Background(), newCollector().handle)
	assert.ErrorContains(t, err, "brokers unreachable")
}
