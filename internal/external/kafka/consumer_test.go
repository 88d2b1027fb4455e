package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/anupakum/MCP-Payment-idea/pkg/correlation"
	"github.com/anupakum/MCP-Payment-idea/pkg/retry"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	msg kafka.Message
	err error
}

type fakeReader struct {
	mu        sync.Mutex
	results   []fetchResult
	committed []int64
	drained   chan struct{}
}

func newFakeReader(results ...fetchResult) *fakeReader {
	return &fakeReader{results: results, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.results) == 0 {
		r.mu.Unlock()
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	next := r.results[0]
	r.results = r.results[1:]
	r.mu.Unlock()
	return next.msg, next.err
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

var fastFetch = WithFetchRetry(retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

func TestConsumer_CommitsOnlyHandledMessages(t *testing.T) {
	// given
	reader := newFakeReader(
		fetchResult{msg: kafka.Message{Offset: 1, Key: []byte("CASE-1"), Headers: []kafka.Header{{Key: correlation.HeaderName, Value: []byte("corr-1")}}}},
		fetchResult{msg: kafka.Message{Offset: 2, Key: []byte("CASE-2")}},
		fetchResult{err: errors.New("broker not available")},
		fetchResult{msg: kafka.Message{Offset: 3, Key: []byte("CASE-3")}},
	)
	consumer := newConsumer(reader, "acquirer-outcomes", "disputes", fastFetch)

	var correlationIDs []string
	handler := func(ctx context.Context, key, _ []byte) error {
		correlationIDs = append(correlationIDs, correlation.FromContext(ctx))
		if string(key) == "CASE-2" {
			return errors.New("case locked")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// when
	go func() { done <- consumer.Start(ctx, handler) }()
	<-reader.drained
	cancel()

	// then
	require.NoError(t, <-done)
	assert.Equal(t, []int64{1, 3}, reader.committed)
	require.Len(t, correlationIDs, 3)
	assert.Equal(t, "corr-1", correlationIDs[0])
	assert.NotEmpty(t, correlationIDs[1])
}

func TestConsumer_GivesUpAfterRepeatedFetchFailures(t *testing.T) {
	down := errors.New("broker not available")
	reader := newFakeReader(fetchResult{err: down}, fetchResult{err: down}, fetchResult{err: down})
	consumer := newConsumer(reader, "acquirer-outcomes", "disputes", fastFetch)

	err := consumer.Start(context.Background(), func(context.Context, []byte, []byte) error { return nil })

	assert.ErrorIs(t, err, down)
}

func TestConsumer_StopsWhenReaderIsClosed(t *testing.T) {
	reader := newFakeReader(fetchResult{err: io.EOF})
	consumer := newConsumer(reader, "acquirer-outcomes", "disputes", fastFetch)

	err := consumer.Start(context.Background(), func(context.Context, []byte, []byte) error { return nil })

	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, reader.results)
}
