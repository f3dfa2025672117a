package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingExtractor 阻塞到上下文取消或收到放行信号
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingExtractor) Extract(ctx context.Context, _ string) (RawResult, error) {
	close(b.started)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return RawResult(`{"name":"late"}`), nil
	}
}

type staticExtractor string

func (s staticExtractor) Extract(context.Context, string) (RawResult, error) {
	return RawResult(s), nil
}

// run 与上传处理器相同的调用顺序：Begin、Extract、Finish
func run(s *Sessions, session string, ex Extractor, path string) (RawResult, error) {
	ctx, ticket := s.Begin(context.Background(), session)
	defer s.Finish(ticket)
	return s.Extract(ctx, ticket, ex, path)
}

func TestSessions_NewerRunSupersedesOlder(t *testing.T) {
	s := NewSessions()
	first := &blockingExtractor{started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := run(s, "sess-1", first, "a.pdf")
		done <- err
	}()
	<-first.started

	raw, err := run(s, "sess-1", staticExtractor(`{"name":"new"}`), "b.pdf")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"new"}`, string(raw))

	err = <-done
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, 0, s.Active())
}

func TestSessions_CommitRejectsSupersededTicket(t *testing.T) {
	s := NewSessions()
	ctx, older := s.Begin(context.Background(), "sess-1")
	raw, err := s.Extract(ctx, older, staticExtractor(`{"name":"old"}`), "a.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	// 解析已完成，但写回之前来了新的上传
	_, newer := s.Begin(context.Background(), "sess-1")

	var writes []string
	err = s.Commit(older, func() error {
		writes = append(writes, "old")
		return nil
	})
	assert.ErrorIs(t, err, ErrSuperseded)

	require.NoError(t, s.Commit(newer, func() error {
		writes = append(writes, "new")
		return nil
	}))
	assert.Equal(t, []string{"new"}, writes)

	s.Finish(older)
	s.Finish(newer)
	assert.Error(t, s.Commit(newer, func() error { return nil }), "Finish 之后凭证失效")
}

func TestSessions_CommitPropagatesWriteError(t *testing.T) {
	s := NewSessions()
	_, ticket := s.Begin(context.Background(), "sess-1")
	defer s.Finish(ticket)

	boom := errors.New("store down")
	assert.ErrorIs(t, s.Commit(ticket, func() error { return boom }), boom)
}

func TestSessions_IndependentSessions(t *testing.T) {
	s := NewSessions()
	_, t1 := s.Begin(context.Background(), "a")
	_, t2 := s.Begin(context.Background(), "b")

	assert.True(t, s.IsCurrent(t1))
	assert.True(t, s.IsCurrent(t2))
	assert.Equal(t, 2, s.Active())

	ctx3, t3 := s.Begin(context.Background(), "a")
	assert.False(t, s.IsCurrent(t1))
	assert.True(t, s.IsCurrent(t3))

	// 旧凭证 Finish 不影响新的登记
	s.Finish(t1)
	assert.Equal(t, 2, s.Active())
	assert.NoError(t, ctx3.Err())

	s.Finish(t3)
	s.Finish(t2)
	assert.Equal(t, 0, s.Active())
	assert.Error(t, ctx3.Err())
}
