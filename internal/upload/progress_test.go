package upload

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualTicker 测试用节拍源，由测试逐个发送节拍
type manualTicker struct {
	ch      chan time.Time
	stopped bool
	mu      sync.Mutex
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) factory(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() {
		m.mu.Lock()
		m.stopped = true
		m.mu.Unlock()
	}
}

// recorder 收集所有可视进度值
type recorder struct {
	mu     sync.Mutex
	values []int
	phases []Phase
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	r.values = append(r.values, s.Visual)
	r.phases = append(r.phases, s.Phase)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int{}, r.values...)
}

func tickUntilDone(t *testing.T, c *Coordinator, tk *manualTicker) int {
	t.Helper()
	ticks := 0
	for {
		select {
		case <-c.Done():
			return ticks
		case tk.ch <- time.Now():
			ticks++
		case <-time.After(2 * time.Second):
			t.Fatal("等待完成超时")
		}
	}
}

func TestCoordinator_SuccessPath(t *testing.T) {
	tk := newManualTicker()
	c := NewCoordinator(WithTicker(tk.factory))
	rec := &recorder{}
	c.OnProgress(rec.record)

	completions := 0
	var cmu sync.Mutex
	c.OnComplete(func() {
		cmu.Lock()
		completions++
		cmu.Unlock()
	})

	c.Start()
	c.Transferred(250, 1000)
	c.Transferred(950, 1000)
	assert.Equal(t, PhaseTransferring, c.Snapshot().Phase)
	assert.Equal(t, 90, c.Snapshot().Visual, "传输阶段进度被限制在 90")

	c.Transferred(1000, 1000)
	assert.Equal(t, PhaseServerProcessing, c.Snapshot().Phase)
	assert.Equal(t, 90, c.Snapshot().Visual)

	c.ServerResponded()
	assert.Equal(t, PhaseFinalizing, c.Snapshot().Phase)

	ticks := tickUntilDone(t, c, tk)
	assert.Equal(t, 2, ticks, "从 90 到 100 每次加 5")

	snap := c.Snapshot()
	assert.Equal(t, PhaseComplete, snap.Phase)
	assert.Equal(t, 100, snap.Visual)

	// 重复调用不会再次触发完成
	c.ServerResponded()
	assert.False(t, c.Fail(errors.New("late")))

	cmu.Lock()
	assert.Equal(t, 1, completions)
	cmu.Unlock()

	tk.mu.Lock()
	assert.True(t, tk.stopped)
	tk.mu.Unlock()

	values := rec.snapshot()
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1], "进度必须单调不减: %v", values)
	}
	assert.Equal(t, 100, values[len(values)-1])
}

func TestCoordinator_NeverDecreasesOnOutOfOrderEvents(t *testing.T) {
	c := NewCoordinator(WithTicker(newManualTicker().factory))
	c.Start()
	c.Transferred(60, 100)
	c.Transferred(30, 100)
	assert.Equal(t, 60, c.Snapshot().Visual)
	c.Transferred(0, 0)
	assert.Equal(t, 90, c.Snapshot().Visual)
	assert.Equal(t, PhaseServerProcessing, c.Snapshot().Phase)
}

func TestCoordinator_FailureResetsToIdle(t *testing.T) {
	c := NewCoordinator(WithTicker(newManualTicker().factory))
	var reported error
	c.OnError(func(err error) { reported = err })

	c.Start()
	c.Transferred(70, 100)
	require.True(t, c.Fail(errors.New("network error")))

	snap := c.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 0, snap.Visual)
	assert.EqualError(t, reported, "network error")

	select {
	case <-c.Done():
		t.Fatal("失败后不应发出完成信号")
	default:
	}

	// 失败后可以重新开始
	c.Start()
	assert.Equal(t, PhaseTransferring, c.Snapshot().Phase)
}

func TestCoordinator_FailWithoutReason(t *testing.T) {
	c := NewCoordinator()
	var reported error
	c.OnError(func(err error) { reported = err })
	c.Start()
	c.Fail(nil)
	assert.ErrorIs(t, reported, ErrTransfer)
}

func TestCoordinator_RealTicker(t *testing.T) {
	c := NewCoordinator(WithTickInterval(time.Millisecond))
	c.Start()
	c.Transferred(10, 10)
	c.ServerResponded()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("收尾阶段没有在预期时间内完成")
	}
	assert.Equal(t, 100, c.Snapshot().Visual)
}
