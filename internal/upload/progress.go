package upload

import (
	"errors"
	"sync"
	"time"
)

// Phase 上传进度阶段
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTransferring
	PhaseServerProcessing
	PhaseFinalizing
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTransferring:
		return "transferring"
	case PhaseServerProcessing:
		return "server_processing"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

const (
	// TransferCap 服务端响应前可视进度的上限
	TransferCap = 90
	// FinalizeStep 收尾阶段每次递增的百分点
	FinalizeStep = 5
	// DefaultTickInterval 收尾阶段的节拍
	DefaultTickInterval = 50 * time.Millisecond
)

// ErrTransfer 未提供具体原因时 Fail 使用的错误
var ErrTransfer = errors.New("上传失败")

// Snapshot 进度快照
type Snapshot struct {
	Phase       Phase
	BytePercent int
	Visual      int
	ServerDone  bool
}

// TickerFunc 创建节拍源，返回节拍通道和停止函数；测试可替换为手动节拍
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Option Coordinator 配置项
type Option func(*Coordinator)

// WithTicker 替换节拍源
func WithTicker(f TickerFunc) Option {
	return func(c *Coordinator) { c.newTicker = f }
}

// WithTickInterval 设置收尾节拍间隔
func WithTickInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.interval = d }
}

// Coordinator 把字节传输进度和服务端处理阶段合成为单调不减的可视进度。
// 收尾阶段由独立 goroutine 推进，因此内部加锁。
type Coordinator struct {
	mu          sync.Mutex
	phase       Phase
	bytePercent int
	visual      int
	serverDone  bool

	interval  time.Duration
	newTicker TickerFunc
	stopTick  func()

	onProgress []func(Snapshot)
	onComplete []func()
	onError    []func(error)

	done     chan struct{}
	doneOnce sync.Once
}

// NewCoordinator 创建处于 Idle 阶段的协调器
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		interval:  DefaultTickInterval,
		newTicker: realTicker,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnProgress 注册进度回调，在锁外同步调用
func (c *Coordinator) OnProgress(f func(Snapshot)) {
	c.mu.Lock()
	c.onProgress = append(c.onProgress, f)
	c.mu.Unlock()
}

// OnComplete 注册完成回调，只会触发一次
func (c *Coordinator) OnComplete(f func()) {
	c.mu.Lock()
	c.onComplete = append(c.onComplete, f)
	c.mu.Unlock()
}

// OnError 注册失败回调
func (c *Coordinator) OnError(f func(error)) {
	c.mu.Lock()
	c.onError = append(c.onError, f)
	c.mu.Unlock()
}

// Done 完成时关闭
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Snapshot 当前状态
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{Phase: c.phase, BytePercent: c.bytePercent, Visual: c.visual, ServerDone: c.serverDone}
}

// Start 进入 Transferring，可视进度从 0 开始
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseTransferring
	c.bytePercent = 0
	c.visual = 0
	snap := c.snapshotLocked()
	listeners := c.onProgress
	c.mu.Unlock()
	emit(listeners, snap)
}

// Transferred 上报已发送字节数。字节全部发送后进入 ServerProcessing。
func (c *Coordinator) Transferred(sent, total int64) {
	c.mu.Lock()
	if c.phase == PhaseIdle {
		c.phase = PhaseTransferring
	}
	if c.phase != PhaseTransferring && c.phase != PhaseServerProcessing {
		c.mu.Unlock()
		return
	}

	pct := 100
	if total > 0 {
		pct = int(sent * 100 / total)
	}
	if pct > 100 {
		pct = 100
	}
	if pct > c.bytePercent {
		c.bytePercent = pct
	}
	if v := min(c.bytePercent, TransferCap); v > c.visual {
		c.visual = v
	}
	if c.bytePercent >= 100 {
		c.phase = PhaseServerProcessing
	}
	snap := c.snapshotLocked()
	listeners := c.onProgress
	c.mu.Unlock()
	emit(listeners, snap)
}

// ServerResponded 收到成功响应后进入 Finalizing，按节拍推进到 100
func (c *Coordinator) ServerResponded() {
	c.mu.Lock()
	if c.phase == PhaseFinalizing || c.phase == PhaseComplete {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseFinalizing
	c.serverDone = true
	c.bytePercent = 100
	ticks, stop := c.newTicker(c.interval)
	c.stopTick = stop
	snap := c.snapshotLocked()
	listeners := c.onProgress
	c.mu.Unlock()
	emit(listeners, snap)

	go c.finalize(ticks)
}

func (c *Coordinator) finalize(ticks <-chan time.Time) {
	for range ticks {
		if c.tick() {
			return
		}
	}
}

// tick 推进一次，返回是否已完成
func (c *Coordinator) tick() bool {
	c.mu.Lock()
	if c.phase != PhaseFinalizing {
		c.mu.Unlock()
		return true
	}
	c.visual = min(c.visual+FinalizeStep, 100)
	completed := c.visual >= 100
	if completed {
		c.phase = PhaseComplete
		if c.stopTick != nil {
			c.stopTick()
		}
	}
	snap := c.snapshotLocked()
	progress := c.onProgress
	complete := c.onComplete
	c.mu.Unlock()

	emit(progress, snap)
	if completed {
		c.doneOnce.Do(func() {
			close(c.done)
			for _, f := range complete {
				f()
			}
		})
	}
	return completed
}

// Fail 在 Finalizing 之前出错时回到 Idle 并清零；之后的失败被忽略。返回是否生效。
func (c *Coordinator) Fail(err error) bool {
	if err == nil {
		err = ErrTransfer
	}
	c.mu.Lock()
	if c.phase == PhaseFinalizing || c.phase == PhaseComplete {
		c.mu.Unlock()
		return false
	}
	c.phase = PhaseIdle
	c.bytePercent = 0
	c.visual = 0
	c.serverDone = false
	snap := c.snapshotLocked()
	progress := c.onProgress
	errs := c.onError
	c.mu.Unlock()

	emit(progress, snap)
	for _, f := range errs {
		f(err)
	}
	return true
}

func emit(listeners []func(Snapshot), snap Snapshot) {
	for _, f := range listeners {
		f(snap)
	}
}
