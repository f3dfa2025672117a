package extraction

import (
	"context"
	"hash/fnv"
	"sync"
)

// Ticket 一次解析调用的代次凭证
type Ticket struct {
	Session    string
	Generation uint64
}

type slot struct {
	generation uint64
	cancel     context.CancelFunc
}

const commitStripes = 32

// Sessions 按会话记录最新一次解析的代次。
// 同一会话开始新的解析时，旧调用的上下文被取消，其结果在返回时被丢弃。
// 凭证在 Finish 之前一直有效，写回会话前再用 Commit 确认一次。
type Sessions struct {
	mu    sync.Mutex
	next  uint64
	slots map[string]*slot

	// 同一会话的 Commit 串行执行
	commits [commitStripes]sync.Mutex
}

// NewSessions 创建代次登记表
func NewSessions() *Sessions {
	return &Sessions{slots: make(map[string]*slot)}
}

// Begin 为会话开始一次新的解析，返回派生上下文和凭证
func (s *Sessions) Begin(parent context.Context, session string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	s.next++
	gen := s.next
	if prev, ok := s.slots[session]; ok && prev.cancel != nil {
		prev.cancel()
	}
	s.slots[session] = &slot{generation: gen, cancel: cancel}
	s.mu.Unlock()

	return ctx, Ticket{Session: session, Generation: gen}
}

// IsCurrent 凭证是否仍是该会话的最新一次解析
func (s *Sessions) IsCurrent(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.slots[t.Session]
	return ok && cur.generation == t.Generation
}

// Finish 结束一次解析并释放资源；只有最新代次会清理登记项
func (s *Sessions) Finish(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.slots[t.Session]
	if !ok || cur.generation != t.Generation {
		return
	}
	cur.cancel()
	delete(s.slots, t.Session)
}

// Active 正在进行中的会话数
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Extract 用凭证的上下文执行一次解析；返回时凭证已被取代则丢弃结果并返回 ErrSuperseded
func (s *Sessions) Extract(ctx context.Context, t Ticket, ex Extractor, filePath string) (RawResult, error) {
	raw, err := ex.Extract(ctx, filePath)
	if !s.IsCurrent(t) {
		return nil, &Error{Path: filePath, Op: "extract", BaseErr: ErrSuperseded}
	}
	return raw, err
}

// Commit 在凭证仍是最新代次时执行 write。
// 检查与写入之间持有该会话的提交锁，更新的调用只能在其后写入。
func (s *Sessions) Commit(t Ticket, write func() error) error {
	mu := &s.commits[stripe(t.Session)]
	mu.Lock()
	defer mu.Unlock()
	if !s.IsCurrent(t) {
		return &Error{Op: "commit", BaseErr: ErrSuperseded, Detail: "会话 " + t.Session}
	}
	return write()
}

func stripe(session string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(session))
	return h.Sum32() % commitStripes
}
