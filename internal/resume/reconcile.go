package resume

import (
	"context"
	"fmt"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

// State 对账状态
type State int

const (
	// StateNoData 新解析结果和已保存记录都不存在
	StateNoData State = iota
	// StateFreshOnly 只有新解析结果，首次写入会话
	StateFreshOnly
	// StateSavedOnly 只有已保存记录，原样加载
	StateSavedOnly
	// StateReconciled 两者都存在，按指纹决定保留哪一个
	StateReconciled
)

// String 返回状态的接口表示
func (s State) String() string {
	switch s {
	case StateNoData:
		return "no_data"
	case StateFreshOnly:
		return "fresh_only"
	case StateSavedOnly:
		return "saved_only"
	case StateReconciled:
		return "reconciled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText 让状态在 JSON 中以字符串输出
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Decision 一次对账的结果
type Decision struct {
	State State
	// Result 用户应当看到的记录，StateNoData 时为 nil
	Result *Record
	// WriteThrough 为 true 时 Result 需要立即写入会话
	WriteThrough bool
	// Replaced 两者都存在且内容不同，新解析结果替换了已保存记录
	Replaced bool
}

// Decide 纯转换函数，不做任何 I/O
func Decide(fresh, saved *Record) Decision {
	switch {
	case fresh == nil && saved == nil:
		return Decision{State: StateNoData}
	case fresh == nil:
		return Decision{State: StateSavedOnly, Result: saved}
	case saved == nil:
		return Decision{State: StateFreshOnly, Result: fresh, WriteThrough: true}
	}

	if Fingerprint(fresh) == Fingerprint(saved) {
		// 同一份简历，用户在非指纹字段上的修改优先
		return Decision{State: StateReconciled, Result: saved}
	}
	return Decision{State: StateReconciled, Result: fresh, WriteThrough: true, Replaced: true}
}

// Outcome Reconcile 的完整结果
type Outcome struct {
	Decision
	// Persisted 本次调用是否写入了会话
	Persisted bool
	// PersistErr 写入失败的原因，结果仍然可用
	PersistErr error
}

// CommitFunc 包裹一次写回。返回错误时 write 不应被执行，错误原样记入 Outcome.PersistErr
type CommitFunc func(write func() error) error

// Reconciler 在会话槽位上执行对账
type Reconciler struct {
	store  SessionStore
	key    string
	commit CommitFunc
}

// NewReconciler 创建绑定到某个槽位的对账器
func NewReconciler(store SessionStore, key string) *Reconciler {
	return &Reconciler{store: store, key: key}
}

// WithCommit 设置写回前的守卫，例如确认本次上传仍是该会话的最新一次
func (r *Reconciler) WithCommit(f CommitFunc) *Reconciler {
	r.commit = f
	return r
}

// Load 读取已保存记录。读取失败、无法解码或结构不符都按不存在处理。
func (r *Reconciler) Load(ctx context.Context) *Record {
	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		logger.Warn().Err(err).Str("key", r.key).Msg("读取会话数据失败，按无记录处理")
		return nil
	}
	if !ok {
		return nil
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		logger.Warn().Err(err).Str("key", r.key).Msg("会话数据无法解码，按无记录处理")
		return nil
	}
	return rec
}

// Reconcile 用新解析结果（可为 nil）与槽位中的记录对账，并按需写回
func (r *Reconciler) Reconcile(ctx context.Context, fresh *Record) Outcome {
	decision := Decide(fresh, r.Load(ctx))
	out := Outcome{Decision: decision}
	if !decision.WriteThrough {
		return out
	}

	write := func() error { return persist(ctx, r.store, r.key, decision.Result) }
	var err error
	if r.commit != nil {
		err = r.commit(write)
	} else {
		err = write()
	}
	if err != nil {
		logger.Warn().Err(err).Str("key", r.key).Str("state", decision.State.String()).Msg("对账结果写入会话失败")
		out.PersistErr = err
		return out
	}
	out.Persisted = true
	return out
}

func persist(ctx context.Context, store SessionStore, key string, rec *Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return nil
}
