package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SessionStore 会话键值存储能力。
// Get 在键不存在时返回 ok=false；Reconciler 与 Editor 只依赖这个接口。
type SessionStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore 进程内实现，用于测试和未配置 Redis 的部署
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	writes int
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get 实现 SessionStore
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set 实现 SessionStore
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.writes++
	return nil
}

// Writes 成功写入次数
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// recordSchema 槽位中 JSON 的最低结构要求，不满足即视为不存在
const recordSchema = `{
  "type": "object",
  "properties": {
    "name":  {"type": ["string", "null"]},
    "email": {"type": ["string", "null"]},
    "phone": {"type": ["string", "null"]},
    "experience_years": {"type": ["string", "number", "null"]},
    "skills": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "relevance": {"type": ["number", "null"]}
        },
        "required": ["name"]
      }
    },
    "education": {"type": "array", "items": {"type": "string"}},
    "projects": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"},
          "stack": {"type": ["array", "null"], "items": {"type": "string"}},
          "_stackText": {"type": "string"}
        }
      }
    },
    "summary": {"type": ["string", "null"]}
  }
}`

var recordSchemaLoader = gojsonschema.NewStringLoader(recordSchema)

// EncodeRecord 序列化记录。摘要在持久化前统一规整。
func EncodeRecord(r *Record) (string, error) {
	if r == nil {
		return "", errors.New("简历记录为空")
	}
	snapshot := r.Clone()
	snapshot.Summary = CleanSummary(snapshot.Summary)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("序列化简历记录失败: %w", err)
	}
	return string(data), nil
}

// DecodeRecord 校验并反序列化槽位中的数据
func DecodeRecord(raw string) (*Record, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: 内容为空", ErrInvalidStoredRecord)
	}
	result, err := gojsonschema.Validate(recordSchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStoredRecord, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidStoredRecord, strings.Join(msgs, "; "))
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStoredRecord, err)
	}
	rec.ensureDefaults()
	return &rec, nil
}
