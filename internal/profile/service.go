// Package profile 用户资料的读取与部分字段更新。
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/storage/models"
)

var (
	// ErrUserIDRequired 请求中缺少 userId
	ErrUserIDRequired = errors.New("User ID is required")
	// ErrInvalidProfile 字段类型或取值不合法
	ErrInvalidProfile = errors.New("资料字段不合法")
)

// DefaultGender 新建资料时的性别默认值
const DefaultGender = "Male"

// Repository 资料持久化
type Repository interface {
	// UpsertProfile 不存在时插入整行，存在时只覆盖 columns 列
	UpsertProfile(ctx context.Context, p *models.UserProfile, columns []string) error
	// GetProfile 不存在时返回 nil, nil
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// field 请求键与列的对应关系
type field struct {
	key    string
	column string
	list   bool // JSON 数组列
	str    func(p *models.UserProfile) *string
	json   func(p *models.UserProfile) *datatypes.JSON
}

var fields = []field{
	{key: "fullName", column: "full_name", str: func(p *models.UserProfile) *string { return &p.FullName }},
	{key: "username", column: "username", str: func(p *models.UserProfile) *string { return &p.Username }},
	{key: "email", column: "email", str: func(p *models.UserProfile) *string { return &p.Email }},
	{key: "emails", column: "emails", list: true, json: func(p *models.UserProfile) *datatypes.JSON { return &p.Emails }},
	{key: "phones", column: "phones", list: true, json: func(p *models.UserProfile) *datatypes.JSON { return &p.Phones }},
	{key: "gender", column: "gender", str: func(p *models.UserProfile) *string { return &p.Gender }},
	{key: "location", column: "location", str: func(p *models.UserProfile) *string { return &p.Location }},
	{key: "profilePic", column: "profile_pic", str: func(p *models.UserProfile) *string { return &p.ProfilePic }},
	{key: "education", column: "education", list: true, json: func(p *models.UserProfile) *datatypes.JSON { return &p.Education }},
	{key: "totalExperience", column: "total_experience", str: func(p *models.UserProfile) *string { return &p.TotalExperience }},
	{key: "experiences", column: "experiences", list: true, json: func(p *models.UserProfile) *datatypes.JSON { return &p.Experiences }},
	{key: "domains", column: "domains", list: true, json: func(p *models.UserProfile) *datatypes.JSON { return &p.Domains }},
}

// saveEnvelope 只校验 userId 与简单字符串字段
type saveEnvelope struct {
	UserID   string `validate:"required,max=64"`
	Email    string `validate:"omitempty,max=255"`
	Gender   string `validate:"omitempty,max=32"`
	Username string `validate:"omitempty,max=255"`
}

// Service 资料服务
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService 创建资料服务
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Get 读取资料，不存在返回 nil
func (s *Service) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Save 解析请求体并做部分更新：只有请求中出现的键会被覆盖
func (s *Service) Save(ctx context.Context, body []byte) (*models.UserProfile, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return nil, fmt.Errorf("%w: 请求体必须是 JSON 对象", ErrInvalidProfile)
	}

	var userID string
	if raw, ok := doc["userId"]; ok {
		_ = json.Unmarshal(raw, &userID)
	}
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	p, columns, err := buildProfile(userID, doc)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(saveEnvelope{UserID: p.UserID, Email: p.Email, Gender: p.Gender, Username: p.Username}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	if err := s.repo.UpsertProfile(ctx, p, columns); err != nil {
		return nil, err
	}
	saved, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("user_id", userID).Strs("columns", columns).Msg("用户资料已保存")
	return saved, nil
}

// buildProfile 生成插入用的整行（缺省字段取默认值）与需要覆盖的列
func buildProfile(userID string, doc map[string]json.RawMessage) (*models.UserProfile, []string, error) {
	p := &models.UserProfile{UserID: userID, Gender: DefaultGender}
	for _, f := range fields {
		if f.list {
			*f.json(p) = datatypes.JSON("[]")
		}
	}

	columns := []string{}
	for _, f := range fields {
		raw, ok := doc[f.key]
		if !ok {
			continue
		}
		if f.list {
			trimmed := bytes.TrimSpace(raw)
			if bytes.Equal(trimmed, []byte("null")) {
				trimmed = []byte("[]")
			}
			if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
				return nil, nil, fmt.Errorf("%w: %s 必须是数组", ErrInvalidProfile, f.key)
			}
			*f.json(p) = datatypes.JSON(trimmed)
		} else {
			var v *string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, nil, fmt.Errorf("%w: %s 必须是字符串", ErrInvalidProfile, f.key)
			}
			if v == nil {
				*f.str(p) = ""
			} else {
				*f.str(p) = *v
			}
		}
		columns = append(columns, f.column)
	}
	return p, columns, nil
}

// MemoryRepository 进程内实现，未配置 MySQL 时使用
type MemoryRepository struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
	nextID   uint64
}

// NewMemoryRepository 创建内存仓库
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]*models.UserProfile)}
}

// UpsertProfile 实现 Repository
func (m *MemoryRepository) UpsertProfile(_ context.Context, p *models.UserProfile, columns []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	existing, ok := m.profiles[p.UserID]
	if !ok {
		m.nextID++
		row := *p
		row.ID = m.nextID
		row.CreatedAt = now
		row.UpdatedAt = now
		m.profiles[p.UserID] = &row
		return nil
	}

	updated := *existing
	for _, col := range columns {
		for _, f := range fields {
			if f.column != col {
				continue
			}
			if f.list {
				*f.json(&updated) = *f.json(p)
			} else {
				*f.str(&updated) = *f.str(p)
			}
		}
	}
	updated.UpdatedAt = now
	m.profiles[p.UserID] = &updated
	return nil
}

// GetProfile 实现 Repository
func (m *MemoryRepository) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
