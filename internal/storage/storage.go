package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mangesh9326/Job-Platform/internal/config"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

// Storage 存储管理器，聚合所有可选的外部依赖；未配置或连接失败的组件为 nil
type Storage struct {
	// 原始文件归档
	Objects ObjectStore

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 会话存储
	Redis *Redis
}

// NewStorage 按配置初始化各组件。任何组件失败只记录告警，服务仍以降级模式启动
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var initErrors []string
	fail := func(component string, err error) {
		logger.Warn().Err(err).Str("component", component).Msg("存储组件初始化失败")
		initErrors = append(initErrors, fmt.Sprintf("%s: %v", component, err))
	}

	switch cfg.ObjectStore.Type {
	case config.ObjectStoreMinIO:
		if m, err := NewMinIO(ctx, &cfg.MinIO); err != nil {
			fail("MinIO", err)
		} else {
			s.Objects = m
		}
	case config.ObjectStoreS3:
		if c, err := NewS3(ctx, &cfg.S3); err != nil {
			fail("S3", err)
		} else {
			s.Objects = c
		}
	}

	if cfg.RabbitMQ.URL != "" {
		if mq, err := NewRabbitMQ(&cfg.RabbitMQ); err != nil {
			fail("RabbitMQ", err)
		} else {
			s.RabbitMQ = mq
		}
	}

	if cfg.MySQL.Host != "" && cfg.MySQL.Database != "" {
		if db, err := NewMySQL(&cfg.MySQL); err != nil {
			fail("MySQL", err)
		} else {
			s.MySQL = db
		}
	}

	if cfg.Session.Backend == "redis" {
		if r, err := NewRedisAdapter(&cfg.Redis); err != nil {
			fail("Redis", err)
		} else {
			s.Redis = r
		}
	}

	if len(initErrors) > 0 {
		logger.Warn().Str("errors", strings.Join(initErrors, "; ")).Msg("部分存储组件不可用")
	}
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
