package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	PushStatusOK     = "ok"
	PushStatusFailed = "failed"

	// 报告缓存的 Redis key 前缀
	reportKeyPrefix = "digest:report:"
	maxErrorRunes   = 500

	defaultPushLogLimit = 20
	maxPushLogLimit     = 200
)

// PushLog 一次推送的记录，只保存各分类条数，不保存采集到的内容
type PushLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	RunID      string            `gorm:"size:40;index" json:"runId"`
	Channel    string            `gorm:"size:32;index" json:"channel"`
	Title      string            `gorm:"size:64" json:"title"`
	City       string            `gorm:"size:64" json:"city"`
	Status     string            `gorm:"size:16;index" json:"status"`
	Error      string            `gorm:"size:512" json:"error,omitempty"`
	ItemCounts datatypes.JSONMap `gorm:"type:jsonb" json:"itemCounts"`
	CreatedAt  time.Time         `gorm:"index" json:"createdAt"`
}

// Options 存储配置；DSN 和 RedisAddr 为空时对应组件不启用
type Options struct {
	PostgresDSN string
	RedisAddr   string
	CacheTTL    time.Duration
}

// Store 推送记录（PostgreSQL）+ 报告缓存（进程内 L1 + Redis L2），各部分均可缺省
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	local cache.Cache[string, []byte]
	ttl   time.Duration
	log   zerolog.Logger
}

// NewStore 连接可用的后端；Redis 不可达只告警，数据库失败返回错误
func NewStore(opts Options, log zerolog.Logger) (*Store, error) {
	s := newStore(opts.CacheTTL, log)

	if opts.PostgresDSN != "" {
		db, err := gorm.Open(postgres.Open(opts.PostgresDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.AutoMigrate(&PushLog{}); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.DB = db
	}

	if opts.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", opts.RedisAddr).Msg("redis ping failed")
		}
		s.Redis = rdb
	}

	return s, nil
}

// NewMemoryStore 只有进程内缓存，没有推送记录
func NewMemoryStore(ttl time.Duration, log zerolog.Logger) *Store {
	return newStore(ttl, log)
}

func newStore(ttl time.Duration, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		local: cache.NewCache[string, []byte]().WithTTL(ttl).WithMaxKeys(64),
		ttl:   ttl,
		log:   log,
	}
}

// HasHistory 是否启用了推送记录
func (s *Store) HasHistory() bool { return s.DB != nil }

// SavePushLog 保存推送记录；未配置数据库时直接忽略
func (s *Store) SavePushLog(ctx context.Context, l *PushLog) error {
	if s.DB == nil || l == nil {
		return nil
	}
	l.Title = toValidUTF8(l.Title)
	l.Error = truncateRunesDB(toValidUTF8(l.Error), maxErrorRunes)
	if err := s.DB.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("save push log: %w", err)
	}
	return nil
}

// ListPushLogs 最近的推送记录，按时间倒序
func (s *Store) ListPushLogs(ctx context.Context, limit int) ([]PushLog, error) {
	if s.DB == nil {
		return []PushLog{}, nil
	}
	var list []PushLog
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(pushLogLimit(limit)).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list push logs: %w", err)
	}
	return list, nil
}

// pushLogLimit 非正数取默认值，过大时截到上限
func pushLogLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPushLogLimit
	case limit > maxPushLogLimit:
		return maxPushLogLimit
	default:
		return limit
	}
}

// GetCachedReport 先查进程内缓存，再查 Redis；Redis 命中时回填 L1
func (s *Store) GetCachedReport(ctx context.Context, key string) ([]byte, bool) {
	if bs, ok := s.local.Get(key); ok {
		return bs, true
	}
	if s.Redis == nil {
		return nil, false
	}

	bs, err := s.Redis.Get(ctx, reportKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return nil, false
	}
	s.local.Set(key, bs, 0)
	return bs, true
}

// SaveCachedReport 写入两级缓存，Redis 写失败只告警
func (s *Store) SaveCachedReport(ctx context.Context, key string, bs []byte) {
	if len(bs) == 0 {
		return
	}
	s.local.Set(key, bs, 0)
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(ctx, reportKeyPrefix+key, bs, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Close 释放连接
func (s *Store) Close() error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
