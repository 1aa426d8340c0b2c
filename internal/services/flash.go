package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	applog "campusstay_echo/internal/logger"
)

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashError   FlashLevel = "error"
)

// Flash is a one-shot message shown on the next page render
type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

// FlashStore keeps flash messages per user between a redirect and the next page
type FlashStore interface {
	Add(ctx context.Context, userID uint, f Flash) error
	Pop(ctx context.Context, userID uint) ([]Flash, error)
}

func flashKey(userID uint) string {
	return fmt.Sprintf("flash:%d", userID)
}

// RedisFlashStore stores flashes in Redis lists with a short TTL
type RedisFlashStore struct {
	cache *RedisCache
	ttl   time.Duration
}

func NewRedisFlashStore(cache *RedisCache, ttl time.Duration) *RedisFlashStore {
	return &RedisFlashStore{cache: cache, ttl: ttl}
}

func (s *RedisFlashStore) Add(ctx context.Context, userID uint, f Flash) error {
	return s.cache.Push(ctx, flashKey(userID), f, s.ttl)
}

func (s *RedisFlashStore) Pop(ctx context.Context, userID uint) ([]Flash, error) {
	items, err := s.cache.PopAll(ctx, flashKey(userID))
	if err != nil {
		if err == ErrCacheMiss {
			return nil, nil
		}
		return nil, err
	}
	flashes := make([]Flash, 0, len(items))
	for _, item := range items {
		var f Flash
		if err := json.Unmarshal(item, &f); err != nil {
			applog.Log.Warnf("Dropping malformed flash for user %d: %v", userID, err)
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}

// MemoryFlashStore is the single-process store used when REDIS_URL is not set
type MemoryFlashStore struct {
	mu      sync.Mutex
	flashes map[uint][]Flash
}

func NewMemoryFlashStore() *MemoryFlashStore {
	return &MemoryFlashStore{flashes: make(map[uint][]Flash)}
}

func (s *MemoryFlashStore) Add(_ context.Context, userID uint, f Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes[userID] = append(s.flashes[userID], f)
	return nil
}

func (s *MemoryFlashStore) Pop(_ context.Context, userID uint) ([]Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes[userID]
	delete(s.flashes, userID)
	return out, nil
}
