/**
 * @description
 * Redis-backed JSON response cache.
 * Caches book detail and per-user book list payloads; the monitor service
 * invalidates entries when a price changes so stale prices are never served.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 */

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Key prefixes
const (
	bookKeyPrefix      = "book:"
	booksListKeyPrefix = "books:list:"
)

// Cache wraps a redis client with JSON helpers and key conventions
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Cache with the given default TTL
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// BookKey returns the cache key for one book's detail payload
func BookKey(bookID uint64) string {
	return fmt.Sprintf("%s%d", bookKeyPrefix, bookID)
}

// UserBooksKey returns the cache key for a user's paginated book list
func UserBooksKey(userID uuid.UUID, page, pageSize int) string {
	return fmt.Sprintf("%s%s:%d:%d", booksListKeyPrefix, userID, page, pageSize)
}

// GetJSON loads and unmarshals a cached value. Returns false on miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals and stores a value under the default TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// InvalidateBook drops the book's detail entry and every cached book list
func (c *Cache) InvalidateBook(ctx context.Context, bookID uint64) error {
	if err := c.rdb.Del(ctx, BookKey(bookID)).Err(); err != nil {
		return err
	}
	return c.deletePattern(ctx, booksListKeyPrefix+"*")
}

// InvalidateUserBooks drops a user's cached book lists
func (c *Cache) InvalidateUserBooks(ctx context.Context, userID uuid.UUID) error {
	return c.deletePattern(ctx, fmt.Sprintf("%s%s:*", booksListKeyPrefix, userID))
}

func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
