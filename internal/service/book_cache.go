package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"library-hub/internal/cache"
	"library-hub/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	bookListVersionKey = "books:list:version"
	// BookListTTL 書籍列表快取時間
	BookListTTL = 60 * time.Second
)

// bookListKey 組合版本號與排序後的查詢字串
func bookListKey(ctx context.Context, c cache.Cache, query url.Values) (string, error) {
	version, err := c.Get(ctx, bookListVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		version = "0"
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("books:list:v%s:%s", version, query.Encode()), nil
}

// CachedBookList 命中時回傳先前序列化的 JSON
func CachedBookList(ctx context.Context, c cache.Cache, query url.Values) ([]byte, bool) {
	key, err := bookListKey(ctx, c, query)
	if err != nil {
		logger.Warn().Err(err).Msg("book list cache unavailable")
		return nil, false
	}
	body, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Str("key", key).Msg("book list cache read failed")
		}
		return nil, false
	}
	return body, true
}

// StoreBookList 寫入快取，失敗只記錄
func StoreBookList(ctx context.Context, c cache.Cache, query url.Values, body []byte) {
	key, err := bookListKey(ctx, c, query)
	if err != nil {
		logger.Warn().Err(err).Msg("book list cache unavailable")
		return
	}
	if err := c.Set(ctx, key, body, BookListTTL).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("book list cache write failed")
	}
}

// InvalidateBookList 遞增版本號讓舊的快取鍵失效
func InvalidateBookList(ctx context.Context, c cache.Cache) {
	if err := c.Incr(ctx, bookListVersionKey).Err(); err != nil {
		logger.Warn().Err(err).Msg("book list cache invalidation failed")
	}
}
