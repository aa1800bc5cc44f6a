package redisstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Store is the durable slot for the session blob: one namespaced key, the
// whole store as one value, full overwrite on every write. The server-side
// analog of chrome.storage.local.
type Store struct {
	rdb *redis.Client
	key string
}

func New(addr, password string, db int, key string) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		key: key,
	}
}

// Load implements chat.KV. A missing key is not an error.
func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Save implements chat.KV.
func (s *Store) Save(ctx context.Context, data []byte) error {
	return s.rdb.Set(ctx, s.key, data, 0).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
