// Package store is the ranking store: the key-value primitives the challenge runs on, behind domain keys.
//
// There are no multi-key transactions. The NX variants are the only conditional writes; callers use them
// to claim "first writer wins" markers (one submission per day, one vote per target, closing a day once).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable wraps backend failures so callers can tell them from domain outcomes.
var ErrUnavailable = errors.New("ranking store unavailable")

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string) error
	// SetStringNX writes value only if key is absent and reports whether it did.
	SetStringNX(ctx context.Context, key, value string) (bool, error)
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	HashSet(ctx context.Context, key, field, value string) error
	// HashSetNX writes field only if it is absent and reports whether it did.
	HashSetNX(ctx context.Context, key, field, value string) (bool, error)
	HashGet(ctx context.Context, key, field string) (string, bool, error)
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	HashDelete(ctx context.Context, key, field string) error
	HashLen(ctx context.Context, key string) (int64, error)
}

// GetJSON loads a JSON document into out. ok is false when the key does not exist.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	raw, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as a JSON document.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetString(ctx, key, string(b))
}

// SetJSONNX stores v only when key is absent.
func SetJSONNX(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetStringNX(ctx, key, string(b))
}

// GetInt reads an integer counter; missing keys read as zero.
func GetInt(ctx context.Context, s Store, key string) (int64, error) {
	raw, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	var n int64
	if _, err := fmt.Sscan(raw, &n); err != nil {
		return 0, fmt.Errorf("decode counter %s: %w", key, err)
	}
	return n, nil
}
