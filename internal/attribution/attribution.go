// Package attribution detects which referral partner sent a guest.  A
// sender who writes "vengo de <partner>" is attributed to that partner
// for the rest of the process lifetime; everyone else is Organic.
package attribution

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-reservation-bot/internal/model"
)

// Marker is the phrase that introduces a partner key in a message.
const Marker = "vengo de"

// Table is the sticky sender -> partner key mapping.
type Table interface {
	Lookup(ctx context.Context, sender string) (string, bool, error)
	Remember(ctx context.Context, sender, key string) error
}

// Result is the outcome of resolving one message.
type Result struct {
	// Referral is the partner key for the sender, or model.ReferralOrganic.
	Referral string
	// Detected is set only when this very message carried a valid marker.
	Detected string
}

// Resolver extracts partner keys from messages and keeps them sticky.
type Resolver struct {
	dir   model.ReferralDirectory
	table Table
}

// NewResolver returns a resolver over dir backed by table.
func NewResolver(dir model.ReferralDirectory, table Table) *Resolver {
	return &Resolver{dir: dir, table: table}
}

// Directory returns the partner directory the resolver matches against.
func (r *Resolver) Directory() model.ReferralDirectory { return r.dir }

// Resolve inspects lower-cased text from sender.  A malformed or unknown
// marker is ignored and never reported as an error; only table failures
// are returned.
func (r *Resolver) Resolve(ctx context.Context, sender, text string) (Result, error) {
	if key, ok := r.extract(text); ok {
		if err := r.table.Remember(ctx, sender, key); err != nil {
			return Result{}, err
		}
		return Result{Referral: key, Detected: key}, nil
	}
	key, ok, err := r.table.Lookup(ctx, sender)
	if err != nil {
		return Result{}, err
	}
	if ok && r.dir.Has(key) {
		return Result{Referral: key}, nil
	}
	return Result{Referral: model.ReferralOrganic}, nil
}

// extract returns the first whitespace-delimited token after the first
// occurrence of Marker that is followed by whitespace, when that token
// names a known partner.  "vengo del ..." is not a marker.
func (r *Resolver) extract(text string) (string, bool) {
	for rest := text; ; {
		i := strings.Index(rest, Marker)
		if i < 0 {
			return "", false
		}
		rest = rest[i+len(Marker):]
		if rest == "" {
			return "", false
		}
		if !unicode.IsSpace(rune(rest[0])) {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 || !r.dir.Has(fields[0]) {
			return "", false
		}
		return fields[0], true
	}
}

// MemoryTable is an in-process Table.
type MemoryTable struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryTable returns an empty table.
func NewMemoryTable() *MemoryTable { return &MemoryTable{m: make(map[string]string)} }

func (t *MemoryTable) Lookup(_ context.Context, sender string) (string, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	k, ok := t.m[sender]
	return k, ok, nil
}

func (t *MemoryTable) Remember(_ context.Context, sender, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[sender] = key
	return nil
}

// RedisTable stores attributions in a single Redis hash so they survive
// restarts and are shared between replicas.
type RedisTable struct {
	rdb *redis.Client
	key string
}

// NewRedisTable returns a table stored in the hash named key.
func NewRedisTable(rdb *redis.Client, key string) *RedisTable {
	if key == "" {
		key = "attribution"
	}
	return &RedisTable{rdb: rdb, key: key}
}

func (t *RedisTable) Lookup(ctx context.Context, sender string) (string, bool, error) {
	v, err := t.rdb.HGet(ctx, t.key, sender).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (t *RedisTable) Remember(ctx context.Context, sender, key string) error {
	return t.rdb.HSet(ctx, t.key, sender, key).Err()
}
