package simulator

import (
	"context"
	"strings"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/switches"
)

// Record is the persisted state of one switch.
type Record struct {
	Config   switches.Config   `json:"config"`
	Position switches.Position `json:"last_state"`
}

// Store persists switch records keyed by switch id.
//
// Get returns (Record{}, false, nil) for unknown ids.
type Store interface {
	All(ctx context.Context) (map[string]Record, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	Put(ctx context.Context, rec Record) error
	Close() error
}

// Open returns the store named by dsn. An empty dsn or "memory" gives a
// MemoryStore; "file:" prefixes and bare *.json paths give a FileStore;
// redis:// and rediss:// give a RedisStore; mongodb:// and mongodb+srv://
// give a MongoStore.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "file:"):
		return NewFileStore(strings.TrimPrefix(dsn, "file:"))
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return NewRedisStore(ctx, dsn, "")
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return NewMongoStore(ctx, dsn, "")
	case strings.HasSuffix(dsn, ".json"):
		return NewFileStore(dsn)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported store %q", dsn)
}
