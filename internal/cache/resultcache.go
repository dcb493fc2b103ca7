package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache stores serialized analysis results keyed by page URL, so
// revisiting an already-analyzed article serves the stored result instead of
// re-running the pipeline.
type ResultCache interface {
	// Get returns the stored result for the URL, if any.
	Get(ctx context.Context, url string) ([]byte, bool, error)
	// Save stores the result for the URL, replacing any previous entry.
	Save(ctx context.Context, url string, data []byte) error
}

// FileResultCache keeps results on disk as <sha256(url)>.result.json. The
// suffix keeps result entries distinct from prompt-cache files sharing the
// same directory.
type FileResultCache struct {
	Dir string
	// StrictPerms restricts entries to 0600 and the directory to 0700.
	StrictPerms bool
}

func (c *FileResultCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	mode := os.FileMode(0o755)
	if c.StrictPerms {
		mode = 0o700
	}
	return os.MkdirAll(c.Dir, mode)
}

func (c *FileResultCache) pathFor(url string) string {
	return filepath.Join(c.Dir, URLKey(url)+".result.json")
}

func (c *FileResultCache) Get(_ context.Context, url string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(c.pathFor(url))
	if err != nil {
		return nil, false, nil
	}
	return b, true, nil
}

func (c *FileResultCache) Save(_ context.Context, url string, data []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	return os.WriteFile(c.pathFor(url), data, mode)
}

// RedisResultCache stores results in Redis under finsight:result:<urlkey>.
// A zero TTL keeps entries until explicitly removed, matching the file
// cache's behavior; a positive TTL lets Redis expire stale analyses on its
// own instead of relying on the age-based purge.
type RedisResultCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func (c *RedisResultCache) key(url string) string {
	return "finsight:result:" + URLKey(url)
}

func (c *RedisResultCache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	if c == nil || c.Client == nil {
		return nil, false, errors.New("redis client not configured")
	}
	b, err := c.Client.Get(ctx, c.key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisResultCache) Save(ctx context.Context, url string, data []byte) error {
	if c == nil || c.Client == nil {
		return errors.New("redis client not configured")
	}
	return c.Client.Set(ctx, c.key(url), data, c.TTL).Err()
}
