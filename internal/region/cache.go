package region

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/redis/go-redis/v9"
)

// FileCache is a Cache backed by a JSON file the external discovery
// probe tool writes to periodically: {"canonical-id": ["region", ...]}.
// It watches the file with fsnotify and hot-swaps its in-memory
// snapshot on every write, instead of re-reading on every Plan() call.
//
// The Config's own invariants (read once at startup) don't apply here —
// the discovery cache is explicitly described in spec.md §1 as
// something the core only *consumes*, refreshed out-of-band by a
// separate process.
type FileCache struct {
	mu   sync.RWMutex
	data map[string][]string
	path string
}

// NewFileCache loads path once, then starts a background watcher that
// reloads on every write. If the file doesn't exist yet, the cache
// starts empty and Plan() falls back to the static catalog — this is
// not a configuration error, since the discovery probe may not have
// run yet.
func NewFileCache(ctx context.Context, path string) (*FileCache, error) {
	fc := &FileCache{path: path, data: map[string][]string{}}
	fc.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		// The file may not exist yet; watch its directory instead so the
		// cache reloads once the file appears. Until then Regions() just
		// reports no entries.
		if dirErr := watcher.Add(filepath.Dir(path)); dirErr != nil {
			log.Printf("region discovery cache: not watching %s: %v", path, dirErr)
		}
	}

	go fc.watch(ctx, watcher)

	return fc, nil
}

func (fc *FileCache) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fc.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("region discovery cache watcher error: %v", err)
		}
	}
}

func (fc *FileCache) reload() {
	raw, err := os.ReadFile(fc.path)
	if err != nil {
		return // leave the previous snapshot in place
	}

	var parsed map[string][]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("region discovery cache: malformed %s: %v", fc.path, err)
		return
	}

	fc.mu.Lock()
	fc.data = parsed
	fc.mu.Unlock()
}

// Regions implements Cache.
func (fc *FileCache) Regions(canonical string) ([]string, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	regions, ok := fc.data[canonical]
	return regions, ok
}

// RedisCache is a Cache backed by a Redis hash (field = canonical model
// id, value = JSON-encoded region list), for deployments where the
// discovery probe writes its findings to a shared Redis instance
// instead of a local file. It polls on a short interval rather than
// subscribing, since the probe writes are infrequent and keyspace
// notifications require server-side configuration the proxy doesn't
// control.
type RedisCache struct {
	client *redis.Client
	key    string

	mu   sync.RWMutex
	data map[string][]string
}

// NewRedisCache connects to addr and starts polling key every interval.
func NewRedisCache(ctx context.Context, addr, key string, interval time.Duration) *RedisCache {
	rc := &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
		data:   map[string][]string{},
	}
	rc.poll(ctx)
	go rc.loop(ctx, interval)
	return rc
}

func (rc *RedisCache) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rc.poll(ctx)
		}
	}
}

func (rc *RedisCache) poll(ctx context.Context) {
	raw, err := rc.client.HGetAll(ctx, rc.key).Result()
	if err != nil {
		log.Printf("region discovery cache: redis poll failed: %v", err)
		return
	}

	parsed := make(map[string][]string, len(raw))
	for canonical, encoded := range raw {
		var regions []string
		if err := json.Unmarshal([]byte(encoded), &regions); err != nil {
			continue
		}
		parsed[canonical] = regions
	}

	rc.mu.Lock()
	rc.data = parsed
	rc.mu.Unlock()
}

// Regions implements Cache.
func (rc *RedisCache) Regions(canonical string) ([]string, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	regions, ok := rc.data[canonical]
	return regions, ok
}
