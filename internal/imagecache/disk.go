package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"moviebox/internal/fileutil"
)

// diskCache stores one file per key. A file's mtime is its expiry deadline.
type diskCache struct {
	dir        string
	limit      int64
	expiration time.Duration
	extension  time.Duration
	now        func() time.Time
	mu         sync.Mutex // serializes prune/clear against writes
}

func newDiskCache(dir string, limit int64, expiration, extension time.Duration, now func() time.Time) *diskCache {
	return &diskCache{
		dir:        dir,
		limit:      limit,
		expiration: expiration,
		extension:  extension,
		now:        now,
	}
}

func (d *diskCache) enabled() bool {
	return d != nil && d.dir != ""
}

func (d *diskCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:]))
}

func (d *diskCache) get(key string) ([]byte, bool, error) {
	if !d.enabled() {
		return nil, false, nil
	}
	path := d.pathFor(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stat cached image: %w", err)
	}
	now := d.now()
	if !now.Before(info.ModTime()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cached image: %w", err)
	}
	if extended := now.Add(d.extension); d.extension > 0 && extended.After(info.ModTime()) {
		_ = os.Chtimes(path, now, extended)
	}
	return data, true, nil
}

func (d *diskCache) set(key string, data []byte) error {
	if !d.enabled() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.pathFor(key)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write cached image: %w", err)
	}
	now := d.now()
	if err := os.Chtimes(path, now, now.Add(d.expiration)); err != nil {
		return fmt.Errorf("set cached image expiry: %w", err)
	}
	return nil
}

type diskFile struct {
	path    string
	size    int64
	expires time.Time
}

// prune removes expired files, then the files closest to expiry until the
// directory fits the size limit.
func (d *diskCache) prune() (PruneResult, error) {
	var result PruneResult
	if !d.enabled() {
		return result, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return result, fmt.Errorf("read image cache dir: %w", err)
	}

	now := d.now()
	var (
		live  []diskFile
		total int64
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		file := diskFile{path: filepath.Join(d.dir, entry.Name()), size: info.Size(), expires: info.ModTime()}
		if !now.Before(file.expires) {
			if err := os.Remove(file.path); err == nil {
				result.Removed++
				result.FreedBytes += file.size
			}
			continue
		}
		live = append(live, file)
		total += file.size
	}

	if d.limit <= 0 || total <= d.limit {
		return result, nil
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].expires.Before(live[j].expires)
	})
	for _, file := range live {
		if total <= d.limit {
			break
		}
		if err := os.Remove(file.path); err != nil {
			continue
		}
		total -= file.size
		result.Removed++
		result.FreedBytes += file.size
	}
	return result, nil
}

func (d *diskCache) clear() error {
	if !d.enabled() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return fileutil.RemoveContents(d.dir)
}

func (d *diskCache) usage() (int, int64, error) {
	if !d.enabled() {
		return 0, 0, nil
	}
	return fileutil.DirUsage(d.dir)
}
