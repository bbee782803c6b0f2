// internal/storage/memory/memory.go
package memory

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/courtlab/drillboard/internal/config"
	"github.com/courtlab/drillboard/internal/storage"
)

const (
	extJSON = ".json"
	extGzip = ".json.gz"
)

type record struct {
	data      []byte
	updatedAt time.Time
}

// Backend keeps drills in memory. With an output dir every save is also
// written to <name>.json (or .json.gz) and Init reads existing files back.
type Backend struct {
	cfg    config.MemoryConfig
	drills map[string]record
	mu     sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		drills: make(map[string]record),
	}
}

// Init creates the output directory and loads the drills already in it.
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	entries, err := os.ReadDir(b.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range entries {
		name, ok := drillName(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}
		// a compressed and a plain copy: keep whichever was read last
		data, err := readFile(filepath.Join(b.cfg.OutputDir, entry.Name()))
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		b.drills[name] = record{data: data, updatedAt: info.ModTime().UTC()}
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Save stores the snapshot under name.
func (b *Backend) Save(_ context.Context, name string, snapshot []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	data := append([]byte(nil), snapshot...)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir != "" {
		if err := b.writeFile(name, data); err != nil {
			return err
		}
	}
	b.drills[name] = record{data: data, updatedAt: time.Now().UTC()}
	return nil
}

// Load returns the snapshot stored under name.
func (b *Backend) Load(_ context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.drills[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	return append([]byte(nil), r.data...), nil
}

// List returns every stored drill sorted by name.
func (b *Backend) List(_ context.Context) ([]storage.Info, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]storage.Info, 0, len(b.drills))
	for name, r := range b.drills {
		out = append(out, storage.Info{
			Name:      name,
			Title:     storage.TitleOf(r.data),
			Size:      len(r.data),
			UpdatedAt: r.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the drill stored under name.
func (b *Backend) Delete(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.drills[name]; !ok {
		return fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	if b.cfg.OutputDir != "" {
		for _, ext := range []string{extJSON, extGzip} {
			err := os.Remove(filepath.Join(b.cfg.OutputDir, name+ext))
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove drill file: %w", err)
			}
		}
	}
	delete(b.drills, name)
	return nil
}

// drillName strips the extension of a drill file name.
func drillName(file string) (string, bool) {
	for _, ext := range []string{extGzip, extJSON} {
		if strings.HasSuffix(file, ext) {
			name := strings.TrimSuffix(file, ext)
			return name, storage.ValidateName(name) == nil
		}
	}
	return "", false
}

func (b *Backend) writeFile(name string, data []byte) error {
	ext, stale := extJSON, extGzip
	if b.cfg.CompressOutput {
		ext, stale = extGzip, extJSON
	}

	path := filepath.Join(b.cfg.OutputDir, name+ext)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if b.cfg.CompressOutput {
		gzWriter := gzip.NewWriter(f)
		if _, err := gzWriter.Write(data); err != nil {
			return fmt.Errorf("failed to write drill: %w", err)
		}
		if err := gzWriter.Close(); err != nil {
			return fmt.Errorf("failed to write drill: %w", err)
		}
	} else if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write drill: %w", err)
	}

	// a copy in the other format would shadow this one on the next Init
	if err := os.Remove(filepath.Join(b.cfg.OutputDir, name+stale)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale drill file: %w", err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read drill: %w", err)
	}
	if !strings.HasSuffix(path, extGzip) {
		return raw, nil
	}

	gzReader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer gzReader.Close()
	data, err := io.ReadAll(gzReader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", filepath.Base(path), err)
	}
	return data, nil
}
