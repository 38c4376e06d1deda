package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/models"
)

// Journal operations.
const (
	opPut    = "put"
	opClick  = "click"
	opDelete = "delete"
)

// journalEntry is one JSON line of the storage file.
type journalEntry struct {
	Op    string               `json:"op"`
	Code  string               `json:"code,omitempty"`
	URL   *models.ShortenedURL `json:"url,omitempty"`
	Event *models.ClickEvent   `json:"event,omitempty"`
}

// FileStorage is a MemoryStorage whose mutations are appended to a JSON-lines
// journal. The journal is replayed on open.
type FileStorage struct {
	*MemoryStorage

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	logger *zap.Logger
}

// NewFileStorage opens (or creates) the journal at p and restores its state.
func NewFileStorage(p string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0770); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0660)
	if err != nil {
		return nil, err
	}

	mem, _ := CreateMemoryStorage()
	fs := &FileStorage{
		MemoryStorage: mem,
		file:          file,
		writer:        bufio.NewWriter(file),
		logger:        logger,
	}

	n, err := fs.replay()
	if err != nil {
		file.Close()
		return nil, err
	}

	logger.Info("file storage restored", zap.String("path", p), zap.Int("entries", n))
	return fs, nil
}

func (fs *FileStorage) replay() (int, error) {
	scanner := bufio.NewScanner(fs.file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e journalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return n, fmt.Errorf("failed to parse journal line %d: %w", n+1, err)
		}
		fs.apply(e)
		n++
	}

	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("error reading file: %w", err)
	}
	return n, nil
}

func (fs *FileStorage) apply(e journalEntry) {
	m := fs.MemoryStorage
	switch e.Op {
	case opPut:
		if e.URL != nil {
			m.byCode[e.URL.Code] = clone(e.URL)
		}
	case opClick:
		if e.URL != nil {
			m.byCode[e.URL.Code] = clone(e.URL)
		}
		if e.Event != nil && e.URL != nil {
			m.clicks[e.URL.Code] = append(m.clicks[e.URL.Code], *e.Event)
		}
	case opDelete:
		m.deleteLocked(e.Code)
	}
}

// append writes entries to the journal. Callers change memory only after it
// succeeds, so a failed write leaves both sides untouched.
func (fs *FileStorage) append(entries ...journalEntry) error {
	var buf []byte
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		buf = append(append(buf, b...), '\n')
	}
	if len(buf) == 0 {
		return nil
	}

	if _, err := fs.writer.Write(buf); err != nil {
		fs.writer.Reset(fs.file)
		return err
	}
	if err := fs.writer.Flush(); err != nil {
		fs.writer.Reset(fs.file)
		return err
	}
	return nil
}

func (fs *FileStorage) Insert(_ context.Context, u *models.ShortenedURL) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.MemoryStorage.mu.Lock()
	defer fs.MemoryStorage.mu.Unlock()

	if _, ok := fs.byCode[u.Code]; ok {
		return ErrConflict
	}
	if err := fs.append(journalEntry{Op: opPut, URL: clone(u)}); err != nil {
		return err
	}
	fs.byCode[u.Code] = clone(u)
	return nil
}

func (fs *FileStorage) Update(_ context.Context, u *models.ShortenedURL) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.MemoryStorage.mu.Lock()
	defer fs.MemoryStorage.mu.Unlock()

	stored, ok := fs.byCode[u.Code]
	if !ok {
		return ErrNotFound
	}
	next := merged(stored, u)
	if err := fs.append(journalEntry{Op: opPut, URL: next}); err != nil {
		return err
	}
	fs.byCode[u.Code] = next
	return nil
}

func (fs *FileStorage) RecordClick(_ context.Context, code string, ev models.ClickEvent, maxClicks int) (*models.ShortenedURL, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.MemoryStorage.mu.Lock()
	defer fs.MemoryStorage.mu.Unlock()

	next, ev, err := fs.prepareClickLocked(code, ev, maxClicks)
	if err != nil {
		return nil, err
	}
	if err := fs.append(journalEntry{Op: opClick, URL: next, Event: &ev}); err != nil {
		return nil, err
	}
	fs.commitClickLocked(next, ev)
	return clone(next), nil
}

func (fs *FileStorage) Delete(_ context.Context, code string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.MemoryStorage.mu.Lock()
	defer fs.MemoryStorage.mu.Unlock()

	if _, ok := fs.byCode[code]; !ok {
		return false, nil
	}
	if err := fs.append(journalEntry{Op: opDelete, Code: code}); err != nil {
		return false, err
	}
	return fs.deleteLocked(code), nil
}

func (fs *FileStorage) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.MemoryStorage.mu.Lock()
	defer fs.MemoryStorage.mu.Unlock()

	changed := fs.expiredLocked(now)
	entries := make([]journalEntry, 0, len(changed))
	for _, u := range changed {
		entries = append(entries, journalEntry{Op: opPut, URL: u})
	}
	if err := fs.append(entries...); err != nil {
		return 0, err
	}
	for _, u := range changed {
		fs.byCode[u.Code] = clone(u)
	}
	return int64(len(changed)), nil
}

// Close flushes the journal and closes the file.
func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.writer.Flush(); err != nil {
		fs.file.Close()
		return err
	}
	return fs.file.Close()
}
