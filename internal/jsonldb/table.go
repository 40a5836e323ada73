package jsonldb

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/maruel/ksid"
)

var (
	// ErrNotFound is returned when a row with the requested ID doesn't exist.
	ErrNotFound = errors.New("row not found")
	// ErrDuplicate is returned when appending a row whose ID already exists.
	ErrDuplicate = errors.New("duplicate row id")
)

// Row is implemented by every type stored in a Table.
type Row[T any] interface {
	Clone() T
	GetID() ksid.ID
	Validate() error
}

// Table handles storage and in-memory caching for a single table in JSONL format.
type Table[T Row[T]] struct {
	path   string
	header schemaHeader

	mu   sync.RWMutex
	rows []T
	byID map[ksid.ID]int
}

// NewTable creates a new Table and loads all data from the file.
func NewTable[T Row[T]](path string) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: data directories are world readable
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	cols, err := schemaFromType[T]()
	if err != nil {
		return nil, err
	}
	t := &Table[T]{
		path:   path,
		header: schemaHeader{Version: currentVersion, Columns: cols},
		byID:   make(map[ksid.ID]int),
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Path returns the file backing the table.
func (t *Table[T]) Path() string {
	return t.path
}

func (t *Table[T]) load() error {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open table file %s: %w", t.path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	first := true
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			var h schemaHeader
			if err := json.Unmarshal(line, &h); err != nil {
				return fmt.Errorf("failed to parse schema header in %s: %w", t.path, err)
			}
			if err := h.Validate(); err != nil {
				return fmt.Errorf("invalid schema header in %s: %w", t.path, err)
			}
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return fmt.Errorf("failed to unmarshal row in %s: %w", t.path, err)
		}
		if err := row.Validate(); err != nil {
			return fmt.Errorf("invalid row in %s: %w", t.path, err)
		}
		if _, ok := t.byID[row.GetID()]; ok {
			return fmt.Errorf("%w %s in %s", ErrDuplicate, row.GetID(), t.path)
		}
		t.byID[row.GetID()] = len(t.rows)
		t.rows = append(t.rows, row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read table file %s: %w", t.path, err)
	}
	return nil
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Get returns a clone of the row with the given ID, or false.
func (t *Table[T]) Get(id ksid.ID) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byID[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.rows[i].Clone(), true
}

// Iter returns an iterator over clones of all rows in insertion order.
//
// The read lock is held during iteration; don't write to the table from
// inside the loop.
func (t *Table[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		for _, row := range t.rows {
			if !yield(row.Clone()) {
				return
			}
		}
	}
}

// Append adds a new row to the table and persists it.
func (t *Table[T]) Append(row T) error {
	if err := row.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[row.GetID()]; ok {
		return fmt.Errorf("%w %s", ErrDuplicate, row.GetID())
	}
	if len(t.rows) == 0 {
		// A fresh file needs its header; rewrite handles that.
		next := append(t.rows, row.Clone())
		if err := t.rewrite(next); err != nil {
			return err
		}
		t.rows = next
		t.byID[row.GetID()] = 0
		return nil
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G302: table files are not secret
	if err != nil {
		return fmt.Errorf("failed to open table file for append: %w", err)
	}
	data = append(data, '\n')
	_, err = f.Write(data)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	t.byID[row.GetID()] = len(t.rows)
	t.rows = append(t.rows, row.Clone())
	return nil
}

// Update replaces an existing row and returns the previous version.
func (t *Table[T]) Update(row T) (T, error) {
	return t.Modify(row.GetID(), func(T) (T, error) {
		return row, nil
	})
}

// Modify atomically reads, transforms, and writes back a row.
//
// fn receives a clone of the current row; if it returns an error nothing is
// written and the error is returned as is. The previous version is returned
// on success.
func (t *Table[T]) Modify(id ksid.ID, fn func(T) (T, error)) (T, error) {
	var zero T
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byID[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prev := t.rows[i]
	next, err := fn(prev.Clone())
	if err != nil {
		return zero, err
	}
	if next.GetID() != id {
		return zero, fmt.Errorf("row id changed from %s to %s", id, next.GetID())
	}
	if err := next.Validate(); err != nil {
		return zero, err
	}
	rows := make([]T, len(t.rows))
	copy(rows, t.rows)
	rows[i] = next.Clone()
	if err := t.rewrite(rows); err != nil {
		return zero, err
	}
	t.rows = rows
	return prev.Clone(), nil
}

// Delete removes the row with the given ID and returns it.
func (t *Table[T]) Delete(id ksid.ID) (T, error) {
	var zero T
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byID[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prev := t.rows[i]
	rows := make([]T, 0, len(t.rows)-1)
	rows = append(rows, t.rows[:i]...)
	rows = append(rows, t.rows[i+1:]...)
	if err := t.rewrite(rows); err != nil {
		return zero, err
	}
	t.rows = rows
	t.byID = make(map[ksid.ID]int, len(rows))
	for j, r := range rows {
		t.byID[r.GetID()] = j
	}
	return prev, nil
}

// rewrite persists rows to a temporary file and renames it over the table.
// Must be called with the write lock held.
func (t *Table[T]) rewrite(rows []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	if err := enc.Encode(&t.header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write schema header: %w", err)
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to marshal row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close table file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // G302: table files are not secret
		return err
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		return fmt.Errorf("failed to replace table file: %w", err)
	}
	return nil
}
