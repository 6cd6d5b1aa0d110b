// Package docstore stores front-matter documents as <id>.md files in a
// single directory. It is thin host plumbing around pkg/document: atomic
// writes, reads, and summary listings, plus an optional sqlite index
// over the summaries.
package docstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/calvinalkan/markmeta/pkg/document"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

// Store is a directory of markdown documents.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created lazily on
// the first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// NewID returns a fresh document ID.
func NewID() string {
	return uuid.NewString()
}

// Path returns the full path of a document file.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".md")
}

// Exists reports whether a document with the given ID is on disk.
func (s *Store) Exists(id string) bool {
	_, statErr := os.Stat(s.Path(id))

	return statErr == nil
}

// Write encodes the record and body and writes them atomically.
// Returns the full path of the written file.
func (s *Store) Write(id string, rec *document.Record, body []byte) (string, error) {
	mkdirErr := os.MkdirAll(s.dir, dirPerms)
	if mkdirErr != nil {
		return "", fmt.Errorf("creating document directory: %w", mkdirErr)
	}

	data, err := document.Encode(rec, body)
	if err != nil {
		return "", err
	}

	path := s.Path(id)

	writeErr := atomic.WriteFile(path, bytes.NewReader(data))
	if writeErr != nil {
		return "", fmt.Errorf("writing document file: %w", writeErr)
	}

	// atomic.WriteFile does not set permissions for new files.
	chmodErr := os.Chmod(path, filePerms)
	if chmodErr != nil {
		return "", fmt.Errorf("setting document file permissions: %w", chmodErr)
	}

	return path, nil
}

// Read loads and decodes a document by ID.
func (s *Store) Read(id string) (*document.Record, []byte, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, nil, fmt.Errorf("reading document: %w", err)
	}

	return document.Decode(data)
}

// Summary holds the core fields extracted from one document file.
type Summary struct {
	ID       string
	Title    string
	Author   string
	Created  time.Time
	Revision int
	Path     string
}

// Result is the outcome of parsing a single document file during List.
type Result struct {
	Summary *Summary
	Path    string
	Err     error
}

const listWorkers = 16

// List parses every document in the store and returns summaries in
// filename order. A file that fails to parse produces a Result carrying
// the error instead of failing the whole listing; diagnostics go to
// diag. A missing store directory yields an empty listing.
func (s *Store) List(diag io.Writer) ([]Result, error) {
	if diag == nil {
		diag = io.Discard
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Result{}, nil
		}

		return nil, fmt.Errorf("reading document directory: %w", err)
	}

	type job struct {
		idx  int
		id   string
		path string
	}

	jobs := make([]job, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
			continue
		}

		jobs = append(jobs, job{
			idx:  len(jobs),
			id:   strings.TrimSuffix(name, ".md"),
			path: filepath.Join(s.dir, name),
		})
	}

	results := make([]Result, len(jobs))
	jobCh := make(chan job, min(len(jobs), listWorkers))

	var waitGroup sync.WaitGroup

	worker := func() {
		defer waitGroup.Done()

		for j := range jobCh {
			data, readErr := os.ReadFile(j.path)
			if readErr != nil {
				results[j.idx] = Result{Path: j.path, Err: readErr}

				continue
			}

			rec, _, decErr := document.Decode(data)
			if decErr != nil {
				results[j.idx] = Result{Path: j.path, Err: decErr}

				continue
			}

			results[j.idx] = Result{Path: j.path, Summary: summarize(j.id, j.path, rec)}
		}
	}

	workerCount := min(len(jobs), listWorkers)

	waitGroup.Add(workerCount)

	for i := 0; i < workerCount; i++ {
		go worker()
	}

	for _, j := range jobs {
		jobCh <- j
	}

	close(jobCh)

	waitGroup.Wait()

	for _, result := range results {
		if result.Err != nil {
			_, _ = fmt.Fprintf(diag, "skipping %s: %v\n", result.Path, result.Err)
		}
	}

	return results, nil
}

func summarize(id, path string, rec *document.Record) *Summary {
	return &Summary{
		ID:       id,
		Title:    rec.Title,
		Author:   rec.Author,
		Created:  rec.Created,
		Revision: rec.Revision,
		Path:     path,
	}
}
