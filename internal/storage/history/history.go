// Package history records every change to the JSONL tables as a git commit
// in the data directory, using go-git so no git binary is needed.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MaxLog caps the number of commits returned by Log.
const MaxLog = 1000

// Author identifies who made a change. Empty fields fall back to the
// repository defaults.
type Author struct {
	Name  string
	Email string
}

// Commit is one entry of the history.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Body    string    `json:"body,omitempty"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	When    time.Time `json:"when"`
	Files   []string  `json:"files,omitempty"`
}

// Repo is a git repository wrapping the data directory.
type Repo struct {
	dir          string
	defaultName  string
	defaultEmail string
	repo         *gogit.Repository
	mu           sync.Mutex
}

// Open opens the repository at dir, initializing it on first use.
func Open(dir, defaultName, defaultEmail string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: data directory
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = defaultName
		cfg.User.Email = defaultEmail
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}
	return &Repo{dir: dir, defaultName: defaultName, defaultEmail: defaultEmail, repo: repo}, nil
}

// Dir returns the working directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Commit stages files, relative to the working directory, and commits them
// with msg. Nothing happens when the files didn't change.
func (r *Repo) Commit(_ context.Context, author Author, msg string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	staged := 0
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(r.dir, f)); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if _, err := w.Add(f); err != nil {
			return fmt.Errorf("failed to stage %s: %w", f, err)
		}
		staged++
	}
	if staged == 0 {
		return nil
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	dirty := false
	for _, f := range files {
		if s := status.File(f); s.Staging != gogit.Unmodified && s.Staging != gogit.Untracked {
			dirty = true
			break
		}
	}
	if !dirty {
		return nil
	}

	name, email := author.Name, author.Email
	if name == "" {
		name = r.defaultName
	}
	if email == "" {
		email = r.defaultEmail
	}
	now := time.Now()
	_, err = w.Commit(msg, &gogit.CommitOptions{
		Author:    &object.Signature{Name: name, Email: email, When: now},
		Committer: &object.Signature{Name: r.defaultName, Email: r.defaultEmail, When: now},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Log returns up to n commits, newest first. path restricts the log to one
// file when not empty.
func (r *Repo) Log(_ context.Context, path string, n int) ([]*Commit, error) {
	if n <= 0 || n > MaxLog {
		n = MaxLog
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	opts := &gogit.LogOptions{}
	if path != "" {
		opts.FileName = &path
	}
	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var commits []*Commit
	for range n {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, body, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, &Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			Body:    strings.TrimSpace(body),
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			When:    c.Author.When,
			Files:   changedFiles(c),
		})
	}
	return commits, nil
}

// changedFiles lists the files touched by c relative to its first parent.
func changedFiles(c *object.Commit) []string {
	stats, err := c.Stats()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(stats))
	for _, s := range stats {
		out = append(out, s.Name)
	}
	return out
}
