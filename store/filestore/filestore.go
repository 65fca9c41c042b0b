/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package filestore persists the project corpus, the judge registry, and
// the operator meta prompts in a single JSON document on disk. Every
// operation is a full read-modify-write of the document under one mutex,
// which gives the single-writer semantics the ledger assumes without a
// database dependency.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"chainguard.dev/convojudge/judges/corpus"
	"github.com/chainguard-dev/clog"
)

// document is the on-disk shape.
type document struct {
	Projects    []*corpus.Project    `json:"projects"`
	Judges      []*corpus.JudgeAgent `json:"judges"`
	MetaPrompts corpus.MetaPrompts   `json:"metaPrompts"`
}

// Store implements corpus.ProjectStore and corpus.JudgeStore over one JSON
// file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store backed by the file at path. The file is created on
// first write.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return &doc, nil
}

// write persists the document via a temp file and rename so a crash never
// leaves a half-written database.
func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding database: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// LoadProject implements corpus.ProjectStore.
func (s *Store) LoadProject(ctx context.Context, id string) (*corpus.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, p := range doc.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", id, corpus.ErrNotFound)
}

// SaveProject implements corpus.ProjectStore, creating or replacing the
// project by ID.
func (s *Store) SaveProject(ctx context.Context, project *corpus.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, p := range doc.Projects {
		if p.ID == project.ID {
			doc.Projects[i] = project
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Projects = append(doc.Projects, project)
	}
	clog.FromContext(ctx).With("project", project.ID).Debug("Saving project")
	return s.write(doc)
}

// ListProjects implements corpus.ProjectStore.
func (s *Store) ListProjects(ctx context.Context) ([]*corpus.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Projects, nil
}

// DeleteProject implements corpus.ProjectStore.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i, p := range doc.Projects {
		if p.ID == id {
			doc.Projects = append(doc.Projects[:i], doc.Projects[i+1:]...)
			return s.write(doc)
		}
	}
	return fmt.Errorf("project %q: %w", id, corpus.ErrNotFound)
}

// Judge implements corpus.JudgeStore.
func (s *Store) Judge(ctx context.Context, id string) (*corpus.JudgeAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, j := range doc.Judges {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("judge %q: %w", id, corpus.ErrNotFound)
}

// SaveJudge implements corpus.JudgeStore. Invalid judges are rejected
// before touching the file.
func (s *Store) SaveJudge(ctx context.Context, judge *corpus.JudgeAgent) error {
	if err := judge.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, j := range doc.Judges {
		if j.ID == judge.ID {
			doc.Judges[i] = judge
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Judges = append(doc.Judges, judge)
	}
	return s.write(doc)
}

// ListJudges implements corpus.JudgeStore.
func (s *Store) ListJudges(ctx context.Context) ([]*corpus.JudgeAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Judges, nil
}

// DeleteJudge implements corpus.JudgeStore.
func (s *Store) DeleteJudge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i, j := range doc.Judges {
		if j.ID == id {
			doc.Judges = append(doc.Judges[:i], doc.Judges[i+1:]...)
			return s.write(doc)
		}
	}
	return fmt.Errorf("judge %q: %w", id, corpus.ErrNotFound)
}

// MetaPrompts returns the operator meta-prompt overrides. Unset fields
// mean the built-in defaults apply.
func (s *Store) MetaPrompts(ctx context.Context) (corpus.MetaPrompts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return corpus.MetaPrompts{}, err
	}
	return doc.MetaPrompts, nil
}

// SaveMetaPrompts replaces the operator meta-prompt overrides.
func (s *Store) SaveMetaPrompts(ctx context.Context, prompts corpus.MetaPrompts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.MetaPrompts = prompts
	return s.write(doc)
}
