// Package memory is an in-process repository.ContentStore.
//
// Nothing survives a restart. It backs the "memory" store driver for local
// development and is handy in tests that want a real store without SQL.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/repository"
)

var _ repository.ContentStore = (*Store)(nil)

type entry struct {
	fields repository.Fields
	seq    uint64
}

// Store keeps documents in nested maps guarded by a single RWMutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]entry
	seq  uint64
}

func New() *Store {
	return &Store{docs: make(map[string]map[string]entry)}
}

func (s *Store) Get(_ context.Context, collection, id string) (*repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.docs[collection][id]
	if !ok {
		return nil, apperror.NotFound(collection, id)
	}
	return &repository.Document{ID: id, Fields: maps.Clone(e.fields)}, nil
}

// List returns documents in insertion order.
func (s *Store) List(_ context.Context, collection string) ([]repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type row struct {
		id string
		e  entry
	}
	rows := make([]row, 0, len(s.docs[collection]))
	for id, e := range s.docs[collection] {
		rows = append(rows, row{id: id, e: e})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].e.seq < rows[j].e.seq })

	docs := make([]repository.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, repository.Document{ID: r.id, Fields: maps.Clone(r.e.fields)})
	}
	return docs, nil
}

func (s *Store) Set(_ context.Context, collection, id string, fields repository.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collection(collection)
	seq := s.nextSeq()
	if existing, ok := col[id]; ok {
		seq = existing.seq
	}
	col[id] = entry{fields: cloneFields(fields), seq: seq}
	return nil
}

func (s *Store) Add(_ context.Context, collection string, fields repository.Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := xid.New().String()
	s.collection(collection)[id] = entry{fields: cloneFields(fields), seq: s.nextSeq()}
	return id, nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields repository.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[collection][id]
	if !ok {
		return apperror.NotFound(collection, id)
	}
	merged := cloneFields(e.fields)
	maps.Copy(merged, fields)
	s.docs[collection][id] = entry{fields: merged, seq: e.seq}
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs[collection], id)
	return nil
}

// collection must be called with mu held for writing.
func (s *Store) collection(name string) map[string]entry {
	col, ok := s.docs[name]
	if !ok {
		col = make(map[string]entry)
		s.docs[name] = col
	}
	return col
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func cloneFields(f repository.Fields) repository.Fields {
	if f == nil {
		return repository.Fields{}
	}
	return maps.Clone(f)
}
