// Package store implements the per-source canonical article stores.
//
// A store only grows: an id, once accepted, is never removed or replaced, even when the source
// later returns different content for it.
package store

import (
	"sync"

	"ArticleHunter/internal/domain"
)

// MergeResult describes one merge.
type MergeResult struct {
	Before int
	After  int
	Added  []domain.MatchedArticle
}

// Grown reports whether the merge increased the store size. This alone gates notification.
func (r MergeResult) Grown() bool {
	return r.After > r.Before
}

// Store is an ordered, id-unique collection of accepted articles.
type Store struct {
	mu       sync.RWMutex
	source   string
	articles []domain.MatchedArticle
	index    map[string]struct{}
}

func New(source string) *Store {
	return &Store{
		source:   source,
		articles: []domain.MatchedArticle{},
		index:    map[string]struct{}{},
	}
}

func (s *Store) Source() string {
	return s.source
}

// Merge appends every batch item whose id is not yet present, in batch order. Repeated ids
// inside the batch keep only the first occurrence.
func (s *Store) Merge(batch []domain.MatchedArticle) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := MergeResult{Before: len(s.articles)}
	for _, article := range batch {
		if _, seen := s.index[article.ID]; seen {
			continue
		}
		s.index[article.ID] = struct{}{}
		s.articles = append(s.articles, article)
		res.Added = append(res.Added, article)
	}
	res.After = len(s.articles)
	return res
}

// Articles returns a copy of the store in insertion order.
func (s *Store) Articles() []domain.MatchedArticle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MatchedArticle, len(s.articles))
	copy(out, s.articles)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

// Set holds one store per source. Its membership is fixed at construction.
type Set struct {
	order  []string
	stores map[string]*Store
}

// NewSet creates an empty store for each source name; repeated names share one store.
func NewSet(sources ...string) *Set {
	set := &Set{stores: make(map[string]*Store, len(sources))}
	for _, name := range sources {
		if _, ok := set.stores[name]; ok {
			continue
		}
		set.order = append(set.order, name)
		set.stores[name] = New(name)
	}
	return set
}

// Get returns the store for source, or nil if the source is unknown.
func (s *Set) Get(source string) *Store {
	return s.stores[source]
}

// Sources lists source names in construction order.
func (s *Set) Sources() []string {
	return append([]string(nil), s.order...)
}

// Snapshot copies every store. Each store is read under its own lock, so no store is torn.
func (s *Set) Snapshot() map[string][]domain.MatchedArticle {
	out := make(map[string][]domain.MatchedArticle, len(s.stores))
	for _, name := range s.order {
		out[name] = s.stores[name].Articles()
	}
	return out
}
