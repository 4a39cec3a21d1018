// Package watchlist holds the ordered set of keywords that articles are matched against.
package watchlist

import (
	"sync"

	"ArticleHunter/internal/domain"
)

// Watchlist is safe for concurrent use. Order matters: it decides match precedence and is the
// index space for Edit and Delete.
type Watchlist struct {
	mu       sync.RWMutex
	keywords []domain.Keyword
}

// New seeds the list, skipping empty and repeated entries.
func New(seed []string) *Watchlist {
	w := &Watchlist{keywords: make([]domain.Keyword, 0, len(seed))}
	for _, raw := range seed {
		_, _ = w.Add(raw)
	}
	return w
}

// Add appends a keyword unless an equal one exists. A duplicate is not an error: it reports
// added=false.
func (w *Watchlist) Add(raw string) (bool, error) {
	kw := domain.NormalizeKeyword(raw)
	if kw == "" {
		return false, domain.ErrEmptyKeyword
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, existing := range w.keywords {
		if existing == kw {
			return false, nil
		}
	}
	w.keywords = append(w.keywords, kw)
	return true, nil
}

// Edit replaces the keyword at index. The new value is not checked against the rest of the
// list, so an edit may introduce a duplicate.
func (w *Watchlist) Edit(index int, raw string) error {
	kw := domain.NormalizeKeyword(raw)
	if kw == "" {
		return domain.ErrEmptyKeyword
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.keywords) {
		return domain.IndexError(index, len(w.keywords))
	}
	w.keywords[index] = kw
	return nil
}

// Delete removes the keyword at index and shifts the rest down.
func (w *Watchlist) Delete(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.keywords) {
		return domain.IndexError(index, len(w.keywords))
	}
	w.keywords = append(w.keywords[:index], w.keywords[index+1:]...)
	return nil
}

// List returns a copy of the current keywords in order.
func (w *Watchlist) List() []domain.Keyword {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.Keyword, len(w.keywords))
	copy(out, w.keywords)
	return out
}

func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.keywords)
}
