// Package sourcelist keeps the ordered feed definitions polled by the RSS connector.
package sourcelist

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"ArticleHunter/internal/domain"
)

// List is safe for concurrent use.
type List struct {
	mu       sync.RWMutex
	defs     []domain.SourceDefinition
	validate *validator.Validate
}

// New seeds the list; invalid or repeated seeds are skipped.
func New(seed []domain.SourceDefinition) *List {
	l := &List{validate: validator.New()}
	for _, def := range seed {
		_, _ = l.Add(def)
	}
	return l
}

// Add appends a definition. A definition whose source URL is already listed is ignored and
// reported with added=false.
func (l *List) Add(def domain.SourceDefinition) (bool, error) {
	def.Title = strings.TrimSpace(def.Title)
	def.Source = strings.TrimSpace(def.Source)
	if err := l.validate.Struct(def); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidSource, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.defs {
		if existing.Source == def.Source {
			return false, nil
		}
	}
	l.defs = append(l.defs, def)
	return true, nil
}

// Delete removes the definition at index.
func (l *List) Delete(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.defs) {
		return domain.IndexError(index, len(l.defs))
	}
	l.defs = append(l.defs[:index], l.defs[index+1:]...)
	return nil
}

// List returns a copy in order.
func (l *List) List() []domain.SourceDefinition {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.SourceDefinition, len(l.defs))
	copy(out, l.defs)
	return out
}
