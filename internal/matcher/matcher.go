// Package matcher decides which keyword, if any, a raw item is filed under.
package matcher

import (
	"strings"

	"ArticleHunter/internal/domain"
)

// Match tests keywords in order against title, body and tags. The first keyword that hits any
// field wins. Items without an id or title never match.
func Match(item domain.RawItem, keywords []domain.Keyword) (domain.MatchedArticle, bool) {
	if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Title) == "" {
		return domain.MatchedArticle{}, false
	}

	title := strings.ToLower(item.Title)
	body := strings.ToLower(item.Body)

	for _, kw := range keywords {
		word := strings.ToLower(string(kw))
		if word == "" {
			continue
		}
		if strings.Contains(title, word) || strings.Contains(body, word) || hasTag(item.Tags, word) {
			return domain.NewMatchedArticle(item, kw), true
		}
	}
	return domain.MatchedArticle{}, false
}

// MatchAll keeps the order of items and drops everything that does not match.
func MatchAll(items []domain.RawItem, keywords []domain.Keyword) []domain.MatchedArticle {
	matched := make([]domain.MatchedArticle, 0, len(items))
	for _, item := range items {
		if article, ok := Match(item, keywords); ok {
			matched = append(matched, article)
		}
	}
	return matched
}

func hasTag(tags []string, word string) bool {
	for _, tag := range tags {
		if strings.EqualFold(strings.TrimSpace(tag), word) {
			return true
		}
	}
	return false
}
