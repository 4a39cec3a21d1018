package domain

// RawItem is a source-native record returned by a connector poll. It is never stored.
type RawItem struct {
	ID    string
	Title string
	Body  string
	Tags  []string
	Link  string
}

// MatchedArticle is a RawItem that passed keyword filtering, tagged with the keyword that won.
type MatchedArticle struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Link    string   `json:"link"`
	Tags    []string `json:"tags,omitempty"`
	Keyword Keyword  `json:"keyword"`
}

// NewMatchedArticle copies the item so later changes to the raw record cannot leak into the store.
func NewMatchedArticle(item RawItem, keyword Keyword) MatchedArticle {
	var tags []string
	if len(item.Tags) > 0 {
		tags = append([]string(nil), item.Tags...)
	}
	return MatchedArticle{
		ID:      item.ID,
		Title:   item.Title,
		Body:    item.Body,
		Link:    item.Link,
		Tags:    tags,
		Keyword: keyword,
	}
}

// SourceDefinition names one RSS feed polled by the feed connector.
type SourceDefinition struct {
	Title  string `json:"title" yaml:"title" validate:"required"`
	Source string `json:"source" yaml:"source" validate:"required,url"`
}
