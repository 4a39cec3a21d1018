package domain

// Push channel event names.
const (
	EventArticles    = "articles"
	EventKeywordList = "keywordList"
	EventSourceList  = "sourceList"
	EventError       = "error"

	EventAddKeyword    = "addKeyword"
	EventEditKeyword   = "editKeyword"
	EventDeleteKeyword = "deleteKeyword"
	EventAddSource     = "addSource"
	EventDeleteSource  = "deleteSource"
)

// Event is one message on the push channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// CommandError is sent back to the subscriber whose request was rejected.
type CommandError struct {
	Request string `json:"request"`
	Message string `json:"message"`
}
