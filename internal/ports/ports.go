package ports

import (
	"context"
	"time"

	"ArticleHunter/internal/domain"
)

// Connector polls one content source and returns its raw records.
type Connector interface {
	Name() string
	Poll(ctx context.Context, keywords []domain.Keyword) ([]domain.RawItem, error)
}

// Broadcaster pushes an event to every connected subscriber.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any) error
}

// ArticleArchive records newly accepted articles outside the process. It is write-only:
// stores are never rebuilt from it.
type ArticleArchive interface {
	Archive(ctx context.Context, source string, articles []domain.MatchedArticle) error
}

// DigestNotifier streams a human-readable digest of new articles to Telegram or other channels.
type DigestNotifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when poll cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
