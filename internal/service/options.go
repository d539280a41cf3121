package service

import (
	"log/slog"
	"time"

	"github.com/UkralStul/blog-service/internal/cache"
)

// Option настраивает менеджеры.
type Option func(*options)

type options struct {
	logger *slog.Logger
	now    func() time.Time
	feed   cache.FeedCache
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		feed:   cache.Nop{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger задаёт логгер; по умолчанию slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock подменяет источник времени. Значения приводятся к UTC.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = func() time.Time { return now().UTC() }
		}
	}
}

// WithFeedCache включает кэш ленты опубликованных постов.
func WithFeedCache(feed cache.FeedCache) Option {
	return func(o *options) {
		if feed != nil {
			o.feed = feed
		}
	}
}
