package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PageCacheRequests counts index page cache lookups by result (hit or miss).
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_page_cache_requests_total",
		Help: "Index page cache lookups by result",
	}, []string{"result"})

	// PageCacheFlushedKeys counts entries removed by explicit flushes.
	PageCacheFlushedKeys = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_page_cache_flushed_keys_total",
		Help: "Total number of index page cache entries removed by flushes",
	})

	// FollowEvents counts follow graph changes by action.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_follow_events_total",
		Help: "Follow graph changes by action",
	}, []string{"action"})

	// PostsCreated counts successfully published posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_posts_created_total",
		Help: "Total number of posts published",
	})

	// CommentsCreated counts successfully stored comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_comments_created_total",
		Help: "Total number of comments stored",
	})

	// RateLimitRejections counts requests rejected by the limiter by route group.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"resource"})
)
