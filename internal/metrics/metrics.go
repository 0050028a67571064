package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tweed",
		Name:      "posts_created_total",
		Help:      "Posts created, by kind (root or reply).",
	}, []string{"kind"})

	ThreadInsertConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tweed",
		Name:      "thread_insert_conflicts_total",
		Help:      "Thread saves rejected because the tree changed since it was loaded.",
	})

	OrphanedPosts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tweed",
		Name:      "orphaned_posts_total",
		Help:      "Replies persisted but not attached to their thread tree.",
	})

	ThreadPathLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tweed",
		Name:      "thread_path_length",
		Help:      "Number of posts on the leading path returned for a thread view.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
	})

	FeedAssemblyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tweed",
		Name:      "feed_assembly_duration_seconds",
		Help:      "Time spent loading and merging feed sources.",
		Buckets:   prometheus.DefBuckets,
	})
)

const (
	KindRoot  = "root"
	KindReply = "reply"
)
