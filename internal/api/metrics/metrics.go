// Package metrics defines the blog API's custom Prometheus metrics. HTTP
// request metrics come from echoprometheus; these cover domain outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

// AuthRequestsTotal counts register and login outcomes.
// Labels:
//   - action: "register" or "login"
//   - result: "success" or "failure"
var AuthRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of register and login attempts by result.",
	},
	[]string{"action", "result"},
)

// PostsWrittenTotal counts successful post writes.
// Label:
//   - op: "create", "update" or "delete"
var PostsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_written_total",
		Help:      "Total number of successful post writes by operation.",
	},
	[]string{"op"},
)

var CommentsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_created_total",
		Help:      "Total number of comments added to posts.",
	},
)

// ListingResultSize observes how many posts a listing or search returned.
// Label:
//   - kind: "list" or "search"
var ListingResultSize = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "listing_result_size",
		Help:      "Number of posts returned per listing or search request.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	},
	[]string{"kind"},
)
