package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LoginsTotal counts login attempts by result (LoginSuccess or LoginFailure).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microblog_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	RegistrationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "microblog_registrations_total",
			Help: "Accounts created",
		},
	)

	PostsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "microblog_posts_created_total",
			Help: "Posts created",
		},
	)

	// FollowChangesTotal counts social graph mutations by action (follow, unfollow).
	FollowChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microblog_follow_changes_total",
			Help: "Follow and unfollow operations",
		},
		[]string{"action"},
	)

	// Users, Posts and FollowEdges are refreshed periodically by the scheduler.
	Users = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "microblog_users",
		Help: "Registered users",
	})
	Posts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "microblog_posts",
		Help: "Stored posts",
	})
	FollowEdges = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "microblog_follow_edges",
		Help: "Rows in the followers table",
	})
)

var (
	usernamePathSegment = regexp.MustCompile(`^/(user|follow|unfollow)/[^/]+`)
	initOnce            sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			LoginsTotal, RegistrationsTotal, PostsCreatedTotal, FollowChangesTotal,
			Users, Posts, FollowEdges,
		)
	})
}

// NormalizePath reduces cardinality by replacing usernames in paths with {username}.
// E.g. /user/alice -> /user/{username}, /follow/bob -> /follow/{username}.
func NormalizePath(path string) string {
	return usernamePathSegment.ReplaceAllString(path, "/$1/{username}")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// Result label values for LoginsTotal.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

func IncLogin(result string) {
	LoginsTotal.WithLabelValues(result).Inc()
}

func IncRegistration() {
	RegistrationsTotal.Inc()
}

func IncPostCreated() {
	PostsCreatedTotal.Inc()
}

// IncFollowChange increments the follow counter for action (follow, unfollow).
func IncFollowChange(action string) {
	FollowChangesTotal.WithLabelValues(action).Inc()
}

// SetStats publishes the latest table sizes.
func SetStats(users, posts, edges int) {
	Users.Set(float64(users))
	Posts.Set(float64(posts))
	FollowEdges.Set(float64(edges))
}
