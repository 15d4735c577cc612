package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "guestpost", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "guestpost", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "guestpost", Name: "submissions_total", Help: "Guest post submissions by outcome (pending, published or the rejection code)."},
		[]string{"outcome"},
	)
	ModerationActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "guestpost", Name: "moderation_actions_total", Help: "Applied moderation transitions by action and authorization channel."},
		[]string{"action", "channel"},
	)
	ModerationDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "guestpost", Name: "moderation_denied_total", Help: "Moderation requests denied by the authorizer, by reason code."},
		[]string{"reason"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "guestpost", Name: "notifications_total", Help: "Notification emails by kind and result."},
		[]string{"kind", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Submissions)
	reg.MustRegister(ModerationActions)
	reg.MustRegister(ModerationDenied)
	reg.MustRegister(Notifications)
}
