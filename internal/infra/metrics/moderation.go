package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_messages_evaluated_total",
			Help: "Group messages run through the decision engine.",
		},
	)

	messagesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_messages_deleted_total",
			Help: "Messages deleted, by verdict reason.",
		},
		[]string{"reason"},
	)

	deletionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_deletion_failures_total",
			Help: "Delete calls the platform rejected (missing rights, already gone).",
		},
	)

	verificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_verification_outcomes_total",
			Help: "Membership verification results, by resolving tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	joinLeaveDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_join_leave_deleted_total",
			Help: "Join/leave service messages removed.",
		},
	)

	membersPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_members_purged_total",
			Help: "Stale unverified membership records removed by the retention sweep.",
		},
	)
)

func init() {
	register(
		messagesEvaluated, messagesDeleted, deletionFailures,
		verificationOutcomes, joinLeaveDeleted, membersPurged,
	)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncEvaluated()            { messagesEvaluated.Inc() }
func IncDeleted(reason string) { messagesDeleted.WithLabelValues(norm(reason)).Inc() }
func IncDeletionFailure()      { deletionFailures.Inc() }
func IncJoinLeaveDeleted()     { joinLeaveDeleted.Inc() }
func IncMembersPurged(n int)   { membersPurged.Add(float64(n)) }

// Verification tiers, used as metric labels.
const (
	TierStore     = "store"
	TierLookup    = "lookup"
	TierAdminScan = "admin_scan"
	TierHeuristic = "heuristic"
)

func IncVerification(tier string, verified bool) {
	outcome := "denied"
	if verified {
		outcome = "verified"
	}
	verificationOutcomes.WithLabelValues(tier, outcome).Inc()
}
