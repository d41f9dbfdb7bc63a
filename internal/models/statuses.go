package models

type UserRole string
type UserStatus string
type JobStatus string
type ApplicationStatus string
type SubscriptionStatus string
type PurchaseStatus string
type JobFeature string

const (
	UserRoleJobSeeker UserRole = "jobseeker"
	UserRoleEmployer  UserRole = "employer"
	UserRoleAdmin     UserRole = "admin"

	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	JobStatusActive  JobStatus = "active"
	JobStatusPaused  JobStatus = "paused"
	JobStatusExpired JobStatus = "expired"
	JobStatusDeleted JobStatus = "deleted"

	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusShortlisted ApplicationStatus = "shortlisted"
	ApplicationStatusInterviewed ApplicationStatus = "interviewed"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusHired       ApplicationStatus = "hired"

	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusReplaced  SubscriptionStatus = "replaced"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"

	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"

	JobFeatureFeatured JobFeature = "featured"
	JobFeatureUrgent   JobFeature = "urgent"
)

// ValidJobTransitions maps a job status to the statuses an employer may
// move it into. Deleted is terminal; reactivation from paused or expired
// restarts the 30-day window.
var ValidJobTransitions = map[JobStatus][]JobStatus{
	JobStatusActive:  {JobStatusPaused, JobStatusExpired, JobStatusDeleted},
	JobStatusPaused:  {JobStatusActive, JobStatusDeleted},
	JobStatusExpired: {JobStatusActive, JobStatusDeleted},
	JobStatusDeleted: {},
}

// CanTransitionJob reports whether a job may move from one status to
// another.
func CanTransitionJob(from, to JobStatus) bool {
	for _, allowed := range ValidJobTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidApplicationTransitions lists the statuses an employer may move an
// application into. Applications never return to pending.
var ValidApplicationTransitions = map[ApplicationStatus]bool{
	ApplicationStatusShortlisted: true,
	ApplicationStatusInterviewed: true,
	ApplicationStatusRejected:    true,
	ApplicationStatusHired:       true,
}
