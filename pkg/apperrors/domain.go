package apperrors

import "net/http"

// Domain error constructors. Each names the business failure it reports;
// handlers pass these through HandleError unchanged.

// --- auth ---

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)
}

func ErrEmailTaken() *AppError {
	return New(CodeAlreadyExists, "auth", "An account with this email already exists", http.StatusConflict)
}

func ErrWeakPassword() *AppError {
	return New(CodeValidationFailed, "auth", "Password must be at least 8 characters long", http.StatusBadRequest)
}

func ErrInvalidResetToken() *AppError {
	return New(CodeInvalidToken, "auth", "Password reset token is invalid or expired", http.StatusBadRequest)
}

// --- jobs ---

func ErrJobNotFound() *AppError {
	return New(CodeNotFound, "job", "Job not found", http.StatusNotFound)
}

func ErrNotJobOwner() *AppError {
	return New(CodeForbidden, "job", "Only the posting employer can manage this job", http.StatusForbidden)
}

func ErrJobLimitReached(limit int) *AppError {
	return New(CodeLimitExceeded, "job", "Active job limit for the current plan reached", http.StatusForbidden).
		WithDetails(map[string]int{"active_jobs_limit": limit})
}

func ErrInvalidJobTransition(from, to string) *AppError {
	return New(CodeInvalidStatus, "job", "Invalid job status transition", http.StatusBadRequest).
		WithDetails(map[string]string{"from": from, "to": to})
}

// --- applications ---

func ErrApplicationNotFound() *AppError {
	return New(CodeNotFound, "application", "Application not found", http.StatusNotFound)
}

func ErrDuplicateApplication() *AppError {
	return New(CodeConflict, "application", "You have already applied to this job", http.StatusConflict)
}

func ErrNotApplicationReviewer() *AppError {
	return New(CodeForbidden, "application", "Only the job owner can update application status", http.StatusForbidden)
}

func ErrInvalidApplicationStatus(status string) *AppError {
	return New(CodeInvalidStatus, "application", "Unsupported application status", http.StatusBadRequest).
		WithDetails(map[string]string{"status": status})
}

// --- subscriptions / billing ---

func ErrSubscriptionNotFound() *AppError {
	return New(CodeNotFound, "subscription", "No subscription on file", http.StatusNotFound)
}

func ErrUnknownPlan(plan string) *AppError {
	return New(CodeValidationFailed, "subscription", "Unknown plan type", http.StatusBadRequest).
		WithDetails(map[string]string{"plan": plan})
}

func ErrPaymentProvider(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "payment", "Payment provider request failed", http.StatusBadGateway)
}

func ErrSessionNotPaid() *AppError {
	return New(CodePaymentRequired, "payment", "Checkout session is not paid", http.StatusBadRequest)
}

func ErrUnknownSessionType(t string) *AppError {
	return New(CodeInvalidOperation, "payment", "Checkout session metadata type is not recognized", http.StatusBadRequest).
		WithDetails(map[string]string{"type": t})
}

// --- credits / unlocks ---

func ErrInsufficientCredits() *AppError {
	return New(CodeInsufficientCredits, "credit", "Not enough credits", http.StatusConflict)
}

func ErrUnknownCreditPack(pack string) *AppError {
	return New(CodeValidationFailed, "credit", "Unknown credit pack", http.StatusBadRequest).
		WithDetails(map[string]string{"pack": pack})
}

func ErrResumeNotFound() *AppError {
	return New(CodeNotFound, "resume", "No resume on file for this user", http.StatusNotFound)
}

func ErrResumeLocked() *AppError {
	return New(CodeForbidden, "resume", "Resume is locked; unlock it with a credit first", http.StatusForbidden)
}
