package contextkeys

// ContextKey is the private key type for values this application stores in
// a context.Context.
type ContextKey string

const (
	RequestIDContextKey ContextKey = "request_id"
	UserIDContextKey    ContextKey = "user_id"
)
