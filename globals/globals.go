package globals

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"
const RequestIDKey ContextKey = "requestId"

// Account roles carried in the session token.
const (
	RoleCustomer = "customer"
	RoleFarmer   = "farmer"
)

// SessionCookie is the HTTP-only cookie holding the signed session token.
const SessionCookie = "session_token"
