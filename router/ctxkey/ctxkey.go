package ctxkey

type ctxKey int

const (
	// UserID authenticated user id (uuid.UUID) set by the auth middleware
	UserID ctxKey = iota
)
