package middlewares

// keys stashed on the gin context
const (
	CtxRequestID = "request_id"
)
