package middlewares

const (
	// CtxRequestID is where RequestID stores the request id on the gin context.
	CtxRequestID = "request_id"
	// CtxCredential is where RequireCredential stores the raw bearer
	// credential. It is the opaque token itself; nothing before the session
	// guard inspects it.
	CtxCredential = "auth.credential"
)
