// Package middleware provides the HTTP middleware used by the API server.
//
// Every middleware has the shape func(http.Handler) http.Handler so they
// chain by nesting:
//
//	handler := middleware.PanicRecovery(logger)(mux)
//	handler = middleware.Logging(logger, middleware.GetRequestID)(handler)
//	handler = middleware.RequestID()(handler)
package middleware
