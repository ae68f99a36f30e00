// Package shield provides the HTTP middleware applied to the picker control
// API: security headers, body limits, HEAD handling and request logging.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack(logger) {
//	    r.Use(mw)
//	}
package shield

import (
	"log/slog"
	"net/http"
)

// MaxJSONBody is the request body limit applied by APIStack.
const MaxJSONBody = 64 * 1024

// APIStack returns the standard middleware stack for a JSON control API,
// ordered HeadToGet → SecurityHeaders → MaxBody → RequestLog.
func APIStack(logger *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(APIHeaders()),
		MaxBody(MaxJSONBody),
		RequestLog(logger),
	}
}
