package response

import "net/http"

// Default messages per status, used when a handler has nothing more specific.
var msg = map[int]string{
	http.StatusBadRequest:          "Invalid input data",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not found",
	http.StatusConflict:            "Conflict",
	http.StatusTooManyRequests:     "Rate limit exceeded",
	http.StatusInternalServerError: "Internal server error",
	http.StatusServiceUnavailable:  "Service unavailable",
}

// StatusMessage returns the default message for code.
func StatusMessage(code int) string {
	if m, ok := msg[code]; ok {
		return m
	}
	return http.StatusText(code)
}
