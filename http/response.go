package http

import "net/http"

// HeaderErrorReason carries the validation failure reason on 403 responses
// so browser clients can read it without parsing the body.
const HeaderErrorReason = "X-Error-Reason"

// setCORSHeaders applies the gateway's permissive CORS policy. Every
// success and error response carries these so browser-based callers can
// read bodies cross-origin.
func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// writePreflight answers an OPTIONS request with a 24-hour preflight cache
// hint and no body.
func writePreflight(w http.ResponseWriter) {
	setCORSHeaders(w.Header())
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}

// writeError writes a plain-text error response.
func writeError(w http.ResponseWriter, code int, message string) {
	setCORSHeaders(w.Header())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(message))
}

// writeValidationError writes a 403 with the failure reason surfaced
// verbatim in both the body and the X-Error-Reason header. The disclosure
// is deliberate: callers are browser clients of the issuing application,
// and the reason distinguishes an expired link from a forged one.
func writeValidationError(w http.ResponseWriter, reason string) {
	w.Header().Set(HeaderErrorReason, reason)
	writeError(w, http.StatusForbidden, reason)
}
