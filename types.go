package storygate

// Query parameters carried by a signed link.
const (
	// ParamVerify holds the unix-seconds expiration of the link.
	ParamVerify = "verify"
	// ParamToken holds the lowercase hex HMAC-SHA256 token.
	ParamToken = "token"
	// ParamShared holds the visibility flag, "0" or "1". It is baked into
	// the signature at issuance time and must be present on the link.
	ParamShared = "shared"
)

// Validation failure reasons, surfaced verbatim to callers in the response
// body and the X-Error-Reason header.
const (
	ReasonMissingParams    = "Missing verify, token, or shared parameter."
	ReasonExpired          = "URL expired."
	ReasonInvalidSignature = "Invalid token signature."
)

// ValidationResult is the outcome of validating a signed link. It lives only
// for the duration of one request.
type ValidationResult struct {
	Valid  bool
	Shared bool
	Reason string
}
