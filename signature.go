package storygate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Signer computes link tokens as the lowercase hex HMAC-SHA256 of a message.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer from the secret signing key.
//
// An empty key is rejected rather than silently falling back to a guessable
// default: deployments that never serve private content should simply not
// construct a Signer.
func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, errors.New("new signer: signing key must not be empty")
	}
	return &Signer{key: []byte(key)}, nil
}

// Sign returns the lowercase hex encoded HMAC-SHA256 of message.
// Deterministic, pure, no side effects.
func (s *Signer) Sign(message string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// linkPayload builds the canonical message covered by a link token.
func linkPayload(path, verify, shared string) string {
	return fmt.Sprintf("%s-%s-%s", path, verify, shared)
}

// IssueQuery builds the query parameters of a signed link for path, valid
// until expiresAt. The path must be the full request path including the
// leading slash. Issuance normally lives in an upstream service; keeping the
// builder next to the verifier keeps the token format in one place.
func (s *Signer) IssueQuery(path string, expiresAt time.Time, shared bool) url.Values {
	verify := strconv.FormatInt(expiresAt.Unix(), 10)
	flag := "0"
	if shared {
		flag = "1"
	}

	q := url.Values{}
	q.Set(ParamVerify, verify)
	q.Set(ParamShared, flag)
	q.Set(ParamToken, s.Sign(linkPayload(path, verify, flag)))
	return q
}

// LinkValidator checks signed links against a Signer.
type LinkValidator struct {
	signer *Signer
	now    func() time.Time
}

// NewLinkValidator creates a LinkValidator using time.Now as its clock.
func NewLinkValidator(signer *Signer) *LinkValidator {
	return &LinkValidator{signer: signer, now: time.Now}
}

// Validate checks a signed link, short-circuiting on the first failure:
//
//  1. Presence: verify, token, and shared must all be present in the query
//     string. shared is checked for absence, not falsiness; a value of "0"
//     counts as present.
//  2. Expiration: verify is parsed as unix seconds. The link is expired when
//     now is strictly after verify; equality passes.
//  3. Signature: the expected token over "{path}-{verify}-{shared}" is
//     compared against the supplied token in constant time.
//
// On success the result carries Valid=true and Shared reflecting whether the
// link was issued with shared == "1".
func (v *LinkValidator) Validate(u *url.URL) ValidationResult {
	q := u.Query()

	if !q.Has(ParamVerify) || !q.Has(ParamToken) || !q.Has(ParamShared) {
		return ValidationResult{Reason: ReasonMissingParams}
	}

	verify := q.Get(ParamVerify)
	token := q.Get(ParamToken)
	shared := q.Get(ParamShared)

	expires, err := strconv.ParseInt(verify, 10, 64)
	if err != nil || v.now().Unix() > expires {
		return ValidationResult{Reason: ReasonExpired}
	}

	expected := v.signer.Sign(linkPayload(u.Path, verify, shared))
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ValidationResult{Reason: ReasonInvalidSignature}
	}

	return ValidationResult{Valid: true, Shared: shared == "1"}
}
