package storygate_test

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/storygate/storygate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSigner_EmptyKey(t *testing.T) {
	_, err := storygate.NewSigner("")
	assert.Error(t, err)
}

func TestSigner_Sign_Deterministic(t *testing.T) {
	signer, err := storygate.NewSigner("s3cr3t")
	require.NoError(t, err)

	first := signer.Sign("/private/story1.mp4-1767225600-0")
	for range 10 {
		assert.Equal(t, first, signer.Sign("/private/story1.mp4-1767225600-0"))
	}

	// 32 bytes of SHA-256 output, lowercase hex encoded
	assert.Len(t, first, 64)
	assert.Equal(t, strings.ToLower(first), first)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)
}

func TestSigner_Sign_DifferentKeysDiffer(t *testing.T) {
	a, err := storygate.NewSigner("key-a")
	require.NoError(t, err)
	b, err := storygate.NewSigner("key-b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Sign("message"), b.Sign("message"))
}

func signedURL(t *testing.T, signer *storygate.Signer, path string, expiresAt time.Time, shared bool) *url.URL {
	t.Helper()
	u := &url.URL{Path: path, RawQuery: signer.IssueQuery(path, expiresAt, shared).Encode()}
	return u
}

func TestLinkValidator_Validate(t *testing.T) {
	signer, err := storygate.NewSigner("s3cr3t")
	require.NoError(t, err)
	validator := storygate.NewLinkValidator(signer)

	future := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		url        func(t *testing.T) *url.URL
		wantValid  bool
		wantShared bool
		wantReason string
	}{
		{
			name: "valid private link",
			url: func(t *testing.T) *url.URL {
				return signedURL(t, signer, "/private/story1.mp4", future, false)
			},
			wantValid: true,
		},
		{
			name: "valid shared link",
			url: func(t *testing.T) *url.URL {
				return signedURL(t, signer, "/private/story1.mp4", future, true)
			},
			wantValid:  true,
			wantShared: true,
		},
		{
			name: "no query parameters",
			url: func(t *testing.T) *url.URL {
				return &url.URL{Path: "/private/story1.mp4"}
			},
			wantReason: storygate.ReasonMissingParams,
		},
		{
			name: "missing shared",
			url: func(t *testing.T) *url.URL {
				u := signedURL(t, signer, "/private/story1.mp4", future, false)
				q := u.Query()
				q.Del(storygate.ParamShared)
				u.RawQuery = q.Encode()
				return u
			},
			wantReason: storygate.ReasonMissingParams,
		},
		{
			name: "missing token",
			url: func(t *testing.T) *url.URL {
				u := signedURL(t, signer, "/private/story1.mp4", future, false)
				q := u.Query()
				q.Del(storygate.ParamToken)
				u.RawQuery = q.Encode()
				return u
			},
			wantReason: storygate.ReasonMissingParams,
		},
		{
			name: "expired link",
			url: func(t *testing.T) *url.URL {
				return signedURL(t, signer, "/private/story1.mp4", time.Now().Add(-10*time.Second), false)
			},
			wantReason: storygate.ReasonExpired,
		},
		{
			name: "non-integer verify",
			url: func(t *testing.T) *url.URL {
				u := signedURL(t, signer, "/private/story1.mp4", future, false)
				q := u.Query()
				q.Set(storygate.ParamVerify, "soon")
				u.RawQuery = q.Encode()
				return u
			},
			wantReason: storygate.ReasonExpired,
		},
		{
			name: "tampered path",
			url: func(t *testing.T) *url.URL {
				u := signedURL(t, signer, "/private/story1.mp4", future, false)
				u.Path = "/private/story2.mp4"
				return u
			},
			wantReason: storygate.ReasonInvalidSignature,
		},
		{
			name: "tampered expiration",
			url: func(t *testing.T) *url.URL {
				u := signedURL(t, signer, "/private/story1.mp4", future, false)
				q := u.Query()
				q.Set(storygate.ParamVerify, strconv.FormatInt(future.Unix()+1, 10))
				u.RawQuery = q.Encode()
				return u
			},
			wantReason: storygate.ReasonInvalidSignature,
		},
		{
			name: "tampered visibility flag",
			url: func(t *testing.T) *url.URL {
				u := signedURL(t, signer, "/private/story1.mp4", future, false)
				q := u.Query()
				q.Set(storygate.ParamShared, "1")
				u.RawQuery = q.Encode()
				return u
			},
			wantReason: storygate.ReasonInvalidSignature,
		},
		{
			name: "tampered token",
			url: func(t *testing.T) *url.URL {
				u := signedURL(t, signer, "/private/story1.mp4", future, false)
				q := u.Query()
				token := q.Get(storygate.ParamToken)
				if token[0] == 'a' {
					token = "b" + token[1:]
				} else {
					token = "a" + token[1:]
				}
				q.Set(storygate.ParamToken, token)
				u.RawQuery = q.Encode()
				return u
			},
			wantReason: storygate.ReasonInvalidSignature,
		},
		{
			name: "shared zero counts as present",
			url: func(t *testing.T) *url.URL {
				return signedURL(t, signer, "/private/story1.mp4", future, false)
			},
			wantValid:  true,
			wantShared: false,
		},
		{
			name: "wrong key",
			url: func(t *testing.T) *url.URL {
				other, err := storygate.NewSigner("other-key")
				require.NoError(t, err)
				return signedURL(t, other, "/private/story1.mp4", future, false)
			},
			wantReason: storygate.ReasonInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.Validate(tt.url(t))
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantShared, result.Shared)
			assert.Equal(t, tt.wantReason, result.Reason)
		})
	}
}
