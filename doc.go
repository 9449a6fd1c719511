// Package storygate implements an edge gateway that fronts a private media
// object store. It verifies time-limited HMAC-signed links for private
// content and serves both public and validated-private content through a
// shared edge cache.
//
// # Key Components
//
//   - Signer: HMAC-SHA256 signing primitive for link tokens
//   - LinkValidator: presence, expiration, and signature checks on signed links
//   - ContentCategory: media classification used to pick cache policies
//
// The http package implements the request router and the cache-aware
// fetcher, the cache package the edge cache backends (in-memory and Redis),
// and the objectstore package the backing store bindings (local filesystem
// and Google Cloud Storage).
//
// # Example Usage
//
//	signer, err := storygate.NewSigner("s3cr3t")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Issue a signed link valid for one hour
//	q := signer.IssueQuery("/private/story1.mp4", time.Now().Add(time.Hour), false)
//
//	// Validate an inbound request URL
//	validator := storygate.NewLinkValidator(signer)
//	result := validator.Validate(r.URL)
//
// Token issuance normally happens in an upstream service; the signing helper
// here keeps the token format in one place for the CLI and for tests.
package storygate
