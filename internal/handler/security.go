package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// apiKeyHeader carries the caller's key on mutating endpoints.
const apiKeyHeader = "api_key"

// securityMiddleware authenticates requests via HMAC-SHA256 hashed API keys.
// Keys are provided pre-hashed in configuration; the middleware hashes the
// presented key with the pepper and compares against the allowed set in
// constant time. When no keys are configured the middleware is a no-op,
// which keeps local development friction-free.
type securityMiddleware struct {
	hashes [][]byte
	pepper []byte
}

func newSecurityMiddleware(keyHashes []string, pepper []byte) *securityMiddleware {
	s := &securityMiddleware{pepper: pepper}
	for _, h := range keyHashes {
		raw, err := hex.DecodeString(h)
		if err != nil {
			continue
		}
		s.hashes = append(s.hashes, raw)
	}
	return s
}

// Require wraps a handler with API key authentication.
func (s *securityMiddleware) Require(next http.Handler) http.Handler {
	if len(s.hashes) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing api_key header")
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(key))
		presented := mac.Sum(nil)

		for _, stored := range s.hashes {
			if subtle.ConstantTimeCompare(presented, stored) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		writeError(w, http.StatusUnauthorized, "invalid api key")
	})
}
