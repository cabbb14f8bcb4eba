package auth

import (
	"time"

	"github.com/statboard/statboard-cli/lib/auth/storage"
)

// Expired reports whether the stored access token must be refreshed before
// use. A record with any field missing or unparseable is always expired:
// partial state is never trusted, ambiguity forces a refresh attempt
// rather than risking a call with a stale token. The boundary is inclusive
// and there is no clock-skew buffer.
func Expired(record storage.Record, now time.Time) bool {
	if record.AccessToken == "" || record.RefreshToken == "" || record.TokenType == "" {
		return true
	}
	if record.ExpiresIn <= 0 || record.RefreshExpiresIn <= 0 || record.IssuedAt <= 0 {
		return true
	}
	return now.UnixMilli() >= record.IssuedAt+record.ExpiresIn*1000
}
