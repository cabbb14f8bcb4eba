package dashboard

import (
	"time"

	"github.com/statboard/statboard-cli/lib/auth"
)

// User is the account profile as returned by the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionData is the login payload: the token pair plus the user profile.
type sessionData struct {
	auth.TokenData
	User *User `json:"user"`
}

// APIKey describes one provisioned API key. Secret is only present in the
// create response; list responses carry the prefix alone.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Secret     string     `json:"secret,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

type createKeyRequest struct {
	Name string `json:"name"`
}

type keyData struct {
	Key APIKey `json:"key"`
}

type keyListData struct {
	Keys []APIKey `json:"keys"`
}

// Granularity is the aggregation step of a usage analytics query.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// Valid reports whether the granularity is one of the accepted values.
func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// StatsQuery is a usage analytics query. From and To are inclusive dates
// in "2006-01-02" form; empty filters match everything.
type StatsQuery struct {
	KeyID       string      `json:"key_id,omitempty"`
	From        string      `json:"from,omitempty"`
	To          string      `json:"to,omitempty"`
	Category    string      `json:"category,omitempty"`
	Granularity Granularity `json:"granularity"`
}

// StatsPoint is one aggregated bucket of usage data.
type StatsPoint struct {
	Period   string `json:"period"`
	Requests int64  `json:"requests"`
	Errors   int64  `json:"errors"`
}

// StatsReport is the result of a usage analytics query.
type StatsReport struct {
	Points        []StatsPoint `json:"points"`
	TotalRequests int64        `json:"total_requests"`
}

// Plan is the subscription plan associated with the account.
type Plan struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	PriceCents   int64      `json:"price_cents"`
	Currency     string     `json:"currency"`
	RequestLimit int64      `json:"request_limit"`
	RenewsAt     *time.Time `json:"renews_at,omitempty"`
}

type planData struct {
	Plan Plan `json:"plan"`
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

// CheckoutSession points at the provider-hosted payment page. The payment
// UI itself is outside this client; we only create the session and hand
// its URL over.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
