package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/statboard/statboard-cli/lib/auth"
)

// fakeDashboard is an in-process double of the Statboard account API:
// login, refresh, api keys, usage stats and subscription endpoints.
type fakeDashboard struct {
	srv *httptest.Server

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	tokenCounter int

	loginCalls   int
	refreshCalls int
	statsCalls   int

	lastAuthHeader string
	lastStatsQuery StatsQuery

	keys       map[string]APIKey
	keyCounter int

	// planSoftFail makes the plan endpoint answer 200 with a
	// success:false envelope.
	planSoftFail bool
}

const (
	fakeEmail    = "user@example.com"
	fakePassword = "hunter2"
)

var fakeUser = User{
	ID:        "u-1",
	Email:     fakeEmail,
	Name:      "Test User",
	CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
}

var fakePlan = Plan{
	ID:           "plan-starter",
	Name:         "Starter",
	PriceCents:   900,
	Currency:     "usd",
	RequestLimit: 100000,
}

func newFakeDashboard() *fakeDashboard {
	fake := &fakeDashboard{
		keys: make(map[string]APIKey),
	}

	router := httprouter.New()
	router.POST("/auth/login", fake.handleLogin)
	router.POST("/auth/refresh", fake.handleRefresh)
	router.POST("/auth/api-keys", fake.authenticated(fake.handleCreateKey))
	router.GET("/auth/api-keys", fake.authenticated(fake.handleListKeys))
	router.DELETE("/auth/api-keys/:id", fake.authenticated(fake.handleDeleteKey))
	router.POST("/stats/", fake.authenticated(fake.handleStats))
	router.GET("/subscription/plan/associated-with-user", fake.authenticated(fake.handlePlan))
	router.POST("/subscription/checkout", fake.authenticated(fake.handleCheckout))
	fake.srv = httptest.NewServer(router)

	return fake
}

func (f *fakeDashboard) URL() string {
	return f.srv.URL
}

func (f *fakeDashboard) Close() {
	f.srv.Close()
}

func (f *fakeDashboard) counters() (login, refresh, stats int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.refreshCalls, f.statsCalls
}

func (f *fakeDashboard) issueTokens() auth.TokenData {
	f.accessToken = fmt.Sprintf("access-%d", f.tokenCounter)
	f.refreshToken = fmt.Sprintf("refresh-%d", f.tokenCounter)
	f.tokenCounter++
	return auth.TokenData{
		AccessToken:      f.accessToken,
		RefreshToken:     f.refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        300,
		RefreshExpiresIn: 86400,
	}
}

// authenticated wraps a handler with a bearer token check against the
// currently issued access token.
func (f *fakeDashboard) authenticated(next httprouter.Handle) httprouter.Handle {
	return func(rw http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		f.mu.Lock()
		f.lastAuthHeader = r.Header.Get("Authorization")
		expected := "Bearer " + f.accessToken
		valid := f.accessToken != "" && f.lastAuthHeader == expected
		f.mu.Unlock()

		if !valid {
			writeFakeEnvelope(rw, http.StatusUnauthorized, false, "invalid or expired access token", nil)
			return
		}
		next(rw, r, ps)
	}
}

func (f *fakeDashboard) handleLogin(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	fatalIf(err)

	if body.Email != fakeEmail || body.Password != fakePassword {
		writeFakeEnvelope(rw, http.StatusBadRequest, false, "invalid credentials", nil)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	user := fakeUser
	writeFakeEnvelope(rw, http.StatusOK, true, "ok", sessionData{
		TokenData: f.issueTokens(),
		User:      &user,
	})
}

func (f *fakeDashboard) handleRefresh(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++

	var presented string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		presented = strings.TrimPrefix(authHeader, "Bearer ")
	} else {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		fatalIf(err)
		presented = body.RefreshToken
	}

	if f.refreshToken == "" || presented != f.refreshToken {
		writeFakeEnvelope(rw, http.StatusUnauthorized, false, "invalid refresh token", nil)
		return
	}

	writeFakeEnvelope(rw, http.StatusOK, true, "ok", f.issueTokens())
}

func (f *fakeDashboard) handleCreateKey(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body createKeyRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	fatalIf(err)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyCounter++
	key := APIKey{
		ID:        fmt.Sprintf("key-%d", f.keyCounter),
		Name:      body.Name,
		Prefix:    fmt.Sprintf("sb_%d", f.keyCounter),
		Secret:    fmt.Sprintf("sb_%d_secret", f.keyCounter),
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	stored := key
	stored.Secret = "" // the secret is never shown again
	f.keys[key.ID] = stored

	writeFakeEnvelope(rw, http.StatusCreated, true, "ok", keyData{Key: key})
}

func (f *fakeDashboard) handleListKeys(rw http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]APIKey, 0, len(f.keys))
	for _, key := range f.keys {
		keys = append(keys, key)
	}
	writeFakeEnvelope(rw, http.StatusOK, true, "ok", keyListData{Keys: keys})
}

func (f *fakeDashboard) handleDeleteKey(rw http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := ps.ByName("id")
	if _, ok := f.keys[id]; !ok {
		writeFakeEnvelope(rw, http.StatusNotFound, false, "api key not found", nil)
		return
	}
	delete(f.keys, id)
	writeFakeEnvelope(rw, http.StatusOK, true, "ok", nil)
}

func (f *fakeDashboard) handleStats(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var query StatsQuery
	err := json.NewDecoder(r.Body).Decode(&query)
	fatalIf(err)

	f.mu.Lock()
	f.statsCalls++
	f.lastStatsQuery = query
	f.mu.Unlock()

	writeFakeEnvelope(rw, http.StatusOK, true, "ok", StatsReport{
		Points: []StatsPoint{
			{Period: "2024-03-01", Requests: 120, Errors: 3},
			{Period: "2024-03-02", Requests: 80, Errors: 0},
		},
		TotalRequests: 200,
	})
}

func (f *fakeDashboard) handlePlan(rw http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	f.mu.Lock()
	softFail := f.planSoftFail
	f.mu.Unlock()

	if softFail {
		writeFakeEnvelope(rw, http.StatusOK, false, "plan lookup failed", nil)
		return
	}
	writeFakeEnvelope(rw, http.StatusOK, true, "ok", planData{Plan: fakePlan})
}

func (f *fakeDashboard) handleCheckout(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body checkoutRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	fatalIf(err)

	writeFakeEnvelope(rw, http.StatusOK, true, "ok", CheckoutSession{
		SessionID: "cs_test_1",
		URL:       "https://pay.example.com/cs_test_1",
	})
}

func writeFakeEnvelope(rw http.ResponseWriter, status int, success bool, message string, data interface{}) {
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(status)

	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		fatalIf(err)
		raw = b
	}
	err := json.NewEncoder(rw).Encode(auth.Envelope{
		Status:  status,
		Success: success,
		Message: message,
		Data:    raw,
	})
	fatalIf(err)
}

func fatalIf(err error) {
	if err != nil {
		log.Fatalf("%v at %v", err, string(debug.Stack()))
	}
}
