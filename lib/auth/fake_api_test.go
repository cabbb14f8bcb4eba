package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

// fakeAPI is a minimal Statboard API double: a refresh endpoint with the
// body/header transmission modes and one bearer-protected endpoint.
type fakeAPI struct {
	srv *httptest.Server

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	tokenCounter int

	refreshBodyCalls   int
	refreshHeaderCalls int
	protectedCalls     int
	lastWidgetHeaders  http.Header

	// rejectBodyMode makes body-mode refresh requests fail with 401 so
	// that clients fall back to header mode.
	rejectBodyMode bool
	// failRefresh makes both refresh modes fail.
	failRefresh bool
	// rejectAllBearers makes the protected endpoint return 401 no matter
	// which access token is presented.
	rejectAllBearers bool
	// refreshDelay slows the refresh handler down so concurrent callers
	// pile up on it.
	refreshDelay time.Duration
}

func newFakeAPI() *fakeAPI {
	fake := &fakeAPI{
		accessToken:  "access-0",
		refreshToken: "refresh-0",
	}

	router := httprouter.New()
	router.POST("/auth/refresh", fake.handleRefresh)
	router.GET("/widgets", fake.handleWidgets)
	fake.srv = httptest.NewServer(router)

	return fake
}

func (f *fakeAPI) URL() string {
	return f.srv.URL
}

func (f *fakeAPI) Close() {
	f.srv.Close()
}

func (f *fakeAPI) currentTokens() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accessToken, f.refreshToken
}

func (f *fakeAPI) counters() (body, header, protected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshBodyCalls, f.refreshHeaderCalls, f.protectedCalls
}

func (f *fakeAPI) handleRefresh(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if f.refreshDelay > 0 {
		time.Sleep(f.refreshDelay)
	}

	var presented string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		f.mu.Lock()
		f.refreshHeaderCalls++
		f.mu.Unlock()
		presented = authHeader
	} else {
		f.mu.Lock()
		f.refreshBodyCalls++
		rejectBody := f.rejectBodyMode
		f.mu.Unlock()

		if rejectBody {
			writeEnvelope(rw, http.StatusUnauthorized, false, "refresh token must be sent as a bearer header", nil)
			return
		}

		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		fatalIf(err)
		presented = "Bearer " + body.RefreshToken
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failRefresh {
		writeEnvelope(rw, http.StatusForbidden, false, "refresh denied", nil)
		return
	}
	if presented != "Bearer "+f.refreshToken {
		writeEnvelope(rw, http.StatusUnauthorized, false, "invalid refresh token", nil)
		return
	}

	f.tokenCounter++
	f.accessToken = fmt.Sprintf("access-%d", f.tokenCounter)
	f.refreshToken = fmt.Sprintf("refresh-%d", f.tokenCounter)

	writeEnvelope(rw, http.StatusOK, true, "ok", TokenData{
		AccessToken:      f.accessToken,
		RefreshToken:     f.refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        300,
		RefreshExpiresIn: 86400,
	})
}

func (f *fakeAPI) handleWidgets(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	f.mu.Lock()
	f.protectedCalls++
	f.lastWidgetHeaders = r.Header.Clone()
	expected := "Bearer " + f.accessToken
	reject := f.rejectAllBearers
	f.mu.Unlock()

	if reject || r.Header.Get("Authorization") != expected {
		writeEnvelope(rw, http.StatusUnauthorized, false, "invalid or expired access token", nil)
		return
	}

	writeEnvelope(rw, http.StatusOK, true, "ok", map[string][]string{
		"widgets": {"alpha", "beta"},
	})
}

func writeEnvelope(rw http.ResponseWriter, status int, success bool, message string, data interface{}) {
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(status)

	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		fatalIf(err)
		raw = b
	}
	err := json.NewEncoder(rw).Encode(Envelope{
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
