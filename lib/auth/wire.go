package auth

import (
	"bytes"
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigFastest

// Envelope is the response wrapper used by every dashboard API endpoint.
// A response counts as failed when the transport status is non-2xx or
// Success is false, even if the transport itself succeeded.
type Envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeData unmarshals the envelope payload into v.
func (e *Envelope) DecodeData(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	return jsonAPI.Unmarshal(e.Data, v)
}

// TokenData is the token pair shape returned by login and refresh.
type TokenData struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// parseEnvelope normalizes a raw response into an envelope and the typed
// error, if the response counts as failed. The envelope is returned even
// for failed responses when it could be decoded, so callers can still
// inspect it.
func parseEnvelope(status int, body []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, newEmptyBodyError(status)
	}

	var env Envelope
	if err := jsonAPI.Unmarshal(body, &env); err != nil {
		return nil, newMalformedBodyError(status, body, err)
	}

	if status < 200 || status >= 300 || !env.Success {
		return &env, newHTTPError(status, body)
	}

	return &env, nil
}
