package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/potionkit/forecast-api/internal/sms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRelayBody() map[string]any {
	return map[string]any{
		"apikey":     "relay-secret",
		"number":     "09170000001",
		"message":    "brew finished",
		"sendername": "POTIONKIT",
	}
}

func TestRelaySMS(t *testing.T) {
	h, _, r := newTestHandler(t)

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	h.sms = sms.NewClient(srv.URL, "gw-secret")

	w := postJSON(r, "/sms-semaphore/", validRelayBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])

	// the relay swaps the shared secret for the gateway credential
	assert.Equal(t, "gw-secret", got["apikey"])
	assert.Equal(t, "09170000001", got["number"])
}

func TestRelaySMSRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr string
	}{
		{
			name:    "wrong api key",
			mutate:  func(b map[string]any) { b["apikey"] = "nope" },
			wantErr: "Invalid API key",
		},
		{
			name:    "missing api key",
			mutate:  func(b map[string]any) { delete(b, "apikey") },
			wantErr: "Invalid API key",
		},
		{
			name:    "missing message",
			mutate:  func(b map[string]any) { delete(b, "message") },
			wantErr: "Invalid SMS message",
		},
		{
			name:    "missing number",
			mutate:  func(b map[string]any) { delete(b, "number") },
			wantErr: "Invalid receiver number",
		},
		{
			name:    "missing sender name",
			mutate:  func(b map[string]any) { delete(b, "sendername") },
			wantErr: "Invalid sender id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, r := newTestHandler(t)

			body := validRelayBody()
			tt.mutate(body)
			w := postJSON(r, "/sms-semaphore/", body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp["error"])
		})
	}
}

func TestRelaySMSNoSecretConfigured(t *testing.T) {
	h, _, r := newTestHandler(t)
	h.cfg.SMS.APIKey = ""

	// an unset shared secret rejects every caller, even an empty key
	body := validRelayBody()
	body["apikey"] = ""
	w := postJSON(r, "/sms-semaphore/", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRelaySMSGatewayFailure(t *testing.T) {
	h, _, r := newTestHandler(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "out of credits", http.StatusPaymentRequired)
	}))
	defer srv.Close()
	h.sms = sms.NewClient(srv.URL, "gw-secret")

	w := postJSON(r, "/sms-semaphore/", validRelayBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "rejected")
}
