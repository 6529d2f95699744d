package predictor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPPredictor_Predict(t *testing.T) {
	var gotBody map[string]any
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message_id":"m1"}`))
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, 5*time.Second, map[string]string{"X-Api-Key": "secret"})
	defer p.Close()

	resp, err := p.Predict(context.Background(), AddMessageRequest("hello", "default"))
	require.NoError(t, err)

	assert.Equal(t, "m1", resp.AssignedMessageID())
	assert.Equal(t, "addMessage", gotBody["type"])
	assert.Equal(t, "hello", gotBody["message"])
	assert.Equal(t, "default", gotBody["security_group"])
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "secret", gotHeaders.Get("X-Api-Key"))
	assert.NotEmpty(t, gotHeaders.Get("X-Request-Id"))
}

func TestHTTPPredictor_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	_, err := NewHTTPPredictor(srv.URL, time.Second, nil).Predict(context.Background(), IsReadyRequest())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "slow down", statusErr.Body)
	assert.True(t, statusErr.Throttled())
}

func TestHTTPPredictor_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPPredictor(srv.URL, time.Second, nil).Predict(context.Background(), IsReadyRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse isReady response")
}

func TestHTTPPredictor_RetriedThroughExecutor(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"message_id":"m7"}`))
	}))
	defer srv.Close()

	exec := NewExecutor(NewHTTPPredictor(srv.URL, time.Second, nil), &SimpleRetryStrategy{MaxAttempts: 10})
	resp, err := exec.Execute(context.Background(), AddMessageRequest("hi", "default"))

	require.NoError(t, err)
	assert.Equal(t, "m7", resp.AssignedMessageID())
	assert.Equal(t, 3, calls)
}
