package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dynai/internal/predictor"
)

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) Predict(ctx context.Context, req predictor.Request) (*predictor.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*predictor.Response)
	return resp, args.Error(1)
}

// ofType matches any request with the given type.
func ofType(t predictor.RequestType) any {
	return mock.MatchedBy(func(req predictor.Request) bool { return req.Type == t })
}

func response(t *testing.T, body string) *predictor.Response {
	t.Helper()
	var resp predictor.Response
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return &resp
}

func noRetry() Options {
	return Options{RetryStrategy: &predictor.SimpleRetryStrategy{MaxAttempts: 10}}
}

// attached returns a session on a fresh mock predictor.
func attached(t *testing.T) (*Session, *mockPredictor) {
	t.Helper()
	p := new(mockPredictor)
	s, err := NewSessionManager(noRetry()).Attach(p)
	require.NoError(t, err)
	return s, p
}

// submit registers a message with a scripted id.
func submit(t *testing.T, s *Session, p *mockPredictor, id, text string) {
	t.Helper()
	p.On("Predict", mock.Anything, predictor.AddMessageRequest(text, DefaultSecurityGroup)).
		Return(response(t, `{"message_id":"`+id+`"}`), nil).Once()
	got, err := s.Submit(context.Background(), text)
	require.NoError(t, err)
	require.Equal(t, id, got)
}
