package predictor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxAttempts is the submission attempt bound.
const DefaultMaxAttempts = 10

// RetryStrategy decides whether and how long to wait before another attempt.
type RetryStrategy interface {
	// NextBackoff is called after the attempt-th failed attempt (1-based). A
	// negative result stops retrying.
	NextBackoff(attempt int) time.Duration
}

// SimpleRetryStrategy provides bounded attempts with exponential backoff.
// A zero BaseDelay retries immediately.
type SimpleRetryStrategy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryStrategy retries up to DefaultMaxAttempts times with a short
// exponential backoff.
func DefaultRetryStrategy() *SimpleRetryStrategy {
	return &SimpleRetryStrategy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// NextBackoff calculates the wait after the attempt-th failure.
func (s *SimpleRetryStrategy) NextBackoff(attempt int) time.Duration {
	if attempt >= s.MaxAttempts {
		return -1
	}
	if s.BaseDelay <= 0 {
		return 0
	}
	backoff := s.BaseDelay << (attempt - 1)
	if backoff <= 0 || (s.MaxDelay > 0 && backoff > s.MaxDelay) {
		backoff = s.MaxDelay
	}
	return backoff
}

// Executor wraps a Predictor with bounded retry. It is used for submission
// only; other calls go to the Predictor directly.
type Executor struct {
	predictor Predictor
	strategy  RetryStrategy
}

func NewExecutor(p Predictor, strategy RetryStrategy) *Executor {
	if strategy == nil {
		strategy = DefaultRetryStrategy()
	}
	return &Executor{predictor: p, strategy: strategy}
}

// Execute sends req until it succeeds or the strategy gives up. The last
// attempt's error is returned unchanged.
func (e *Executor) Execute(ctx context.Context, req Request) (*Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := e.predictor.Predict(ctx, req)
		if err == nil {
			return resp, nil
		}

		backoff := e.strategy.NextBackoff(attempt)
		if backoff < 0 {
			log.Warnf("%s failed after %d attempts: %v", req.Type, attempt, err)
			return nil, err
		}
		log.Debugf("%s attempt %d failed, retrying in %s: %v", req.Type, attempt, backoff, err)

		if backoff == 0 {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
