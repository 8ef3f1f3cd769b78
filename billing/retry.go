package billing

import (
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Operation is a single outbound call to the billing provider.
type Operation func() error

// RetryPolicy retries transient provider failures with exponential
// backoff. Sleep is replaceable on tests.
type RetryPolicy struct {
	MaxRetries        int
	BackoffBase       time.Duration
	TransientStatuses map[int]bool
	Sleep             func(time.Duration)
}

func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:  3,
		BackoffBase: time.Second,
		TransientStatuses: map[int]bool{
			http.StatusNotFound:            true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
		},
		Sleep: time.Sleep,
	}
}

// Retry runs fn, retrying transient statuses up to MaxRetries extra
// attempts with backoff BackoffBase * 2^attempt. Rate limit responses
// and non-transient statuses propagate on the first attempt. Exhausted
// retries surface as a TransientError carrying the total attempts.
func (p *RetryPolicy) Retry(op string, fn Operation) error {
	logCtx := log.WithFields(log.Fields{"operation": op})

	var lastErr *APIError
	attempts := 0
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		attempts++

		err := fn()
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return err
		}
		if apiErr.StatusCode == http.StatusTooManyRequests {
			// Rate limits are never retried here.
			return err
		}
		if !p.TransientStatuses[apiErr.StatusCode] {
			return err
		}

		lastErr = apiErr
		if attempt == p.MaxRetries {
			break
		}

		wait := p.BackoffBase * time.Duration(1<<uint(attempt))
		logCtx.WithFields(log.Fields{"status": apiErr.StatusCode,
			"attempt": attempts, "wait": wait.String()}).
			Warn("Transient error from billing provider. Retrying.")
		p.Sleep(wait)
	}

	return &TransientError{StatusCode: lastErr.StatusCode, Attempts: attempts, Err: lastErr}
}

// HandleRateLimit converts a 429 from the provider into a
// RateLimitError after exactly one attempt.
func HandleRateLimit(op string, fn Operation) error {
	err := fn()
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		rlErr := &RateLimitError{RetryAfter: apiErr.RetryAfter, LimitType: apiErr.LimitType}
		log.WithFields(log.Fields{"operation": op, "retry_after": rlErr.RetryAfter,
			"limit_type": rlErr.LimitType}).Warn("Rate limited by billing provider.")
		return rlErr
	}

	return err
}

// Guarded composes rate limit handling outside the retry loop, so a
// 429 fails fast while transient statuses are retried.
func (p *RetryPolicy) Guarded(op string, fn Operation) error {
	return HandleRateLimit(op, func() error {
		return p.Retry(op, fn)
	})
}
