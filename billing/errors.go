package billing

import "fmt"

// APIError is a non-2xx response from the billing provider. The client
// fills RetryAfter and LimitType from the rate limit headers when the
// status is 429.
type APIError struct {
	StatusCode int
	RetryAfter int
	LimitType  string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billing provider returned status %d: %s", e.StatusCode, e.Body)
}

// RateLimitError - The provider returned 429. The call fails fast and
// the caller decides when to try again.
type RateLimitError struct {
	RetryAfter int
	LimitType  string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by billing provider, retry after %d seconds", e.RetryAfter)
	}
	return "rate limited by billing provider, try again in a few moments"
}

// TransientError - A retryable status survived all retry attempts.
type TransientError struct {
	StatusCode int
	Attempts   int
	Err        error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("billing provider request failed with status %d after %d attempts: %v",
		e.StatusCode, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// BillingDetailUpdateError wraps failures while syncing contact
// details to the provider.
type BillingDetailUpdateError struct {
	Err error
}

func (e *BillingDetailUpdateError) Error() string {
	return fmt.Sprintf("failed to update billing details: %v", e.Err)
}

func (e *BillingDetailUpdateError) Unwrap() error {
	return e.Err
}

// BillingInvoiceError wraps failures while creating an invoice on the
// provider.
type BillingInvoiceError struct {
	Err error
}

func (e *BillingInvoiceError) Error() string {
	return fmt.Sprintf("failed to create invoice: %v", e.Err)
}

func (e *BillingInvoiceError) Unwrap() error {
	return e.Err
}

// SettingNotConfiguredError - A required billing setting is missing.
// Raised at point of use, not at startup.
type SettingNotConfiguredError struct {
	Setting string
}

func (e *SettingNotConfiguredError) Error() string {
	return fmt.Sprintf("required billing setting %s is not configured", e.Setting)
}
