// Package resilience provides the bounded retry loop used when talking to
// the key discovery endpoint.
//
//	keys, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 3,
//	    RetryIf:     isTransient,
//	}, func(attempt int) (*keyset.KeySet, error) {
//	    return fetchOnce(ctx)
//	})
package resilience
