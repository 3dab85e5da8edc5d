package verifier

import (
	"context"
	"sync"
)

var (
	defaultOnce     sync.Once
	defaultVerifier *Verifier
)

// Default returns the process-wide Verifier built from DefaultConfig.
func Default() *Verifier {
	defaultOnce.Do(func() {
		v, err := New(DefaultConfig())
		if err != nil {
			// DefaultConfig always validates.
			panic(err)
		}
		defaultVerifier = v
	})
	return defaultVerifier
}

// Verify verifies token with the default Verifier.
func Verify(ctx context.Context, token string, opts ...Option) (Claims, error) {
	return Default().Verify(ctx, token, opts...)
}

// InvalidateCache drops the default Verifier's cached keys.
func InvalidateCache() {
	Default().InvalidateCache()
}
