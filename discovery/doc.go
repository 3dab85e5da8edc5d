// Package discovery fetches an identity provider's published signing keys.
//
// A Client consults its key cache first, then issues a plain GET to the
// discovery URL. 5xx answers and transport failures are retried within a
// bounded budget; any other non-200 status or a malformed key set fails
// immediately. Every failure is returned as a *errors.VerificationError of
// kind ErrorFetchingKeys or InvalidDiscoveryResponse.
//
//	client := discovery.NewClient(discovery.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
//	keys, err := client.Fetch(ctx, discovery.Request{
//	    URL:        discovery.DefaultURL,
//	    MaxRetries: discovery.DefaultMaxRetries,
//	    UseCache:   true,
//	})
package discovery
