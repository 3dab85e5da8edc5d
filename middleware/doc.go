// Package middleware provides Gin handlers that authenticate requests with
// a verifier.Verifier.
//
//	r := gin.New()
//	r.Use(middleware.RequestID(), middleware.Auth(middleware.AuthConfig{
//	    Verifier: v,
//	    Options:  []verifier.Option{verifier.WithAudience("api://my-app")},
//	}))
//
// Rejected requests receive the errors.ErrorResponse JSON body with status
// 401 for token problems and 503 when keys cannot be obtained.
package middleware
