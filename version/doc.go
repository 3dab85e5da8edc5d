// Package version reports build information for the azjwt binary.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/MarioArnt/azure-ad-jwt-lite/version.Version=1.2.0" ./cmd/azjwt
//
// Missing values fall back to the module build info recorded by the Go
// toolchain.
package version
