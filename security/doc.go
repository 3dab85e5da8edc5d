// Package security builds TLS settings for outbound connections to key
// discovery endpoints, such as a private certificate authority for an
// on-premises identity provider.
package security
