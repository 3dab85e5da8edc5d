package verifier

import "time"

// Claims is the verified token payload.
type Claims map[string]interface{}

// String returns a string claim, or "".
func (c Claims) String(key string) string {
	v, _ := c[key].(string)
	return v
}

// Subject returns the "sub" claim.
func (c Claims) Subject() string { return c.String("sub") }

// Issuer returns the "iss" claim.
func (c Claims) Issuer() string { return c.String("iss") }

// TenantID returns the "tid" claim.
func (c Claims) TenantID() string { return c.String("tid") }

// ObjectID returns the "oid" claim.
func (c Claims) ObjectID() string { return c.String("oid") }

// Audience returns the "aud" claim as a list.
func (c Claims) Audience() []string {
	switch v := c["aud"].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ExpiresAt returns the "exp" claim.
func (c Claims) ExpiresAt() (time.Time, bool) {
	return c.time("exp")
}

// IssuedAt returns the "iat" claim.
func (c Claims) IssuedAt() (time.Time, bool) {
	return c.time("iat")
}

func (c Claims) time(key string) (time.Time, bool) {
	switch v := c[key].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	}
	return time.Time{}, false
}
