package verifier

import (
	"encoding/json"
	stderrors "errors"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/MarioArnt/azure-ad-jwt-lite/errors"
)

// headerKeyID is the decoded "kid" header. A present value that is not a
// string is kept in its JSON form and never matches a published key.
type headerKeyID struct {
	value string
	text  bool
}

// keyIDFromHeader decodes the token header without checking the signature
// and returns its "kid". Missing, null, empty, false and zero count as absent.
func keyIDFromHeader(token string) (headerKeyID, error) {
	parsed, _, err := gojwt.NewParser().ParseUnverified(token, gojwt.MapClaims{})
	if err != nil && !stderrors.Is(err, gojwt.ErrTokenUnverifiable) {
		return headerKeyID{}, errors.TokenNotDecoded(err)
	}
	if parsed == nil || parsed.Header == nil {
		return headerKeyID{}, errors.TokenNotDecoded(err)
	}

	switch v := parsed.Header["kid"].(type) {
	case nil:
		return headerKeyID{}, errors.MissingKeyID()
	case string:
		if v == "" {
			return headerKeyID{}, errors.MissingKeyID()
		}
		return headerKeyID{value: v, text: true}, nil
	case bool:
		if !v {
			return headerKeyID{}, errors.MissingKeyID()
		}
	case float64:
		if v == 0 {
			return headerKeyID{}, errors.MissingKeyID()
		}
	}
	raw, err := json.Marshal(parsed.Header["kid"])
	if err != nil {
		return headerKeyID{}, errors.TokenNotDecoded(err)
	}
	return headerKeyID{value: string(raw)}, nil
}
