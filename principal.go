package viewsync

import (
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/hrdesk/viewsync/internal/utils"
	"github.com/hrdesk/viewsync/unixtime"
)

const fingerprintLength = 16

// Principal is the credential requests are made with
type Principal struct {
	Token string
}

// IsZero reports whether p carries no credential
func (p Principal) IsZero() bool {
	return p.Token == ""
}

// Fingerprint identifies the principal without revealing the token. Cached
// results are scoped by it.
func (p Principal) Fingerprint() string {
	if p.IsZero() {
		return ""
	}
	return utils.Fingerprint([]byte(p.Token), fingerprintLength)
}

func (p Principal) claims() (jwt.Token, bool) {
	if p.IsZero() {
		return nil, false
	}
	// the backend verifies the token; locally it is only inspected
	tok, err := jwt.ParseInsecure([]byte(p.Token))
	if err != nil {
		return nil, false
	}
	return tok, true
}

// Subject returns the unverified "sub" claim; empty for opaque tokens.
func (p Principal) Subject() string {
	tok, ok := p.claims()
	if !ok {
		return ""
	}
	sub, _ := tok.Subject()
	return sub
}

// Expired reports whether the token is a JWT whose "exp" claim lies in the
// past. Opaque tokens never expire locally.
func (p Principal) Expired() bool {
	tok, ok := p.claims()
	if !ok {
		return false
	}
	exp, ok := tok.Expiration()
	if !ok {
		return false
	}
	return unixtime.Unixtime{Time: exp}.Expired(0)
}
