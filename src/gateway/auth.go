package gateway

import (
	"errors"
	"strings"
	"time"

	"github.com/warp-contracts/vault/src/vault"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
)

const callerKey = "caller"

var ErrMissingToken = errors.New("missing bearer token")

// IssueToken signs a token naming the account as the caller
func IssueToken(secret string, account vault.Account, ttl time.Duration) (string, error) {
	token := jwt.New()
	now := time.Now()

	for k, v := range map[string]interface{}{
		jwt.SubjectKey:  account.Hex(),
		jwt.IssuedAtKey: now,
	} {
		err := token.Set(k, v)
		if err != nil {
			return "", err
		}
	}

	if ttl != 0 {
		err := token.Set(jwt.ExpirationKey, now.Add(ttl))
		if err != nil {
			return "", err
		}
	}

	signed, err := jwt.Sign(token, jwa.HS256, []byte(secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Verifies the token and returns the caller it names
func ParseToken(secret, header string) (account vault.Account, err error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		err = ErrMissingToken
		return
	}

	token, err := jwt.Parse([]byte(raw),
		jwt.WithVerify(jwa.HS256, []byte(secret)),
		jwt.WithValidate(true),
	)
	if err != nil {
		return
	}

	return vault.ParseAccount(token.Subject())
}
