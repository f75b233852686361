package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// tokenTTL is how long an issued token remains valid.
	tokenTTL = 7 * 24 * time.Hour
	// tokenNotBefore delays token validity slightly past issue time so a
	// token observed before its own login response completes is rejected.
	tokenNotBefore = 2 * time.Second
)

// ErrNotAuthorized is returned when a token is missing, malformed, expired,
// or presented by someone other than its owner.
var ErrNotAuthorized = errors.New("not authorized")

// AuthorizationToken pairs a signed JWT with the display name presenting it.
type AuthorizationToken struct {
	Token     string `json:"token"`
	Presenter string `json:"presenter"`
}

// Issuer signs and verifies account bearer tokens with an HMAC key.
type Issuer struct {
	key []byte
	now func() time.Time
}

// NewIssuer creates an Issuer using the given signing key.
func NewIssuer(key []byte) *Issuer {
	return &Issuer{key: key, now: time.Now}
}

// Issue creates a signed token owned by the given display name.
func (i *Issuer) Issue(owner string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"username": owner,
		"exp":      now.Add(tokenTTL).Unix(),
		"nbf":      now.Add(tokenNotBefore).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses the presented token and checks that its username claim matches
// the presenter. All failure modes collapse into ErrNotAuthorized so the
// response does not leak why verification failed.
func (i *Issuer) Verify(t AuthorizationToken) error {
	parsed, err := jwt.Parse(t.Token,
		func(*jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return errors.Wrap(ErrNotAuthorized, "invalid token presented")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return errors.Wrap(ErrNotAuthorized, "invalid token presented")
	}
	// exp is enforced above; nbf is validated when present, but the claim set
	// itself must carry both alongside the owner.
	for _, required := range []string{"username", "exp", "nbf"} {
		if _, ok := claims[required]; !ok {
			return errors.Wrap(ErrNotAuthorized, "invalid token presented")
		}
	}

	owner, _ := claims["username"].(string)
	if owner == "" || owner != t.Presenter {
		return errors.Wrap(ErrNotAuthorized, "cannot verify ownership of token")
	}
	return nil
}
