package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

var Module = fx.Provide(NewTokens)

// Cookies left behind by older sessions; logout clears them too.
var legacyCookies = []string{"csrftoken", "sessionid", "messages"}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies the HS256 access tokens handed out on login.
type Tokens struct {
	secret        []byte
	ttl           time.Duration
	cookie        string
	refreshCookie string
	secure        bool
	now           func() time.Time
}

func NewTokens(cfg *config.Config) *Tokens {
	return &Tokens{
		secret:        []byte(cfg.JWTSecret),
		ttl:           cfg.JWTTTL,
		cookie:        cfg.AuthCookie,
		refreshCookie: cfg.RefreshCookie,
		secure:        cfg.CookieSecure,
		now:           time.Now,
	}
}

func (t *Tokens) Issue(userID uint64, username string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Verify returns the user id carried by a valid token.
func (t *Tokens) Verify(token string) (uint64, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return 0, models.ErrUnauthorized.WithCause(err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, models.ErrUnauthorized
	}
	return id, nil
}

// FromRequest reads the token from the auth cookie, falling back to a
// Bearer authorization header.
func (t *Tokens) FromRequest(r *http.Request) string {
	if c, err := r.Cookie(t.cookie); err == nil && c.Value != "" {
		return c.Value
	}
	return FromHeader(r.Header.Get("Authorization"))
}

func FromHeader(v string) string {
	const prefix = "bearer "
	if len(v) > len(prefix) && strings.ToLower(v[:len(prefix)]) == prefix {
		return strings.TrimSpace(v[len(prefix):])
	}
	return ""
}

func (t *Tokens) Cookie(token string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     t.cookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookies unsets every cookie a session may have left in the browser.
func (t *Tokens) ExpiredCookies() []*http.Cookie {
	names := append([]string{t.cookie, t.refreshCookie}, legacyCookies...)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   t.secure,
		})
	}
	return cookies
}
