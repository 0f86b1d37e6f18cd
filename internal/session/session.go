// Package session encodes user identities into signed cookie values.
//
// Sessions are stateless: the cookie is the session. Logging out only
// clears the client's cookie, so a copied token stays valid until it
// expires.
package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

// DefaultName is the cookie name used when Options.Name is empty.
const DefaultName = "twitter_session"

// ErrNoKeys is returned when a Codec is built without a hash key.
var ErrNoKeys = errors.New("session: at least one hash key is required")

// Options configures a Codec.
type Options struct {
	Name   string
	TTL    time.Duration
	Secure bool
	// KeyPairs alternates hash and block keys, as securecookie.CodecsFromPairs
	// expects. The first pair encodes; every pair is tried on decode.
	KeyPairs [][]byte
}

type payload struct {
	UserID    int64 `json:"uid"`
	ExpiresAt int64 `json:"exp"`
}

// Codec turns user ids into cookie tokens and back.
type Codec struct {
	name   string
	ttl    time.Duration
	secure bool
	codecs []securecookie.Codec
	now    func() time.Time
}

// New builds a Codec from opts.
func New(opts Options) (*Codec, error) {
	if len(opts.KeyPairs) == 0 || len(opts.KeyPairs[0]) == 0 {
		return nil, ErrNoKeys
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}

	codecs := securecookie.CodecsFromPairs(opts.KeyPairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(int(opts.TTL.Seconds()))
			sc.SetSerializer(securecookie.JSONEncoder{})
		}
	}

	return &Codec{
		name:   opts.Name,
		ttl:    opts.TTL,
		secure: opts.Secure,
		codecs: codecs,
		now:    time.Now,
	}, nil
}

// SetClock replaces the time source used for expiry.
func (c *Codec) SetClock(now func() time.Time) {
	c.now = now
}

// Name returns the cookie name.
func (c *Codec) Name() string {
	return c.name
}

// TTL returns how long issued tokens stay valid.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode returns a signed token carrying userID and an expiry.
func (c *Codec) Encode(userID int64) (string, error) {
	p := payload{UserID: userID, ExpiresAt: c.now().Add(c.ttl).Unix()}
	token, err := securecookie.EncodeMulti(c.name, p, c.codecs...)
	if err != nil {
		return "", errors.Wrap(err, "encoding session failed")
	}
	return token, nil
}

// Decode returns the user id carried by token. Missing, malformed, tampered
// and expired tokens all report ok == false.
func (c *Codec) Decode(token string) (userID int64, ok bool) {
	if token == "" {
		return 0, false
	}
	var p payload
	if err := securecookie.DecodeMulti(c.name, token, &p, c.codecs...); err != nil {
		return 0, false
	}
	if p.UserID <= 0 || c.now().Unix() >= p.ExpiresAt {
		return 0, false
	}
	return p.UserID, true
}

// FromRequest returns the raw session token on r, or "".
func (c *Codec) FromRequest(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Cookie wraps token in an HTTP-only session cookie.
func (c *Codec) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		Expires:  c.now().Add(c.ttl),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie returns a cookie that makes the client drop its session.
func (c *Codec) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(1, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
