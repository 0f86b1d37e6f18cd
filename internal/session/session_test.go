package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, pairs ...[]byte) *Codec {
	t.Helper()
	if len(pairs) == 0 {
		pairs = [][]byte{[]byte("0123456789abcdef0123456789abcdef")}
	}
	c, err := New(Options{TTL: time.Hour, KeyPairs: pairs})
	require.NoError(t, err)
	return c
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoKeys)

	_, err = New(Options{KeyPairs: [][]byte{{}}})
	require.ErrorIs(t, err, ErrNoKeys)
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Options{KeyPairs: [][]byte{[]byte("key")}})
	require.NoError(t, err)
	require.Equal(t, DefaultName, c.Name())
	require.Equal(t, 30*24*time.Hour, c.TTL())
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Encode(7)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, ok := c.Decode(token)
	require.True(t, ok)
	require.Equal(t, int64(7), id)
}

func TestRoundTripEncrypted(t *testing.T) {
	c := newTestCodec(t, []byte("hash-key-hash-key"), []byte("0123456789abcdef"))

	token, err := c.Encode(99)
	require.NoError(t, err)

	id, ok := c.Decode(token)
	require.True(t, ok)
	require.Equal(t, int64(99), id)
}

func TestDecodeTampered(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Encode(7)
	require.NoError(t, err)

	b := []byte(token)
	b[len(b)/2] ^= 1
	_, ok := c.Decode(string(b))
	require.False(t, ok)
}

func TestDecodeExpired(t *testing.T) {
	c := newTestCodec(t)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	token, err := c.Encode(7)
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, ok := c.Decode(token)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Decode(token)
	require.False(t, ok)
}

func TestDecodeGarbage(t *testing.T) {
	c := newTestCodec(t)

	for _, token := range []string{"", "x", "not|a|token", "%%%"} {
		_, ok := c.Decode(token)
		require.False(t, ok, "token %q", token)
	}
}

func TestDecodeWrongKey(t *testing.T) {
	issuer := newTestCodec(t, []byte("issuer-key"))
	other := newTestCodec(t, []byte("other-key"))

	token, err := issuer.Encode(7)
	require.NoError(t, err)

	_, ok := other.Decode(token)
	require.False(t, ok)
}

func TestKeyRotation(t *testing.T) {
	old := newTestCodec(t, []byte("old-key"))
	rotated := newTestCodec(t, []byte("new-key"), nil, []byte("old-key"), nil)

	token, err := old.Encode(3)
	require.NoError(t, err)

	id, ok := rotated.Decode(token)
	require.True(t, ok)
	require.Equal(t, int64(3), id)
}

func TestCookies(t *testing.T) {
	c := newTestCodec(t)

	cookie := c.Cookie("token")
	require.Equal(t, DefaultName, cookie.Name)
	require.Equal(t, "token", cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, 3600, cookie.MaxAge)

	expired := c.ExpiredCookie()
	require.Equal(t, DefaultName, expired.Name)
	require.Empty(t, expired.Value)
	require.Negative(t, expired.MaxAge)
}

func TestFromRequest(t *testing.T) {
	c := newTestCodec(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, c.FromRequest(r))

	r.AddCookie(&http.Cookie{Name: DefaultName, Value: "abc"})
	require.Equal(t, "abc", c.FromRequest(r))
}
