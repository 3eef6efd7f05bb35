package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"planner/internal/domain/entity"
)

// cookieCodec signs session ids so a client cannot present an id it was not issued.
type cookieCodec struct {
	secret []byte
}

func (cc cookieCodec) sign(id string) []byte {
	mac := hmac.New(sha256.New, cc.secret)
	mac.Write([]byte(id))

	return mac.Sum(nil)
}

func (cc cookieCodec) encode(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(cc.sign(id))
}

func (cc cookieCodec) decode(value string) (string, bool) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 || idx == len(value)-1 {
		return "", false
	}

	id, encoded := value[:idx], value[idx+1:]
	sig, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}

	if !hmac.Equal(sig, cc.sign(id)) {
		return "", false
	}

	return id, true
}

func (a *sessionAdapter) sessionCookie(sess *entity.Session, now time.Time) *http.Cookie {
	maxAge := int(sess.ExpiresAt.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	return &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    a.codec.encode(sess.ID),
		Path:     "/",
		Expires:  sess.ExpiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.cfg.Secure,
		SameSite: a.cfg.SameSite,
	}
}

func (a *sessionAdapter) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.Secure,
		SameSite: a.cfg.SameSite,
	}
}
