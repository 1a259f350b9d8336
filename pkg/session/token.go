package session

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info describes what can be read from a JWT without verifying it.
type Info struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// TokenInfo decodes token as a JWT. Opaque tokens return ok=false.
func TokenInfo(token string) (Info, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Info{}, false
	}

	var info Info
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if username, ok := claims["username"].(string); ok {
		info.Username = username
	}
	if info.Subject == "" {
		// simplejwt puts the primary key in user_id
		switch id := claims["user_id"].(type) {
		case string:
			info.Subject = id
		case float64:
			info.Subject = strconv.FormatInt(int64(id), 10)
		}
	}
	return info, true
}
