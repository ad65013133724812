package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of the session_token cookie.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	//has standard jwt fields: jti is the tracked session id, exp the expiry
	jwt.RegisteredClaims
}
