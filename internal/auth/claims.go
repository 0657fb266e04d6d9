package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Operator tokens guard the dialing API; webhook endpoints are
// authenticated by provider signature/obscurity, never by JWT.
type Claims struct {
	jwt.RegisteredClaims

	OperatorID string `json:"operator_id"`
}
