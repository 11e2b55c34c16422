package common

import "fmt"

// JWTVerifier adapts token validation to the realtime channel's
// authentication handshake.
type JWTVerifier struct{}

func NewJWTVerifier() JWTVerifier {
	return JWTVerifier{}
}

func (JWTVerifier) Verify(token string) (string, error) {
	claims, err := ValidToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if claims.UserID == "" {
		return "", ErrAuthFailed
	}
	return claims.UserID, nil
}
