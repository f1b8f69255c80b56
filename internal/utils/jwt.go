package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrTokenExpired means the signature checked out but the token is past
	// its expiry; some flows react to this by re-issuing.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is terminal: bad signature, malformed, or wrong claims.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenClaims carries the account id. Access, refresh, verification and
// reset tokens share this shape but are signed with different secrets.
type TokenClaims struct {
	UserID primitive.ObjectID `json:"id"`
	jwt.RegisteredClaims
}

func SignToken(userID primitive.ObjectID, secret string, ttl time.Duration) (string, error) {
	claims := &TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    AppName,
			Subject:   userID.Hex(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken checks signature and expiry and returns the embedded account
// id. Expiry and any other failure are distinguished so callers can route
// expired tokens to a re-issuance path.
func VerifyToken(tokenString, secret string) (primitive.ObjectID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, ErrTokenExpired
		}
		return primitive.NilObjectID, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return primitive.NilObjectID, ErrTokenInvalid
	}

	return claims.UserID, nil
}

// DecodeTokenUnverified extracts the account id without checking the
// signature. Only used after VerifyToken reported expiry, to find the
// account a fresh token should be issued for.
func DecodeTokenUnverified(tokenString string) (primitive.ObjectID, error) {
	claims := &TokenClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return primitive.NilObjectID, ErrTokenInvalid
	}

	if claims.UserID.IsZero() {
		return primitive.NilObjectID, ErrTokenInvalid
	}

	return claims.UserID, nil
}
