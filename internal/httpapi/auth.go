package httpapi

import (
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"smartshelfx/backend/internal/domain"
)

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
}

type inventoryClaims struct {
	jwtlib.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"`
	WarehouseID *int64 `json:"warehouse_id,omitempty"`
}

func NewAuthManager(secret string, tokenTTL time.Duration) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Issue signs an access token for an authenticated user. Credential checks
// happen in the service layer before this is called.
func (a *AuthManager) Issue(user domain.User) (string, int64, error) {
	now := time.Now().UTC()
	claims := inventoryClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(a.tokenTTL)),
			Issuer:    "smartshelfx",
		},
		Email:       user.Email,
		Role:        user.Role,
		WarehouseID: user.WarehouseID,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(a.tokenTTL.Seconds()), nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &inventoryClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return domain.Actor{}, errors.New("invalid token subject")
	}

	return domain.Actor{
		UserID:      userID,
		Email:       claims.Email,
		Role:        claims.Role,
		WarehouseID: claims.WarehouseID,
	}, nil
}
