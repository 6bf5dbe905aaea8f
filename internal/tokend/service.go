package tokend

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/sentinel-console/internal/domain"
)

// Issuer выпускает кастомные токены: короткоживущие подписанные
// креденшелы, которые дашборд обменивает на сессию.
type Issuer struct {
	privateKey *rsa.PrivateKey
	ttl        time.Duration
}

func NewIssuer(privateKey *rsa.PrivateKey, ttl time.Duration) *Issuer {
	return &Issuer{
		privateKey: privateKey,
		ttl:        ttl,
	}
}

// Mint формирует и подписывает кастомный токен (RS256).
func (s *Issuer) Mint(uid, email string) (string, error) {
	now := time.Now()
	claims := &domain.CustomClaims{
		UserID: uid,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    domain.IssuerTokend,
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}
