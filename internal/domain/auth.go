package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Издатели токенов. Портал выпускает сессионные токены после входа по паролю,
// tokend — кастомные токены для обмена на сессию дашборда. Валидатор сверяет
// issuer, чтобы сессионный токен нельзя было скормить дашборду и наоборот.
const (
	IssuerPortal = "sentinel-portal"
	IssuerTokend = "sentinel-tokend"
)

type CustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse отдается порталом после полного прохождения цепочки входа.
type LoginResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// TokenRequest — тело POST /generateToken.
type TokenRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// TokenResponse — ответ tokend.
type TokenResponse struct {
	Token string `json:"token"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Никогда не отправляем на фронт
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
