package models

import "time"

// User представляет пользователя сервера синхронизации.
// Пароль хранится только в виде bcrypt-хеша.
type User struct {
	ID           string     `json:"id"`            // UUID пользователя
	Username     string     `json:"username"`      // уникальное имя пользователя
	PasswordHash string     `json:"-"`             // bcrypt-хеш пароля, наружу не отдаётся
	CreatedAt    time.Time  `json:"created_at"`    // время регистрации
	LastLogin    *time.Time `json:"last_login,omitempty"` // время последнего входа
}

// RefreshToken представляет refresh token в хранилище сервера
type RefreshToken struct {
	Token     string    `json:"token"`      // случайный токен (base64)
	UserID    string    `json:"user_id"`    // владелец токена
	ExpiresAt time.Time `json:"expires_at"` // срок действия
	CreatedAt time.Time `json:"created_at"` // время создания
}

// IsExpired проверяет, истёк ли срок действия токена
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
