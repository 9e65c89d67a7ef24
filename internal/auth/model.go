package auth

import "tutoring-service/internal/user"

type RegisterRequest struct {
	Name     string    `json:"name" validate:"required,max=100"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,max=72"`
	Photo    string    `json:"photo" validate:"omitempty,max=2048"`
	Role     user.Role `json:"role" validate:"omitempty,oneof=student tutor"`
}

type SocialLoginRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Photo string `json:"photo" validate:"omitempty,max=2048"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}
