package auth

import (
	"github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/core/common/validation"
	"github.com/frahmantamala/storeadmin/internal/core/user"
)

// LoginDTO is the login request body. Username may hold either the username
// or the email address.
type LoginDTO struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse wraps a successful login or refresh.
type LoginResponse struct {
	Success bool      `json:"success"`
	Data    LoginData `json:"data"`
}

type LoginData struct {
	User         *user.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(255)
	v.Field("password", d.Password).Required()
	return v.Validate()
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("refreshToken", d.RefreshToken).Required()
	return v.Validate()
}

func NewLoginResponse(result *LoginResult) LoginResponse {
	return LoginResponse{
		Success: true,
		Data: LoginData{
			User:         result.User,
			Token:        result.Token,
			RefreshToken: result.RefreshToken,
		},
	}
}
