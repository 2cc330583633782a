package dto

import (
	"time"

	"usermgmt/internal/entity"
)

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"omitempty,max=255"`
	LastName  string `json:"last_name" validate:"omitempty,max=255"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	OTPCode  string `json:"otp_code" validate:"omitempty,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type MFACodeRequest struct {
	Code string `json:"code" validate:"required,numeric"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SignInResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type MFAEnableResponse struct {
	ProvisioningURL string `json:"provisioning_url"`
}

type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Active      bool       `json:"active"`
	Roles       []string   `json:"roles"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		Active:      user.Active,
		Roles:       user.RoleNames(),
		ConfirmedAt: user.ConfirmedAt,
		CreatedAt:   user.CreatedAt,
	}
}

func UserResponsesFromEntities(users []entity.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, UserResponseFromEntity(&users[i]))
	}
	return responses
}
