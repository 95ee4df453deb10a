package dto

import (
	"time"

	"github.com/peibanapp/peiban-api/internal/models"
)

// UserUpdateRequest describes the payload for updating a profile.
type UserUpdateRequest struct {
	Nickname  *string `json:"nickname" validate:"omitempty,min=1,max=64"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

// UserResponse is the serialized representation returned to API clients.
type UserResponse struct {
	ID        uint       `json:"id"`
	Phone     string     `json:"phone"`
	Nickname  string     `json:"nickname"`
	AvatarURL string     `json:"avatar_url"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Phone:     model.Phone,
		Nickname:  model.Nickname,
		AvatarURL: model.AvatarURL,
		Role:      model.Role,
		IsActive:  model.IsActive,
		LastLogin: model.LastLogin,
		CreatedAt: model.CreatedAt,
	}
}

// NewUserResponseSlice converts a slice of models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}

	return responses
}
