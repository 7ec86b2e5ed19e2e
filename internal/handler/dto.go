package handler

import (
	"time"

	"github.com/cycleconnect/server/internal/domain"
)

// UserDTO is the JSON representation of a user's own profile.
type UserDTO struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	UpiID       string `json:"upiId"`
	Avatar      string `json:"avatar,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		UpiID:       u.UpiID,
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

// OwnerDTO is the owner profile embedded in a cycle. Contact and payment
// fields are omitted when empty, so a summary projection never serializes
// them.
type OwnerDTO struct {
	ID          int64  `json:"id"`
	FullName    string `json:"fullName"`
	Avatar      string `json:"avatar,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
	UpiID       string `json:"upiId,omitempty"`
}

// CycleDTO is the JSON representation of a cycle listing.
type CycleDTO struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Model     string    `json:"model"`
	CycleType string    `json:"cycleType"`
	Landmark  string    `json:"landmark"`
	Image     string    `json:"image"`
	IsActive  bool      `json:"isActive"`
	Owner     *OwnerDTO `json:"owner,omitempty"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

func toCycleDTO(c *domain.Cycle) CycleDTO {
	dto := CycleDTO{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Model:     c.Model,
		CycleType: c.CycleType,
		Landmark:  c.Landmark,
		Image:     c.ImageURL,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	if c.Owner != nil {
		dto.Owner = &OwnerDTO{
			ID:          c.Owner.ID,
			FullName:    c.Owner.FullName,
			Avatar:      c.Owner.Avatar,
			PhoneNumber: c.Owner.PhoneNumber,
			Email:       c.Owner.Email,
			UpiID:       c.Owner.UpiID,
		}
	}
	return dto
}

func toCycleDTOs(cycles []domain.Cycle) []CycleDTO {
	dtos := make([]CycleDTO, len(cycles))
	for i := range cycles {
		dtos[i] = toCycleDTO(&cycles[i])
	}
	return dtos
}
