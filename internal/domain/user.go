package domain

import "time"

type User struct {
	ID                   string        `json:"id"`
	Email                string        `json:"email"`
	PasswordHash         string        `json:"-"`
	TosAcceptedAt        *time.Time    `json:"tos_accepted_at"`
	HasDismissedTutorial bool          `json:"has_dismissed_tutorial"`
	WedgeMatrices        []WedgeMatrix `json:"wedge_matrices,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// CanAccess indica si el usuario puede leer o modificar la matriz.
func CanAccess(user *User, matrix WedgeMatrix) bool {
	if user == nil || user.ID == "" {
		return false
	}
	return matrix.UserID == user.ID
}
