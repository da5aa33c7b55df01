package admin

import (
	"time"

	"github.com/icpschool/schoolpay/core/student"
)

// Profile is an admin's directory profile. Credentials live with the external
// identity provider; only the profile data consulted by the app is kept here.
type Profile struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	LastSelection *student.Selection `json:"lastSelection,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"` // UTC
	UpdatedAt     time.Time          `json:"updatedAt"` // UTC
}
