package user

import (
	"errors"
	"time"

	"github.com/frahmantamala/training-records/internal/auth"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	// NIPLength is the length of the civil-servant identification number.
	NIPLength = 18
)

// User represents the internal user model
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose password hash
	NIP          string    `json:"nip"`
	Nama         string    `json:"nama"`
	Pangkat      string    `json:"pangkat"`
	Golongan     string    `json:"golongan"`
	Jabatan      string    `json:"jabatan"`
	Pendidikan   string    `json:"pendidikan"`
	Role         auth.Role `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

// IsMonitored reports whether the user counts towards training statistics.
func (u *User) IsMonitored() bool {
	return u.IsActive() && u.Role == auth.RoleEmployee
}

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate reports a username or NIP already held by another user.
	ErrDuplicate = errors.New("user already exists")
)

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		NIP:          u.NIP,
		Nama:         u.Nama,
		Pangkat:      u.Pangkat,
		Golongan:     u.Golongan,
		Jabatan:      u.Jabatan,
		Pendidikan:   u.Pendidikan,
		Role:         string(u.Role),
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		NIP:          u.NIP,
		Nama:         u.Nama,
		Pangkat:      u.Pangkat,
		Golongan:     u.Golongan,
		Jabatan:      u.Jabatan,
		Pendidikan:   u.Pendidikan,
		Role:         auth.Role(u.Role),
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}
