package user

import (
	"strings"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/core/common/validation"
)

// CreateUserDTO is the admin form for a new account.
type CreateUserDTO struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	NIP        string `json:"nip"`
	Nama       string `json:"nama"`
	Pangkat    string `json:"pangkat"`
	Golongan   string `json:"golongan"`
	Jabatan    string `json:"jabatan"`
	Pendidikan string `json:"pendidikan"`
	Role       string `json:"role"`
	Status     string `json:"status"`
}

// RegisterDTO is the self-registration form. Role is not accepted from clients.
type RegisterDTO struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	NIP        string `json:"nip"`
	Nama       string `json:"nama"`
	Pangkat    string `json:"pangkat"`
	Golongan   string `json:"golongan"`
	Jabatan    string `json:"jabatan"`
	Pendidikan string `json:"pendidikan"`
}

// UpdateUserDTO carries a partial update; nil fields are left untouched.
// NIP is accepted only so that a changed value can be rejected explicitly.
type UpdateUserDTO struct {
	NIP        *string `json:"nip,omitempty"`
	Nama       *string `json:"nama,omitempty"`
	Pangkat    *string `json:"pangkat,omitempty"`
	Golongan   *string `json:"golongan,omitempty"`
	Jabatan    *string `json:"jabatan,omitempty"`
	Pendidikan *string `json:"pendidikan,omitempty"`
	Role       *string `json:"role,omitempty"`
	Status     *string `json:"status,omitempty"`
	Password   *string `json:"password,omitempty"`
}

type ListFilter struct {
	Role   string
	Status string
	Search string
}

type UsersResponse struct {
	Users []*User `json:"users"`
	Total int     `json:"total"`
}

func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.NIP = strings.TrimSpace(d.NIP)
	d.Nama = strings.TrimSpace(d.Nama)
	if d.Role == "" {
		d.Role = string(auth.RoleEmployee)
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
}

func (d CreateUserDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MinLength(3).MaxLength(50)
	v.Field("password", d.Password).Required().MinLength(6).MaxLength(72)
	v.Field("nip", d.NIP).Required().DigitsOfLength(NIPLength, internal.ErrCodeInvalidNIP)
	v.Field("nama", d.Nama).Required().MaxLength(255)
	v.Field("role", d.Role).Required().OneOf(auth.RoleNames(), internal.ErrCodeInvalidRole)
	v.Field("status", d.Status).Required().OneOf([]string{StatusActive, StatusInactive}, internal.ErrCodeInvalidStatus)
	return v.Validate()
}

// AsCreate maps a registration onto an employee account creation.
func (d RegisterDTO) AsCreate() CreateUserDTO {
	c := CreateUserDTO{
		Username:   d.Username,
		Password:   d.Password,
		NIP:        d.NIP,
		Nama:       d.Nama,
		Pangkat:    d.Pangkat,
		Golongan:   d.Golongan,
		Jabatan:    d.Jabatan,
		Pendidikan: d.Pendidikan,
		Role:       string(auth.RoleEmployee),
		Status:     StatusActive,
	}
	c.Normalize()
	return c
}

func (d UpdateUserDTO) Validate(current *User) *internal.AppError {
	v := validation.NewValidator()
	if d.NIP != nil {
		v.Field("nip", *d.NIP).Custom(func(value interface{}) *internal.AppError {
			if strings.TrimSpace(value.(string)) != current.NIP {
				return internal.NewValidationFieldError("nip", "nip cannot be changed after creation", internal.ErrCodeImmutableField)
			}
			return nil
		})
	}
	if d.Nama != nil {
		v.Field("nama", *d.Nama).Required().MaxLength(255)
	}
	if d.Role != nil {
		v.Field("role", *d.Role).Required().OneOf(auth.RoleNames(), internal.ErrCodeInvalidRole)
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf([]string{StatusActive, StatusInactive}, internal.ErrCodeInvalidStatus)
	}
	if d.Password != nil {
		v.Field("password", *d.Password).Required().MinLength(6).MaxLength(72)
	}
	return v.Validate()
}

// Apply copies the provided fields onto u. Password is handled by the service.
func (d UpdateUserDTO) Apply(u *User) {
	if d.Nama != nil {
		u.Nama = strings.TrimSpace(*d.Nama)
	}
	if d.Pangkat != nil {
		u.Pangkat = *d.Pangkat
	}
	if d.Golongan != nil {
		u.Golongan = *d.Golongan
	}
	if d.Jabatan != nil {
		u.Jabatan = *d.Jabatan
	}
	if d.Pendidikan != nil {
		u.Pendidikan = *d.Pendidikan
	}
	if d.Role != nil {
		u.Role = auth.Role(*d.Role)
	}
	if d.Status != nil {
		u.Status = *d.Status
	}
}
