package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	NIP          string    `gorm:"column:nip;size:18;uniqueIndex;not null"`
	Nama         string    `gorm:"column:nama;not null"`
	Pangkat      string    `gorm:"column:pangkat"`
	Golongan     string    `gorm:"column:golongan"`
	Jabatan      string    `gorm:"column:jabatan"`
	Pendidikan   string    `gorm:"column:pendidikan"`
	Role         string    `gorm:"column:role;not null;default:employee"`
	Status       string    `gorm:"column:status;not null;default:active"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
