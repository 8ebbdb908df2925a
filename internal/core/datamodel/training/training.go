package training

import "time"

type Record struct {
	ID              int64     `gorm:"primaryKey"`
	OwnerID         int64     `gorm:"column:owner_id;not null;index"`
	Theme           string    `gorm:"column:theme;not null"`
	Organizer       string    `gorm:"column:organizer;not null"`
	StartDate       time.Time `gorm:"column:start_date;type:date;not null;index"`
	EndDate         time.Time `gorm:"column:end_date;type:date;not null"`
	Notes           *string   `gorm:"column:notes"`
	CertificatePath *string   `gorm:"column:certificate_path"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "training_records"
}
