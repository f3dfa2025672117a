package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile 用户保存的个人资料，每个用户一行；列表字段以 JSON 存储
type UserProfile struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"userId"`
	FullName        string         `gorm:"type:varchar(255)" json:"fullName"`
	Username        string         `gorm:"type:varchar(255)" json:"username"`
	Email           string         `gorm:"type:varchar(255)" json:"email"`
	Emails          datatypes.JSON `gorm:"type:json" json:"emails"`
	Phones          datatypes.JSON `gorm:"type:json" json:"phones"`
	Gender          string         `gorm:"type:varchar(32);default:'Male'" json:"gender"`
	Location        string         `gorm:"type:varchar(255)" json:"location"`
	ProfilePic      string         `gorm:"type:varchar(512)" json:"profilePic"`
	Education       datatypes.JSON `gorm:"type:json" json:"education"`
	TotalExperience string         `gorm:"type:varchar(64)" json:"totalExperience"`
	Experiences     datatypes.JSON `gorm:"type:json" json:"experiences"`
	Domains         datatypes.JSON `gorm:"type:json" json:"domains"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// TableName 表名
func (UserProfile) TableName() string {
	return "user_profiles"
}

// ResumeUpload 每次成功解析的上传记录
type ResumeUpload struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	UploadUUID       string    `gorm:"type:char(36);uniqueIndex;not null"`
	SessionID        string    `gorm:"type:varchar(64);index"`
	OriginalFilename string    `gorm:"type:varchar(255)"`
	StoredFilename   string    `gorm:"type:varchar(255);not null"`
	MIMEType         string    `gorm:"type:varchar(128)"`
	SizeBytes        int64     `gorm:"not null"`
	FileMD5          string    `gorm:"type:char(32);index"`
	Fingerprint      string    `gorm:"type:char(32)"`
	ObjectKey        string    `gorm:"type:varchar(512)"`
	CreatedAt        time.Time `gorm:"type:datetime(6)"`
}

// TableName 表名
func (ResumeUpload) TableName() string {
	return "resume_uploads"
}
