package models

import (
	"time"
)

type ProfileType string

const (
	ProfileInstructor ProfileType = "instructor"
	ProfileStudent    ProfileType = "student"
)

func (p ProfileType) Valid() bool {
	return p == ProfileInstructor || p == ProfileStudent
}

type Category string

const (
	CategoryCardio Category = "cardio"
	CategoryWeight Category = "weight"
	CategoryDiet   Category = "diet"
	CategoryOther  Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCardio, CategoryWeight, CategoryDiet, CategoryOther:
		return true
	}
	return false
}

const DefaultImageFile = "default.jpg"

type User struct {
	ID           uint        `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username     string      `gorm:"uniqueIndex;not null;size:20"  json:"username"`
	Email        string      `gorm:"uniqueIndex;not null;size:120" json:"email"`
	ProfileType  ProfileType `gorm:"not null;size:20"              json:"profile_type"`
	ImageFile    string      `gorm:"not null;default:'default.jpg'" json:"image_file"`
	PasswordHash string      `gorm:"not null"                      json:"-"`
	Posts        []Post      `gorm:"foreignKey:UserID"             json:"-"`
}

type Post struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"not null;size:100"        json:"title"`
	Content    string    `gorm:"not null;type:text"       json:"content"`
	Category   Category  `gorm:"not null;index"           json:"category"`
	DatePosted time.Time `gorm:"not null"                 json:"date_posted"`
	UserID     uint      `gorm:"index;not null"           json:"user_id"`
}
