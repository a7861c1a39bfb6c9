package models

import (
	"time"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:student" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Course struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string    `gorm:"not null"                 json:"title"`
	Description  string    `gorm:"not null"                 json:"description"`
	InstructorID uint      `gorm:"index;not null"           json:"instructor_id"`
	Thumbnail    string    `json:"thumbnail"`
	Price        float64   `gorm:"default:0"                json:"price"`
	Published    bool      `gorm:"default:false"            json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Lesson struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID    uint   `gorm:"index;not null"           json:"course_id"`
	Title       string `gorm:"not null"                 json:"title"`
	Description string `json:"description"`
	VideoURL    string `gorm:"not null"                 json:"video_url"`
	// Duration in seconds.
	Duration  uint      `gorm:"default:0"  json:"duration"`
	Position  uint      `gorm:"not null"   json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type Enrollment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                   json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enroll_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enroll_user_course" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Progress struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"                      json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"user_id"`
	CourseID       uint      `gorm:"index;not null"                                json:"course_id"`
	LessonID       uint      `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
	Completed      bool      `gorm:"default:false"                                 json:"completed"`
	WatchedSeconds uint      `gorm:"default:0"                                     json:"watched_seconds"`
	LastWatched    time.Time `json:"last_watched"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Note struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint   `gorm:"index;not null"           json:"user_id"`
	LessonID uint   `gorm:"index;not null"           json:"lesson_id"`
	Content  string `gorm:"not null"                 json:"content"`
	// Timestamp is the video position in seconds the note refers to.
	Timestamp uint      `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// RefreshToken stores the SHA-256 of an issued refresh token, never the
// token itself. A revoked row is a spent token; presenting it again is
// treated as reuse.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	TokenHash string    `gorm:"unique;not null" json:"-"`
	JTI       string    `gorm:"index;not null"  json:"jti"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64     `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}
