package main

import (
	"context"
	"log"

	"github.com/dkurbatov/learning_platform/internal/config"
	"github.com/dkurbatov/learning_platform/internal/hash"
	"github.com/dkurbatov/learning_platform/internal/models"
	"github.com/dkurbatov/learning_platform/pkg/db"
)

// Seeds demo users, one published course and its lessons. Destructive:
// wipes users, courses and lessons first.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB, err := db.Open(context.Background(), cfg.DSN())
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("db migration error: %v", err)
	}

	for _, m := range []interface{}{
		&models.Note{}, &models.Progress{}, &models.Enrollment{},
		&models.Lesson{}, &models.Course{}, &models.RefreshToken{}, &models.User{},
	} {
		if err := gormDB.Where("1 = 1").Delete(m).Error; err != nil {
			log.Fatalf("wipe error: %v", err)
		}
	}

	users := []struct {
		name, email, password, role string
	}{
		{"Admin User", "admin@example.com", "admin123", models.RoleAdmin},
		{"Jane Instructor", "jane@example.com", "teach123", models.RoleInstructor},
		{"John Student", "john@example.com", "learn123", models.RoleStudent},
	}

	var instructor models.User
	for _, u := range users {
		pwHash, err := hash.HashPassword(u.password)
		if err != nil {
			log.Fatalf("hash error: %v", err)
		}
		user := models.User{Name: u.name, Email: u.email, PasswordHash: pwHash, Role: u.role}
		if err := gormDB.Create(&user).Error; err != nil {
			log.Fatalf("create user error: %v", err)
		}
		if u.role == models.RoleInstructor {
			instructor = user
		}
	}

	course := models.Course{
		Title:        "Go for Backend Developers",
		Description:  "From net/http to production services.",
		InstructorID: instructor.ID,
		Price:        49.99,
		Published:    true,
	}
	if err := gormDB.Create(&course).Error; err != nil {
		log.Fatalf("create course error: %v", err)
	}

	lessons := []models.Lesson{
		{CourseID: course.ID, Title: "Getting started", VideoURL: "https://videos.example.com/go-1", Duration: 600, Position: 1},
		{CourseID: course.ID, Title: "HTTP handlers", VideoURL: "https://videos.example.com/go-2", Duration: 900, Position: 2},
		{CourseID: course.ID, Title: "Talking to a database", VideoURL: "https://videos.example.com/go-3", Duration: 1200, Position: 3},
	}
	for i := range lessons {
		if err := gormDB.Create(&lessons[i]).Error; err != nil {
			log.Fatalf("create lesson error: %v", err)
		}
	}

	log.Println("seed data imported")
}
