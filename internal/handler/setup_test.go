package handler

import (
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Habit{}, &db.DailyProgress{}, &db.HabitReminder{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := gdb.Create(&db.User{Username: "tester", Password: "hashed"}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	db.DB = gdb

	api := NewAPI(db.DB, Options{
		FirstWeekday: 1,
		UploadDir:    t.TempDir(),
		UploadURL:    "/uploads",
	})
	return api, func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(dateFormat, value, time.Local)
	if err != nil {
		t.Fatalf("failed to parse day %q: %v", value, err)
	}
	return parsed
}

func seedHabit(t *testing.T, habit db.Habit) db.Habit {
	t.Helper()
	if habit.Type == "" {
		habit.Type = db.HabitTypeTracking
	}
	if habit.DailyGoal == 0 {
		habit.DailyGoal = 1
	}
	if habit.ActiveWeekdays == "" {
		habit.ActiveWeekdays = "1,2,3,4,5,6,7"
	}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	return habit
}
