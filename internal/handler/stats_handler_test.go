package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
)

func TestHabitMonthGrid(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, db.Habit{Name: "Read", DailyGoal: 10})
	if _, err := api.progress.UpsertProgress(habit.ID, mustDay(t, "2025-01-05"), 10, habit.DailyGoal); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/habits/1/stats/month?month=2025-01", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: strconv.Itoa(int(habit.ID))}}

	api.HabitMonthGrid(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Month string `json:"month"`
		Cells []struct {
			Blank     bool   `json:"blank"`
			Date      string `json:"date"`
			Completed bool   `json:"completed"`
		} `json:"cells"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Month != "2025-01" {
		t.Fatalf("unexpected month %q", resp.Month)
	}

	// 2025-01-01 是周三，周日起始时月初需要 3 个空白格
	if len(resp.Cells) != 34 {
		t.Fatalf("expected 34 cells, got %d", len(resp.Cells))
	}
	for i := 0; i < 3; i++ {
		if !resp.Cells[i].Blank {
			t.Fatalf("expected cell %d to be blank", i)
		}
	}

	completed := 0
	for _, cell := range resp.Cells {
		if cell.Completed {
			completed++
			if cell.Date != "2025-01-05" {
				t.Fatalf("unexpected completed cell %q", cell.Date)
			}
		}
	}
	if completed != 1 {
		t.Fatalf("expected one completed cell, got %d", completed)
	}
}

func TestHabitMonthGridInvalidMonth(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, db.Habit{Name: "Read"})

	req := httptest.NewRequest(http.MethodGet, "/api/habits/1/stats/month?month=Jan-2025", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: strconv.Itoa(int(habit.ID))}}

	api.HabitMonthGrid(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestHabitAllTimeSummary(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, db.Habit{Name: "Read", DailyGoal: 10})
	for _, day := range []string{"2025-03-01", "2025-03-02", "2025-03-03"} {
		if _, err := api.progress.UpsertProgress(habit.ID, mustDay(t, day), 10, habit.DailyGoal); err != nil {
			t.Fatalf("failed to seed progress: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/habits/1/stats/alltime?date=2025-03-10", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: strconv.Itoa(int(habit.ID))}}

	api.HabitAllTime(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Summary struct {
			StartDate     string `json:"start_date"`
			TotalDays     int    `json:"total_days"`
			CompletedDays int    `json:"completed_days"`
			Percent       int    `json:"percent"`
			LongestStreak int    `json:"longest_streak"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Summary.StartDate != "2025-03-01" {
		t.Fatalf("unexpected start date %q", resp.Summary.StartDate)
	}
	if resp.Summary.TotalDays != 10 {
		t.Fatalf("expected 10 total days, got %d", resp.Summary.TotalDays)
	}
	if resp.Summary.CompletedDays != 3 {
		t.Fatalf("expected 3 completed days, got %d", resp.Summary.CompletedDays)
	}
	if resp.Summary.Percent != 30 {
		t.Fatalf("expected 30 percent, got %d", resp.Summary.Percent)
	}
	if resp.Summary.LongestStreak != 3 {
		t.Fatalf("expected longest streak 3, got %d", resp.Summary.LongestStreak)
	}
}

func TestOverviewKeepsHabitOrder(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	seedHabit(t, db.Habit{Name: "B-first", Sort: 0})
	seedHabit(t, db.Habit{Name: "A-second", Sort: 1})

	req := httptest.NewRequest(http.MethodGet, "/api/stats/overview?date=2025-03-10", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.Overview(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Overview struct {
			Habits []struct {
				Name string `json:"name"`
			} `json:"habits"`
			HabitCount int `json:"habit_count"`
		} `json:"overview"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Overview.HabitCount != 2 {
		t.Fatalf("expected 2 habits, got %d", resp.Overview.HabitCount)
	}
	if resp.Overview.Habits[0].Name != "B-first" || resp.Overview.Habits[1].Name != "A-second" {
		t.Fatalf("expected sort order preserved, got %+v", resp.Overview.Habits)
	}
}
