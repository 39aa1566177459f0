package service

import (
	"errors"
	"testing"

	"github.com/habitlog/internal/db"
)

// fakeScheduler 记录调度调用，用于断言协作方契约
type fakeScheduler struct {
	scheduled map[uint][]int
	cancelled map[uint]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[uint][]int), cancelled: make(map[uint]bool)}
}

func (f *fakeScheduler) Schedule(habitID uint, weekdays []int, timeOfDay string) error {
	if f.scheduled != nil {
		f.scheduled[habitID] = weekdays
	}
	return nil
}

func (f *fakeScheduler) Cancel(habitID uint) error {
	if f.cancelled != nil {
		f.cancelled[habitID] = true
	}
	return nil
}

func TestReminderSetInstallsSchedule(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	scheduler := newFakeScheduler()
	svc := NewReminderService(db.DB, scheduler)

	habit, _ := habitSvc.Create(HabitInput{Name: "晨跑", DailyGoal: 1})

	reminder, err := svc.Set(habit.ID, []int{2, 4, 6}, "07:30")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if reminder.Weekdays != "2,4,6" || reminder.TimeOfDay != "07:30" {
		t.Fatalf("unexpected stored reminder: %+v", reminder)
	}

	got, ok := scheduler.scheduled[habit.ID]
	if !ok || len(got) != 3 {
		t.Fatalf("expected scheduler invoked with 3 weekdays, got %v", got)
	}

	// 重复 Set 更新而非新增
	if _, err := svc.Set(habit.ID, []int{1}, "21:00"); err != nil {
		t.Fatalf("second Set returned error: %v", err)
	}

	var count int64
	db.DB.Model(&db.HabitReminder{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected single reminder row, got %d", count)
	}
}

func TestReminderValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewReminderService(db.DB, newFakeScheduler())

	habit, _ := habitSvc.Create(HabitInput{Name: "晨跑", DailyGoal: 1})

	if _, err := svc.Set(habit.ID, nil, "07:30"); !errors.Is(err, ErrReminderInvalidInput) {
		t.Fatalf("expected invalid input for empty weekdays, got %v", err)
	}
	if _, err := svc.Set(habit.ID, []int{8}, "07:30"); !errors.Is(err, ErrReminderInvalidInput) {
		t.Fatalf("expected invalid input for weekday 8, got %v", err)
	}
	if _, err := svc.Set(habit.ID, []int{2}, "7:3"); !errors.Is(err, ErrReminderInvalidInput) {
		t.Fatalf("expected invalid input for malformed time, got %v", err)
	}
	if _, err := svc.Set(999, []int{2}, "07:30"); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
}

func TestReminderIndependentOfHabitSchedule(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewReminderService(db.DB, newFakeScheduler())

	habit, _ := habitSvc.Create(HabitInput{Name: "工作日锻炼", DailyGoal: 1, ActiveWeekdays: []int{2, 3, 4, 5, 6}})

	// 提醒只安排在周末，两套星期集合各自独立
	if _, err := svc.Set(habit.ID, []int{1, 7}, "10:00"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	// 编辑习惯的生效日不改动提醒计划
	if _, err := habitSvc.Update(habit.ID, HabitInput{Name: "工作日锻炼", DailyGoal: 1, ActiveWeekdays: []int{2, 4}}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	reminder, err := svc.Get(habit.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if reminder == nil || reminder.Weekdays != "1,7" {
		t.Fatalf("expected reminder weekdays unchanged, got %+v", reminder)
	}
}

func TestReminderCancel(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	scheduler := newFakeScheduler()
	svc := NewReminderService(db.DB, scheduler)

	habit, _ := habitSvc.Create(HabitInput{Name: "晨跑", DailyGoal: 1})

	if _, err := svc.Set(habit.ID, []int{2}, "07:30"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := svc.Cancel(habit.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	if !scheduler.cancelled[habit.ID] {
		t.Fatal("expected scheduler cancel invoked")
	}

	reminder, err := svc.Get(habit.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if reminder != nil {
		t.Fatal("expected reminder removed")
	}
}
