package service

import (
	"errors"
	"testing"
	"time"

	"github.com/habitlog/internal/db"
)

func TestUpsertProgressIsIdempotent(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewProgressService(db.DB)

	habit, err := habitSvc.Create(HabitInput{Name: "喝水", DailyGoal: 8})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	day := time.Date(2025, 4, 10, 15, 30, 0, 0, time.UTC)

	if _, err := svc.UpsertProgress(habit.ID, day, 5, 8); err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}
	if _, err := svc.UpsertProgress(habit.ID, day, 5, 8); err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}

	var count int64
	db.DB.Model(&db.DailyProgress{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one record per (habit, day), got %d", count)
	}

	record, err := svc.GetForDay(habit.ID, day)
	if err != nil {
		t.Fatalf("GetForDay returned error: %v", err)
	}
	if record == nil {
		t.Fatal("expected record after upsert")
	}
	if record.Progress != 5 || record.Completed {
		t.Fatalf("unexpected state: progress=%d completed=%v", record.Progress, record.Completed)
	}
}

func TestUpsertProgressUpdatesInPlace(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewProgressService(db.DB)

	habit, _ := habitSvc.Create(HabitInput{Name: "阅读", DailyGoal: 30})

	// 同一天的不同时间戳必须落到同一条记录
	morning := time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 4, 10, 22, 45, 0, 0, time.UTC)

	if _, err := svc.UpsertProgress(habit.ID, morning, 10, 30); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	record, err := svc.UpsertProgress(habit.ID, evening, 30, 30)
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	if !record.Completed {
		t.Fatal("expected completed when progress reaches goal")
	}

	var count int64
	db.DB.Model(&db.DailyProgress{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one record for the day, got %d", count)
	}

	// 负数进度按 0 记
	record, err = svc.UpsertProgress(habit.ID, evening, -3, 30)
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	if record.Progress != 0 || record.Completed {
		t.Fatalf("expected clamped zero progress, got %d (completed=%v)", record.Progress, record.Completed)
	}
}

func TestUpsertUnknownHabitFails(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewProgressService(db.DB)
	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	if _, err := svc.UpsertProgress(42, day, 1, 1); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}

	// 契约错误不得产生孤儿记录
	var count int64
	db.DB.Model(&db.DailyProgress{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no orphan records, got %d", count)
	}
}

func TestGetForDayAbsenceIsNotAnError(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewProgressService(db.DB)

	habit, _ := habitSvc.Create(HabitInput{Name: "冥想", DailyGoal: 1})
	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	record, err := svc.GetForDay(habit.ID, day)
	if err != nil {
		t.Fatalf("GetForDay returned error: %v", err)
	}
	if record != nil {
		t.Fatal("expected nil before first upsert")
	}

	// 读取路径不产生副作用
	var count int64
	db.DB.Model(&db.DailyProgress{}).Count(&count)
	if count != 0 {
		t.Fatalf("read must not create records, found %d", count)
	}
}

func TestUpsertCheckedForOneTimeHabit(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewProgressService(db.DB)

	habit, _ := habitSvc.Create(HabitInput{Name: "吃维生素", Type: db.HabitTypeOneTime})
	day := time.Date(2025, 4, 10, 19, 0, 0, 0, time.UTC)

	record, err := svc.UpsertChecked(habit.ID, day, true)
	if err != nil {
		t.Fatalf("UpsertChecked returned error: %v", err)
	}
	if !record.Completed || record.Progress != 1 {
		t.Fatalf("expected checked record, got progress=%d completed=%v", record.Progress, record.Completed)
	}

	record, err = svc.UpsertChecked(habit.ID, day, false)
	if err != nil {
		t.Fatalf("UpsertChecked returned error: %v", err)
	}
	if record.Completed || record.Progress != 0 {
		t.Fatalf("expected unchecked record, got progress=%d completed=%v", record.Progress, record.Completed)
	}
}

func TestListBetweenBoundsAndOrder(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewProgressService(db.DB)

	habit, _ := habitSvc.Create(HabitInput{Name: "跑步", DailyGoal: 1})

	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	// 乱序写入四天
	for _, offset := range []int{3, 0, 2, 5} {
		day := base.AddDate(0, 0, offset)
		if _, err := svc.UpsertProgress(habit.ID, day, 1, 1); err != nil {
			t.Fatalf("upsert returned error: %v", err)
		}
	}

	// [4/1, 4/4)：应包含 4/1 与 4/3，不含 4/4
	records, err := svc.ListBetween(habit.ID, base, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("ListBetween returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(records))
	}
	if !records[0].Day.Before(records[1].Day) {
		t.Fatal("expected ascending order by day")
	}

	all, err := svc.ListAll(habit.ID)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if !all[i-1].Day.Before(all[i].Day) {
			t.Fatal("expected ListAll ascending by day")
		}
	}
}

func TestDayViewDefaultsToZeroWhenAbsent(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewProgressService(db.DB)

	habit, _ := habitSvc.Create(HabitInput{Name: "喝水", DailyGoal: 8})
	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	view, err := svc.DayView(*habit, day)
	if err != nil {
		t.Fatalf("DayView returned error: %v", err)
	}
	if view.Progress != 0 || view.Completed || view.Goal != 8 {
		t.Fatalf("unexpected default view: %+v", view)
	}

	if _, err := svc.UpsertProgress(habit.ID, day, 8, habit.DailyGoal); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	view, err = svc.DayView(*habit, day)
	if err != nil {
		t.Fatalf("DayView returned error: %v", err)
	}
	if view.Progress != 8 || !view.Completed {
		t.Fatalf("expected completed view, got %+v", view)
	}
}

func TestSetNotePreservesProgress(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habitSvc := NewHabitService(db.DB)
	svc := NewProgressService(db.DB)

	habit, _ := habitSvc.Create(HabitInput{Name: "写作", DailyGoal: 1})
	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	if _, err := svc.UpsertProgress(habit.ID, day, 1, 1); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	record, err := svc.SetNote(habit.ID, day, "  状态不错，多写了一段  ")
	if err != nil {
		t.Fatalf("SetNote returned error: %v", err)
	}

	if record.Note != "状态不错，多写了一段" {
		t.Fatalf("expected trimmed note, got %q", record.Note)
	}
	if record.Progress != 1 || !record.Completed {
		t.Fatalf("note must not overwrite progress, got %+v", record)
	}
}
