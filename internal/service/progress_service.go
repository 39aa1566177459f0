package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitlog/internal/cache"
	"github.com/habitlog/internal/calendar"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService 负责每日进度账本：同一 (habit, day) 至多一条记录，
// 写入走幂等 upsert，读取绝不创建记录。

type ProgressService struct {
	db *gorm.DB
}

// DateProgress 是按天的只读视图：进度记录与习惯当前目标的联接结果，不落库
type DateProgress struct {
	Date      time.Time `json:"date"`
	Progress  int       `json:"progress"`
	Goal      int       `json:"goal"`
	Completed bool      `json:"completed"`
	Note      string    `json:"note,omitempty"`
}

// NewProgressService 构造 ProgressService
func NewProgressService(gdb *gorm.DB) *ProgressService {
	return &ProgressService{db: gdb}
}

// UpsertProgress 写入 tracking 习惯某日的进度值
// progress 低于 0 时按 0 记；completed = progress >= goal
// 相同参数重复调用收敛到同一存储状态
func (s *ProgressService) UpsertProgress(habitID uint, day time.Time, progress, goal int) (*db.DailyProgress, error) {
	if err := s.ensureHabit(habitID); err != nil {
		return nil, err
	}

	if progress < 0 {
		progress = 0
	}
	if goal < 1 {
		goal = 1
	}

	record := db.DailyProgress{
		HabitID:   habitID,
		Day:       calendar.StartOfDay(day),
		Progress:  progress,
		Completed: progress >= goal,
	}

	if err := s.upsert(&record, []string{"progress", "completed", "updated_at"}); err != nil {
		return nil, err
	}

	metrics.UpsertCount.WithLabelValues("progress").Inc()
	s.invalidateStats(habitID)
	return &record, nil
}

// UpsertChecked 写入 oneTime 习惯某日的勾选状态，progress 固定为 0/1
func (s *ProgressService) UpsertChecked(habitID uint, day time.Time, checked bool) (*db.DailyProgress, error) {
	if err := s.ensureHabit(habitID); err != nil {
		return nil, err
	}

	progress := 0
	if checked {
		progress = 1
	}

	record := db.DailyProgress{
		HabitID:   habitID,
		Day:       calendar.StartOfDay(day),
		Progress:  progress,
		Completed: checked,
	}

	if err := s.upsert(&record, []string{"progress", "completed", "updated_at"}); err != nil {
		return nil, err
	}

	metrics.UpsertCount.WithLabelValues("checked").Inc()
	s.invalidateStats(habitID)
	return &record, nil
}

// SetNote 为某日记录附加备注，记录不存在时创建一条零进度记录承载备注
func (s *ProgressService) SetNote(habitID uint, day time.Time, note string) (*db.DailyProgress, error) {
	if err := s.ensureHabit(habitID); err != nil {
		return nil, err
	}

	record := db.DailyProgress{
		HabitID: habitID,
		Day:     calendar.StartOfDay(day),
		Note:    strings.TrimSpace(note),
	}

	if err := s.upsert(&record, []string{"note", "updated_at"}); err != nil {
		return nil, err
	}

	metrics.UpsertCount.WithLabelValues("note").Inc()
	return &record, nil
}

// GetForDay 返回某习惯某日的进度记录；无记录时返回 (nil, nil)。
// 「没有记录」与「零值记录」是两种不同的结果，读取路径不产生副作用。
func (s *ProgressService) GetForDay(habitID uint, day time.Time) (*db.DailyProgress, error) {
	normalized := calendar.StartOfDay(day)

	var record db.DailyProgress
	err := s.db.Where("habit_id = ? AND day = ?", habitID, normalized).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily progress: %w", err)
	}
	return &record, nil
}

// ListBetween 返回 [start, endExclusive) 区间内的记录，按日期升序
func (s *ProgressService) ListBetween(habitID uint, start, endExclusive time.Time) ([]db.DailyProgress, error) {
	var records []db.DailyProgress
	if err := s.db.Where("habit_id = ?", habitID).
		Where("day >= ? AND day < ?", calendar.StartOfDay(start), calendar.StartOfDay(endExclusive)).
		Order("day ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list daily progress: %w", err)
	}
	return records, nil
}

// ListAll 返回某习惯的全部记录，按日期升序
func (s *ProgressService) ListAll(habitID uint) ([]db.DailyProgress, error) {
	var records []db.DailyProgress
	if err := s.db.Where("habit_id = ?", habitID).
		Order("day ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list all daily progress: %w", err)
	}
	return records, nil
}

// DayView 返回某习惯某日的视图：无记录时给出零值视图而非错误
func (s *ProgressService) DayView(habit db.Habit, day time.Time) (DateProgress, error) {
	record, err := s.GetForDay(habit.ID, day)
	if err != nil {
		return DateProgress{}, err
	}

	view := DateProgress{
		Date: calendar.StartOfDay(day),
		Goal: habitGoal(habit),
	}
	if record != nil {
		view.Progress = record.Progress
		view.Completed = record.Completed
		view.Note = record.Note
	}
	return view, nil
}

// ViewEntries 将进度记录联接习惯当前目标，产出只读视图序列
func ViewEntries(habit db.Habit, records []db.DailyProgress) []DateProgress {
	entries := make([]DateProgress, 0, len(records))
	for _, record := range records {
		entries = append(entries, DateProgress{
			Date:      calendar.StartOfDay(record.Day),
			Progress:  record.Progress,
			Goal:      habitGoal(habit),
			Completed: record.Completed,
			Note:      record.Note,
		})
	}
	return entries
}

// upsert 以 (habit_id, day) 为冲突键执行原子写入，随后回读最新状态
func (s *ProgressService) upsert(record *db.DailyProgress, updateColumns []string) error {
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(record).Error; err != nil {
		return fmt.Errorf("upsert daily progress: %w", err)
	}

	if err := s.db.Where("habit_id = ? AND day = ?", record.HabitID, record.Day).First(record).Error; err != nil {
		return fmt.Errorf("reload daily progress: %w", err)
	}
	return nil
}

// ensureHabit 校验外键：对未知习惯的写入是调用方契约错误，不得产生孤儿记录
func (s *ProgressService) ensureHabit(habitID uint) error {
	var count int64
	if err := s.db.Model(&db.Habit{}).Where("id = ?", habitID).Count(&count).Error; err != nil {
		return fmt.Errorf("check habit: %w", err)
	}
	if count == 0 {
		return ErrHabitNotFound
	}
	return nil
}

func (s *ProgressService) invalidateStats(habitID uint) {
	// 缓存失效失败不阻塞写入，过期时间会兜底
	_ = cache.Delete(overviewCacheKey, habitStatsCacheKey(habitID))
}

func habitGoal(habit db.Habit) int {
	if habit.Type == db.HabitTypeOneTime || habit.DailyGoal < 1 {
		return 1
	}
	return habit.DailyGoal
}

func habitStatsCacheKey(habitID uint) string {
	return fmt.Sprintf("stats:habit:%d", habitID)
}
