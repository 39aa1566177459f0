package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitInvalidInput 当习惯定义不合法时返回
	ErrHabitInvalidInput = errors.New("invalid habit input")
)

// HabitService 负责习惯定义的增删改查与手动排序
// 排序值在新增时追加到末尾，重排时在事务内整体重写，读取方不会观察到部分重排

type HabitService struct {
	db *gorm.DB
}

// HabitInput 定义创建/更新习惯时可配置字段
// ActiveWeekdays 为空时默认为全周生效
type HabitInput struct {
	Name           string
	Emoji          string
	Color          string
	Type           string
	DailyGoal      int
	ActiveWeekdays []int
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// Create 新建习惯，分配末尾排序值
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	normalized, err := normalizeHabitInput(input)
	if err != nil {
		return nil, err
	}

	sortValue, err := s.nextSort()
	if err != nil {
		return nil, err
	}

	habit := db.Habit{
		Name:           normalized.Name,
		Emoji:          normalized.Emoji,
		Color:          normalized.Color,
		Type:           normalized.Type,
		DailyGoal:      normalized.DailyGoal,
		ActiveWeekdays: db.EncodeWeekdays(normalized.ActiveWeekdays),
		Sort:           sortValue,
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// List 返回全部习惯，按排序值升序，创建顺序兜底
func (s *HabitService) List() ([]db.Habit, error) {
	var habits []db.Habit
	if err := s.db.Order("sort ASC, id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯定义，不改动排序值
func (s *HabitService) Update(id uint, input HabitInput) (*db.Habit, error) {
	normalized, err := normalizeHabitInput(input)
	if err != nil {
		return nil, err
	}

	var existing db.Habit
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}

	existing.Name = normalized.Name
	existing.Emoji = normalized.Emoji
	existing.Color = normalized.Color
	existing.Type = normalized.Type
	existing.DailyGoal = normalized.DailyGoal
	existing.ActiveWeekdays = db.EncodeWeekdays(normalized.ActiveWeekdays)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return &existing, nil
}

// Delete 删除习惯及其全部进度记录与提醒计划
// 关联数据在同一事务内清理，不留孤儿行
func (s *HabitService) Delete(id uint) error {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHabitNotFound
		}
		return fmt.Errorf("find habit: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", id).Delete(&db.DailyProgress{}).Error; err != nil {
			return fmt.Errorf("delete habit progress: %w", err)
		}
		if err := tx.Where("habit_id = ?", id).Delete(&db.HabitReminder{}).Error; err != nil {
			return fmt.Errorf("delete habit reminder: %w", err)
		}
		if err := tx.Delete(&db.Habit{}, id).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

// Reorder 按给定顺序重排排序字段
// 传入的 IDs 会被依次赋值 0,1,2...，整个重写在事务内完成
func (s *HabitService) Reorder(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for index, id := range ids {
			result := tx.Model(&db.Habit{}).Where("id = ?", id).Update("sort", index)
			if result.Error != nil {
				return fmt.Errorf("reorder habits: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("reorder habits: %w: id %d", ErrHabitNotFound, id)
			}
		}
		return nil
	})
}

// ActiveOn 返回在指定日期生效的习惯子集，保持 List 的排序
func (s *HabitService) ActiveOn(day time.Time) ([]db.Habit, error) {
	habits, err := s.List()
	if err != nil {
		return nil, err
	}

	active := make([]db.Habit, 0, len(habits))
	for _, habit := range habits {
		if IsActiveOn(habit, day) {
			active = append(active, habit)
		}
	}
	return active, nil
}

func (s *HabitService) nextSort() (int, error) {
	var maxSort int
	if err := s.db.Model(&db.Habit{}).Select("COALESCE(MAX(sort), -1)").Scan(&maxSort).Error; err != nil {
		return 0, fmt.Errorf("resolve habit sort: %w", err)
	}
	return maxSort + 1, nil
}

func normalizeHabitInput(input HabitInput) (HabitInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, fmt.Errorf("%w: name is required", ErrHabitInvalidInput)
	}

	input.Type = strings.TrimSpace(input.Type)
	switch input.Type {
	case "":
		input.Type = db.HabitTypeTracking
	case db.HabitTypeTracking, db.HabitTypeOneTime:
	default:
		return input, fmt.Errorf("%w: unsupported type %s", ErrHabitInvalidInput, input.Type)
	}

	// oneTime 习惯的目标固定为 1
	if input.Type == db.HabitTypeOneTime {
		input.DailyGoal = 1
	}
	if input.DailyGoal < 1 {
		return input, fmt.Errorf("%w: daily goal must be at least 1", ErrHabitInvalidInput)
	}

	if len(input.ActiveWeekdays) == 0 {
		input.ActiveWeekdays = []int{1, 2, 3, 4, 5, 6, 7}
	}
	for _, code := range input.ActiveWeekdays {
		if code < 1 || code > 7 {
			return input, fmt.Errorf("%w: weekday code %d out of range", ErrHabitInvalidInput, code)
		}
	}

	input.Emoji = strings.TrimSpace(input.Emoji)
	input.Color = strings.TrimSpace(input.Color)

	return input, nil
}
