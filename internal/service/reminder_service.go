package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReminderInvalidInput 当提醒计划不合法时返回
var ErrReminderInvalidInput = errors.New("invalid reminder input")

// Scheduler 是提醒投递的外部协作方：本服务只负责告知「哪个习惯、哪些星期、几点」，
// 不关心提醒如何送达。
type Scheduler interface {
	Schedule(habitID uint, weekdays []int, timeOfDay string) error
	Cancel(habitID uint) error
}

// LogScheduler 将调度动作写入结构化日志，作为默认实现。
// 真正的推送通道（APNs、邮件等）在部署侧替换此实现。
type LogScheduler struct{}

// Schedule 记录一次提醒安装
func (LogScheduler) Schedule(habitID uint, weekdays []int, timeOfDay string) error {
	logging.Logger.Info("reminder_scheduled",
		zap.Uint("habit_id", habitID),
		zap.Ints("weekdays", weekdays),
		zap.String("time_of_day", timeOfDay),
	)
	return nil
}

// Cancel 记录一次提醒取消
func (LogScheduler) Cancel(habitID uint) error {
	logging.Logger.Info("reminder_cancelled", zap.Uint("habit_id", habitID))
	return nil
}

// ReminderService 维护每个习惯的提醒计划并驱动调度协作方。
// 提醒的星期集合与习惯的生效日集合相互独立，互不校正。

type ReminderService struct {
	db        *gorm.DB
	scheduler Scheduler
}

// NewReminderService 构造 ReminderService
func NewReminderService(gdb *gorm.DB, scheduler Scheduler) *ReminderService {
	return &ReminderService{db: gdb, scheduler: scheduler}
}

// Set 安装或更新某习惯的提醒计划：持久化后通知调度方重装
func (s *ReminderService) Set(habitID uint, weekdays []int, timeOfDay string) (*db.HabitReminder, error) {
	var count int64
	if err := s.db.Model(&db.Habit{}).Where("id = ?", habitID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check habit: %w", err)
	}
	if count == 0 {
		return nil, ErrHabitNotFound
	}

	if len(weekdays) == 0 {
		return nil, fmt.Errorf("%w: weekday set must not be empty", ErrReminderInvalidInput)
	}
	for _, code := range weekdays {
		if code < 1 || code > 7 {
			return nil, fmt.Errorf("%w: weekday code %d out of range", ErrReminderInvalidInput, code)
		}
	}
	if _, err := time.Parse("15:04", timeOfDay); err != nil {
		return nil, fmt.Errorf("%w: time of day must be HH:MM", ErrReminderInvalidInput)
	}

	reminder := db.HabitReminder{
		HabitID:   habitID,
		Weekdays:  db.EncodeWeekdays(weekdays),
		TimeOfDay: timeOfDay,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"weekdays", "time_of_day", "updated_at"}),
	}).Create(&reminder).Error; err != nil {
		return nil, fmt.Errorf("upsert reminder: %w", err)
	}

	if err := s.db.Where("habit_id = ?", habitID).First(&reminder).Error; err != nil {
		return nil, fmt.Errorf("reload reminder: %w", err)
	}

	if err := s.scheduler.Schedule(habitID, db.DecodeWeekdays(reminder.Weekdays), reminder.TimeOfDay); err != nil {
		return nil, fmt.Errorf("schedule reminder: %w", err)
	}

	return &reminder, nil
}

// Get 返回某习惯的提醒计划；未安装时返回 (nil, nil)
func (s *ReminderService) Get(habitID uint) (*db.HabitReminder, error) {
	var reminder db.HabitReminder
	err := s.db.Where("habit_id = ?", habitID).First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return &reminder, nil
}

// Cancel 移除某习惯的提醒计划并通知调度方
func (s *ReminderService) Cancel(habitID uint) error {
	if err := s.db.Where("habit_id = ?", habitID).Delete(&db.HabitReminder{}).Error; err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return s.scheduler.Cancel(habitID)
}
