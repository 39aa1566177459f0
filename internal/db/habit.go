package db

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 习惯类型：tracking 按每日数值目标计算完成，oneTime 按勾选标记计算完成
const (
	HabitTypeTracking = "tracking"
	HabitTypeOneTime  = "oneTime"
)

// Habit 定义了习惯模型
// ActiveWeekdays 以逗号分隔的星期编码（1..7，1=周日）描述每周生效日，默认全周
// DailyGoal 仅对 tracking 类型有意义，oneTime 固定按 1 处理
// Sort 为手动排序值，新增时追加到末尾，重排时整体重写
type Habit struct {
	gorm.Model
	Name           string
	Emoji          string
	Color          string
	Type           string `gorm:"default:tracking"`
	DailyGoal      int
	ActiveWeekdays string
	Sort           int
}

// DailyProgress 记录某习惯在某个自然日的进度
// HabitID + Day 采用唯一索引，保证同一天幂等 upsert；Day 持久化前必须归一化到零点
// Note 为当日备注，展示时经 markdown 渲染
type DailyProgress struct {
	gorm.Model
	HabitID   uint      `gorm:"index;index:idx_daily_progress_unique,unique"`
	Habit     Habit     `gorm:"constraint:OnDelete:CASCADE"`
	Day       time.Time `gorm:"index:idx_daily_progress_unique,unique"`
	Progress  int
	Completed bool
	Note      string
}

// TableName 重写确保唯一索引作用到 habit_id + day
func (DailyProgress) TableName() string {
	return "daily_progress"
}

// HabitReminder 保存每个习惯的提醒计划
// Weekdays 与 Habit.ActiveWeekdays 各自独立维护，互不同步
type HabitReminder struct {
	gorm.Model
	HabitID   uint  `gorm:"uniqueIndex"`
	Habit     Habit `gorm:"constraint:OnDelete:CASCADE"`
	Weekdays  string
	TimeOfDay string
}

// WeekdayCodes 解析 ActiveWeekdays 为升序去重后的编码序列。
// 空串或完全非法的内容返回空切片，由上层校验兜底。
func (h Habit) WeekdayCodes() []int {
	return DecodeWeekdays(h.ActiveWeekdays)
}

// WeekdayCodes 解析提醒计划的星期编码
func (r HabitReminder) WeekdayCodes() []int {
	return DecodeWeekdays(r.Weekdays)
}

// DecodeWeekdays 将逗号分隔编码解析为升序去重切片，忽略越界与非数字项。
func DecodeWeekdays(raw string) []int {
	seen := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		code, err := strconv.Atoi(trimmed)
		if err != nil || code < 1 || code > 7 {
			continue
		}
		seen[code] = true
	}

	codes := make([]int, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// EncodeWeekdays 将编码切片序列化为存储格式，去重并按升序输出。
func EncodeWeekdays(codes []int) string {
	seen := make(map[int]bool)
	ordered := make([]int, 0, len(codes))
	for _, code := range codes {
		if code < 1 || code > 7 || seen[code] {
			continue
		}
		seen[code] = true
		ordered = append(ordered, code)
	}
	sort.Ints(ordered)

	parts := make([]string, 0, len(ordered))
	for _, code := range ordered {
		parts = append(parts, strconv.Itoa(code))
	}
	return strings.Join(parts, ",")
}
