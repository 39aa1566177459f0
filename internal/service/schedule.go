package service

import (
	"time"

	"github.com/habitlog/internal/calendar"
	"github.com/habitlog/internal/db"
)

// IsActiveOn 判断习惯在给定日期是否生效：取该日的星期编码（1..7，1=周日），
// 测试其是否属于习惯的每周生效日集合。纯函数，无任何状态。
func IsActiveOn(habit db.Habit, day time.Time) bool {
	code := calendar.WeekdayCode(day)
	for _, active := range habit.WeekdayCodes() {
		if active == code {
			return true
		}
	}
	return false
}
