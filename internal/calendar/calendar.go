package calendar

import "time"

// 日历归一化工具集。所有按天粒度的读写都必须先经过 StartOfDay，
// 日期推进一律走 AddDate 以保证跨月/夏令时安全，禁止使用毫秒差值推算天数。

// Weekday 编码采用 1..7，1 = 周日（与系统日历保持一致）。
const (
	Sunday    = 1
	Monday    = 2
	Tuesday   = 3
	Wednesday = 4
	Thursday  = 5
	Friday    = 6
	Saturday  = 7
)

// StartOfDay 将任意时间归一化到所在时区的当日零点。
// 两个时间归一化结果 Equal 当且仅当它们落在同一个自然日。
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay 判断两个时间是否属于同一自然日。
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// AddDays 在归一化日期上前进/后退 n 天，保持零点对齐。
func AddDays(day time.Time, n int) time.Time {
	return StartOfDay(day).AddDate(0, 0, n)
}

// WeekdayCode 返回 1..7 的星期编码，1 为周日。
func WeekdayCode(t time.Time) int {
	return int(t.Weekday()) + 1
}

// MonthRange 返回 ref 所在月份的 [start, end) 边界。
func MonthRange(ref time.Time) (start, end time.Time) {
	start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end = start.AddDate(0, 1, 0)
	return start, end
}

// YearRange 返回 ref 所在年份的 [start, end) 边界。
func YearRange(ref time.Time) (start, end time.Time) {
	start = time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
	end = start.AddDate(1, 0, 0)
	return start, end
}

// WeekRange 返回包含 ref 的 7 天周的 [start, end) 边界。
// firstWeekday 为一周的起始星期编码（1..7），越界值按周日处理。
func WeekRange(ref time.Time, firstWeekday int) (start, end time.Time) {
	if firstWeekday < Sunday || firstWeekday > Saturday {
		firstWeekday = Sunday
	}

	day := StartOfDay(ref)
	offset := (WeekdayCode(day) - firstWeekday + 7) % 7
	start = day.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 7)
	return start, end
}

// DaysBetween 返回两个日期相差的自然日数（b - a，可为负）。
// 逐日步进而非除以 24h，避免夏令时导致的偏差。
func DaysBetween(a, b time.Time) int {
	from := StartOfDay(a)
	to := StartOfDay(b)

	if from.Equal(to) {
		return 0
	}

	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}

	days := 0
	for cursor := from; cursor.Before(to); cursor = cursor.AddDate(0, 0, 1) {
		days++
	}
	return days * sign
}

// LeadingBlanks 计算月历网格中 1 号之前需要的空白格数量，
// 用于把 1 号对齐到所属星期列。
func LeadingBlanks(monthStart time.Time, firstWeekday int) int {
	if firstWeekday < Sunday || firstWeekday > Saturday {
		firstWeekday = Sunday
	}
	return (WeekdayCode(monthStart) - firstWeekday + 7) % 7
}
