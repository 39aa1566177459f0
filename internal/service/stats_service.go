package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/habitlog/internal/cache"
	"github.com/habitlog/internal/calendar"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/logging"
	"go.uber.org/zap"
)

const (
	overviewCacheKey = "stats:overview"
	statsCacheTTL    = 5 * time.Minute
)

// StatsService 基于账本查询结果派生统计视图：连续天数、完成率、月历网格等。
// 所有聚合对空输入都有定义（0 或空序列），账本读取失败时降级为空而不是让统计崩溃。

type StatsService struct {
	habits   *HabitService
	progress *ProgressService
}

// GridCell 为日历网格中的一个格子，Blank 表示月初对齐用的空白格
type GridCell struct {
	Day       time.Time
	Blank     bool
	Progress  int
	Completed bool
}

// AllTimeSummary 汇总自首条记录以来的整体表现
type AllTimeSummary struct {
	StartDate     time.Time
	TotalDays     int
	CompletedDays int
	Percent       int
	CurrentStreak int
	LongestStreak int
}

// YearSummary 汇总年初至今的表现
type YearSummary struct {
	Year          int
	CompletedDays int
	TotalDays     int
	Percent       int
	LongestStreak int
}

// HabitOverview 为总览接口里单个习惯的统计条目
type HabitOverview struct {
	HabitID       uint    `json:"habit_id"`
	Name          string  `json:"name"`
	Emoji         string  `json:"emoji"`
	Color         string  `json:"color"`
	Type          string  `json:"type"`
	EntryCount    int     `json:"entry_count"`
	CompletedDays int     `json:"completed_days"`
	CompletionPct int     `json:"completion_pct"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`

	// rate 仅用于汇总整体完成率，不随 JSON 输出
	rate float64
}

// Overview 为全部习惯的统计总览
type Overview struct {
	Habits     []HabitOverview `json:"habits"`
	HabitCount int             `json:"habit_count"`
	OverallPct int             `json:"overall_pct"`
}

// NewStatsService 构造 StatsService
func NewStatsService(habits *HabitService, progress *ProgressService) *StatsService {
	return &StatsService{habits: habits, progress: progress}
}

// CompletionRate 返回已完成条目占比，空输入为 0
func CompletionRate(entries []DateProgress) float64 {
	if len(entries) == 0 {
		return 0
	}

	completed := 0
	for _, entry := range entries {
		if entry.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(entries))
}

// Percent 将比例四舍五入为整数百分比
func Percent(rate float64) int {
	return int(math.Round(rate * 100))
}

// CurrentStreak 从 asOf 起向过去逐日回溯，统计连续完成的天数。
// 某日没有记录或记录未完成即中断，缺席按未完成处理而不是跳过。
func CurrentStreak(entries []DateProgress, asOf time.Time) int {
	completed := completedDaySet(entries)

	streak := 0
	cursor := calendar.StartOfDay(asOf)
	for completed[dayKey(cursor)] {
		streak++
		cursor = calendar.AddDays(cursor, -1)
	}
	return streak
}

// LongestStreak 在升序扫描中维护连续完成计数：仅当当前完成日恰为上一完成日的
// 次日时递增，否则重置为 1。没有记录的日子同样打断连续性。
func LongestStreak(entries []DateProgress) int {
	sorted := make([]DateProgress, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	best := 0
	current := 0
	var prev time.Time
	hasPrev := false

	for _, entry := range sorted {
		if !entry.Completed {
			continue
		}

		day := calendar.StartOfDay(entry.Date)
		if hasPrev && calendar.SameDay(day, calendar.AddDays(prev, 1)) {
			current++
		} else {
			current = 1
		}
		prev = day
		hasPrev = true

		if current > best {
			best = current
		}
	}
	return best
}

// MonthlyGrid 生成覆盖整月的格子序列，月初前补空白格使 1 号对齐所属星期列
func MonthlyGrid(entries []DateProgress, month time.Time, firstWeekday int) []GridCell {
	start, end := calendar.MonthRange(month)
	byDay := make(map[string]DateProgress, len(entries))
	for _, entry := range entries {
		byDay[dayKey(entry.Date)] = entry
	}

	blanks := calendar.LeadingBlanks(start, firstWeekday)
	cells := make([]GridCell, 0, blanks+31)
	for i := 0; i < blanks; i++ {
		cells = append(cells, GridCell{Blank: true})
	}

	for cursor := start; cursor.Before(end); cursor = calendar.AddDays(cursor, 1) {
		cell := GridCell{Day: cursor}
		if entry, ok := byDay[dayKey(cursor)]; ok {
			cell.Progress = entry.Progress
			cell.Completed = entry.Completed
		}
		cells = append(cells, cell)
	}
	return cells
}

// Last365 生成以 ref 当日收尾的 365 格贡献条
func Last365(entries []DateProgress, ref time.Time) []GridCell {
	end := calendar.StartOfDay(ref)
	start := calendar.AddDays(end, -364)
	completed := completedDaySet(entries)

	cells := make([]GridCell, 0, 365)
	for cursor := start; !cursor.After(end); cursor = calendar.AddDays(cursor, 1) {
		cells = append(cells, GridCell{
			Day:       cursor,
			Completed: completed[dayKey(cursor)],
		})
	}
	return cells
}

// AllTime 汇总自首条记录以来的整体统计；无记录时所有字段为零值
func AllTime(entries []DateProgress, asOf time.Time) AllTimeSummary {
	summary := AllTimeSummary{
		CurrentStreak: CurrentStreak(entries, asOf),
		LongestStreak: LongestStreak(entries),
	}
	if len(entries) == 0 {
		return summary
	}

	start := calendar.StartOfDay(entries[0].Date)
	for _, entry := range entries[1:] {
		day := calendar.StartOfDay(entry.Date)
		if day.Before(start) {
			start = day
		}
	}

	summary.StartDate = start
	// 首尾两端均计入
	summary.TotalDays = calendar.DaysBetween(start, calendar.StartOfDay(asOf)) + 1
	if summary.TotalDays < 1 {
		summary.TotalDays = 1
	}

	for _, entry := range entries {
		if entry.Completed {
			summary.CompletedDays++
		}
	}
	summary.Percent = Percent(float64(summary.CompletedDays) / float64(summary.TotalDays))
	return summary
}

// YearToDate 汇总 ref 所在年份的表现：完成天数、自 1 月 1 日起的经过天数
// （含两端，封顶到年末）、取整百分比，以及限定在该年内的最长连续
func YearToDate(entries []DateProgress, ref time.Time) YearSummary {
	yearStart, yearEnd := calendar.YearRange(ref)

	yearEntries := make([]DateProgress, 0, len(entries))
	for _, entry := range entries {
		day := calendar.StartOfDay(entry.Date)
		if !day.Before(yearStart) && day.Before(yearEnd) {
			yearEntries = append(yearEntries, entry)
		}
	}

	endDay := calendar.StartOfDay(ref)
	lastOfYear := calendar.AddDays(yearEnd, -1)
	if endDay.After(lastOfYear) {
		endDay = lastOfYear
	}

	summary := YearSummary{
		Year:          yearStart.Year(),
		TotalDays:     calendar.DaysBetween(yearStart, endDay) + 1,
		LongestStreak: LongestStreak(yearEntries),
	}

	for _, entry := range yearEntries {
		if entry.Completed {
			summary.CompletedDays++
		}
	}
	if summary.TotalDays > 0 {
		summary.Percent = Percent(float64(summary.CompletedDays) / float64(summary.TotalDays))
	}
	return summary
}

// entriesFor 读取某习惯的全部账本条目；读取失败时记录告警并降级为空序列
func (s *StatsService) entriesFor(habit db.Habit) []DateProgress {
	records, err := s.progress.ListAll(habit.ID)
	if err != nil {
		logging.Logger.Warn("stats_entries_load_failed",
			zap.Uint("habit_id", habit.ID),
			zap.Error(err),
		)
		return nil
	}
	return ViewEntries(habit, records)
}

// HabitAllTime 返回单个习惯的整体统计
func (s *StatsService) HabitAllTime(habit db.Habit, asOf time.Time) AllTimeSummary {
	return AllTime(s.entriesFor(habit), asOf)
}

// HabitMonthGrid 返回某习惯指定月份的月历网格
func (s *StatsService) HabitMonthGrid(habit db.Habit, month time.Time, firstWeekday int) ([]GridCell, error) {
	start, end := calendar.MonthRange(month)
	records, err := s.progress.ListBetween(habit.ID, start, end)
	if err != nil {
		return nil, err
	}
	return MonthlyGrid(ViewEntries(habit, records), month, firstWeekday), nil
}

// HabitYear 返回某习惯年初至今的汇总
func (s *StatsService) HabitYear(habit db.Habit, ref time.Time) YearSummary {
	return YearToDate(s.entriesFor(habit), ref)
}

// HabitLast365 返回某习惯最近 365 天的贡献条
func (s *StatsService) HabitLast365(habit db.Habit, ref time.Time) []GridCell {
	return Last365(s.entriesFor(habit), ref)
}

// BuildOverview 并发计算全部习惯的统计总览：每个习惯的账本读取与聚合相互独立，
// 各自在单独的 goroutine 内完成，经 channel 收集后按习惯排序值输出。
// 结果缓存 5 分钟，账本写入时失效。
func (s *StatsService) BuildOverview(asOf time.Time) (*Overview, error) {
	var cached Overview
	if err := cache.Get(overviewCacheKey, &cached); err == nil {
		return &cached, nil
	}

	habits, err := s.habits.List()
	if err != nil {
		return nil, err
	}

	overview := &Overview{Habits: []HabitOverview{}, HabitCount: len(habits)}
	if len(habits) == 0 {
		return overview, nil
	}

	results := make(chan HabitOverview, len(habits))
	var wg sync.WaitGroup

	for _, habit := range habits {
		wg.Add(1)
		go func(h db.Habit) {
			defer wg.Done()
			results <- s.overviewFor(h, asOf)
		}(habit)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	byID := make(map[uint]HabitOverview, len(habits))
	var totalRate float64
	for item := range results {
		byID[item.HabitID] = item
		totalRate += item.rate
	}

	// 恢复 List 的排序
	for _, habit := range habits {
		if item, ok := byID[habit.ID]; ok {
			overview.Habits = append(overview.Habits, item)
		}
	}
	if len(overview.Habits) > 0 {
		overview.OverallPct = Percent(totalRate / float64(len(overview.Habits)))
	}

	if err := cache.Set(overviewCacheKey, overview, statsCacheTTL); err != nil {
		logging.Logger.Warn("stats_overview_cache_failed", zap.Error(err))
	}

	return overview, nil
}

func (s *StatsService) overviewFor(habit db.Habit, asOf time.Time) HabitOverview {
	entries := s.entriesFor(habit)
	rate := CompletionRate(entries)

	item := HabitOverview{
		HabitID:       habit.ID,
		Name:          habit.Name,
		Emoji:         habit.Emoji,
		Color:         habit.Color,
		Type:          habit.Type,
		EntryCount:    len(entries),
		CompletionPct: Percent(rate),
		CurrentStreak: CurrentStreak(entries, asOf),
		LongestStreak: LongestStreak(entries),
		rate:          rate,
	}
	for _, entry := range entries {
		if entry.Completed {
			item.CompletedDays++
		}
	}
	return item
}

func completedDaySet(entries []DateProgress) map[string]bool {
	completed := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Completed {
			completed[dayKey(entry.Date)] = true
		}
	}
	return completed
}

// dayKey 以本地日历日期为键，避免跨时区的时间戳差异影响同日判断
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
