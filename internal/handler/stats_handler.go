package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/calendar"
	"github.com/habitlog/internal/service"
)

const monthFormat = "2006-01"

func gridPayload(cells []service.GridCell) []gin.H {
	items := make([]gin.H, 0, len(cells))
	for _, cell := range cells {
		if cell.Blank {
			items = append(items, gin.H{"blank": true})
			continue
		}
		items = append(items, gin.H{
			"blank":     false,
			"date":      formatDay(cell.Day),
			"progress":  cell.Progress,
			"completed": cell.Completed,
		})
	}
	return items
}

func allTimePayload(summary service.AllTimeSummary) gin.H {
	payload := gin.H{
		"total_days":     summary.TotalDays,
		"completed_days": summary.CompletedDays,
		"percent":        summary.Percent,
		"current_streak": summary.CurrentStreak,
		"longest_streak": summary.LongestStreak,
	}
	if !summary.StartDate.IsZero() {
		payload["start_date"] = formatDay(summary.StartDate)
	}
	return payload
}

func yearPayload(summary service.YearSummary) gin.H {
	return gin.H{
		"year":           summary.Year,
		"total_days":     summary.TotalDays,
		"completed_days": summary.CompletedDays,
		"percent":        summary.Percent,
		"longest_streak": summary.LongestStreak,
	}
}

// HabitMonthGrid 返回某习惯某月的日历网格，?month=YYYY-MM 缺省为当月
func (a *API) HabitMonthGrid(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	month := calendar.StartOfDay(time.Now())
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.ParseInLocation(monthFormat, raw, time.Local)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		month = parsed
	}

	cells, err := a.stats.HabitMonthGrid(*habit, month, a.firstWeekday)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取月历失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit_id": habit.ID,
		"month":    month.Format(monthFormat),
		"cells":    gridPayload(cells),
	})
}

// HabitAllTime 返回某习惯自首条记录以来的汇总
func (a *API) HabitAllTime(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	asOf, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	summary := a.stats.HabitAllTime(*habit, asOf)
	c.JSON(http.StatusOK, gin.H{"habit_id": habit.ID, "summary": allTimePayload(summary)})
}

// HabitYear 返回某习惯年初至今的汇总
func (a *API) HabitYear(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	ref, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	summary := a.stats.HabitYear(*habit, ref)
	c.JSON(http.StatusOK, gin.H{"habit_id": habit.ID, "summary": yearPayload(summary)})
}

// HabitLast365 返回某习惯最近 365 天的贡献条
func (a *API) HabitLast365(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	ref, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	cells := a.stats.HabitLast365(*habit, ref)
	c.JSON(http.StatusOK, gin.H{"habit_id": habit.ID, "cells": gridPayload(cells)})
}

// Overview 返回全部习惯的统计总览
func (a *API) Overview(c *gin.Context) {
	asOf, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := a.stats.BuildOverview(asOf)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取统计总览失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"overview": overview})
}
