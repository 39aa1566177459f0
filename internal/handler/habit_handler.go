package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

type habitPayload struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Emoji          string `json:"emoji"`
	Color          string `json:"color"`
	Type           string `json:"type"`
	DailyGoal      int    `json:"daily_goal"`
	ActiveWeekdays []int  `json:"active_weekdays"`
	Sort           int    `json:"sort"`
	CreatedAt      string `json:"created_at"`
}

type habitInputPayload struct {
	Name           string `json:"name"`
	Emoji          string `json:"emoji"`
	Color          string `json:"color"`
	Type           string `json:"type"`
	DailyGoal      int    `json:"daily_goal"`
	ActiveWeekdays []int  `json:"active_weekdays"`
}

func habitToPayload(habit db.Habit) habitPayload {
	return habitPayload{
		ID:             habit.ID,
		Name:           habit.Name,
		Emoji:          habit.Emoji,
		Color:          habit.Color,
		Type:           habit.Type,
		DailyGoal:      habit.DailyGoal,
		ActiveWeekdays: habit.WeekdayCodes(),
		Sort:           habit.Sort,
		CreatedAt:      habit.CreatedAt.Format(dateFormat),
	}
}

func habitInputFromPayload(payload habitInputPayload) service.HabitInput {
	return service.HabitInput{
		Name:           payload.Name,
		Emoji:          payload.Emoji,
		Color:          payload.Color,
		Type:           payload.Type,
		DailyGoal:      payload.DailyGoal,
		ActiveWeekdays: payload.ActiveWeekdays,
	}
}

// ListHabits 返回习惯列表 JSON；带 ?date= 时只返回该日生效的习惯及其当日进度
func (a *API) ListHabits(c *gin.Context) {
	if raw := c.Query("date"); raw != "" {
		a.listHabitsForDate(c)
		return
	}

	habits, err := a.habits.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]habitPayload, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

func (a *API) listHabitsForDate(c *gin.Context) {
	day, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	habits, err := a.habits.ActiveOn(day)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		view, err := a.progress.DayView(habit, day)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "获取当日进度失败")
			return
		}
		items = append(items, gin.H{
			"habit":    habitToPayload(habit),
			"progress": dayViewPayload(view),
		})
	}

	c.JSON(http.StatusOK, gin.H{"date": formatDay(day), "habits": items})
}

// GetHabit 返回单个习惯
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取习惯失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// CreateHabit 新建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitInputPayload
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	habit, err := a.habits.Create(habitInputFromPayload(payload))
	if err != nil {
		if errors.Is(err, service.ErrHabitInvalidInput) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "创建习惯失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(*habit)})
}

// UpdateHabit 更新习惯定义
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload habitInputPayload
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	habit, err := a.habits.Update(id, habitInputFromPayload(payload))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHabitNotFound):
			respondError(c, http.StatusNotFound, "习惯不存在")
		case errors.Is(err, service.ErrHabitInvalidInput):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "更新习惯失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// DeleteHabit 删除习惯及其关联数据，并取消提醒
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.reminders.Cancel(id); err != nil {
		respondError(c, http.StatusInternalServerError, "取消提醒失败")
		return
	}

	if err := a.habits.Delete(id); err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "删除习惯失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已删除"})
}

// ReorderHabits 按请求给定的 ID 顺序整体重排
func (a *API) ReorderHabits(c *gin.Context) {
	var payload struct {
		IDs []uint `json:"ids"`
	}
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	if err := a.habits.Reorder(payload.IDs); err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusBadRequest, "重排包含不存在的习惯")
			return
		}
		respondError(c, http.StatusInternalServerError, "重排失败")
		return
	}

	habits, err := a.habits.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]habitPayload, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}
	c.JSON(http.StatusOK, gin.H{"habits": items})
}
