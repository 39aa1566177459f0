package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/calendar"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

func dayViewPayload(view service.DateProgress) gin.H {
	return gin.H{
		"date":      formatDay(view.Date),
		"progress":  view.Progress,
		"goal":      view.Goal,
		"completed": view.Completed,
		"note":      view.Note,
	}
}

// loadHabit 解析路径里的习惯 ID 并加载习惯，失败时已写响应
func (a *API) loadHabit(c *gin.Context) (*db.Habit, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, "获取习惯失败")
		return nil, false
	}
	return habit, true
}

// UpsertProgress 写入某日进度，同一 (习惯, 日期) 幂等覆盖
func (a *API) UpsertProgress(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	var payload struct {
		Date     string `json:"date"`
		Progress int    `json:"progress"`
	}
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	day, err := parseDayField(payload.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := a.progress.UpsertProgress(habit.ID, day, payload.Progress, habit.DailyGoal); err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "写入进度失败")
		return
	}

	view, err := a.progress.DayView(*habit, day)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "写入进度失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": dayViewPayload(view)})
}

// UpsertChecked 打卡式写入，checked 为真记 1 反之记 0
func (a *API) UpsertChecked(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	var payload struct {
		Date    string `json:"date"`
		Checked bool   `json:"checked"`
	}
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	day, err := parseDayField(payload.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := a.progress.UpsertChecked(habit.ID, day, payload.Checked); err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "打卡失败")
		return
	}

	view, err := a.progress.DayView(*habit, day)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "打卡失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": dayViewPayload(view)})
}

// SetNote 写当日备注，进度值保持不变
func (a *API) SetNote(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	var payload struct {
		Date string `json:"date"`
		Note string `json:"note"`
	}
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	day, err := parseDayField(payload.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := a.progress.SetNote(habit.ID, day, payload.Note); err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "保存备注失败")
		return
	}

	view, err := a.progress.DayView(*habit, day)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存备注失败")
		return
	}

	out := dayViewPayload(view)
	out["note_html"] = renderNoteHTML(view.Note)
	c.JSON(http.StatusOK, gin.H{"progress": out})
}

// GetDayProgress 读取某日进度；无记录时返回零值视图，不落库
func (a *API) GetDayProgress(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	day, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := a.progress.DayView(*habit, day)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取进度失败")
		return
	}

	out := dayViewPayload(view)
	out["note_html"] = renderNoteHTML(view.Note)
	c.JSON(http.StatusOK, gin.H{"progress": out})
}

// ListProgress 按 [from, to] 闭区间返回某习惯的进度记录，升序
func (a *API) ListProgress(c *gin.Context) {
	habit, ok := a.loadHabit(c)
	if !ok {
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		respondError(c, http.StatusBadRequest, "invalid range, from must not be after to")
		return
	}

	records, err := a.progress.ListBetween(habit.ID, from, calendar.AddDays(to, 1))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取进度失败")
		return
	}

	views := service.ViewEntries(*habit, records)
	items := make([]gin.H, 0, len(views))
	for _, view := range views {
		items = append(items, dayViewPayload(view))
	}
	c.JSON(http.StatusOK, gin.H{"habit_id": habit.ID, "entries": items})
}
