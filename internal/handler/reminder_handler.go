package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

func reminderPayload(reminder db.HabitReminder) gin.H {
	return gin.H{
		"habit_id": reminder.HabitID,
		"weekdays": reminder.WeekdayCodes(),
		"time":     reminder.TimeOfDay,
	}
}

// SetReminder 设置或替换某习惯的提醒计划
func (a *API) SetReminder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		Weekdays []int  `json:"weekdays"`
		Time     string `json:"time"`
	}
	if !bindJSON(c, &payload, "请求数据格式错误") {
		return
	}

	reminder, err := a.reminders.Set(id, payload.Weekdays, payload.Time)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHabitNotFound):
			respondError(c, http.StatusNotFound, "习惯不存在")
		case errors.Is(err, service.ErrReminderInvalidInput):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "设置提醒失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminderPayload(*reminder)})
}

// GetReminder 查询某习惯的提醒计划，未设置时 reminder 为 null
func (a *API) GetReminder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	reminder, err := a.reminders.Get(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取提醒失败")
		return
	}
	if reminder == nil {
		c.JSON(http.StatusOK, gin.H{"reminder": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminderPayload(*reminder)})
}

// CancelReminder 取消某习惯的提醒计划，未设置时同样视为成功
func (a *API) CancelReminder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.reminders.Cancel(id); err != nil {
		respondError(c, http.StatusInternalServerError, "取消提醒失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已取消"})
}
