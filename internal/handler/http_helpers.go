package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/calendar"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseDateQuery 解析 ?<key>=YYYY-MM-DD，缺省回退到今天，统一归一化到零点
func parseDateQuery(c *gin.Context, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return calendar.StartOfDay(time.Now()), nil
	}

	parsed, err := time.ParseInLocation(dateFormat, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, expected YYYY-MM-DD", key)
	}
	return calendar.StartOfDay(parsed), nil
}

// parseDayField 解析请求体里的日期字段，缺省回退到今天
func parseDayField(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return calendar.StartOfDay(time.Now()), nil
	}

	parsed, err := time.ParseInLocation(dateFormat, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date, expected YYYY-MM-DD")
	}
	return calendar.StartOfDay(parsed), nil
}

func formatDay(t time.Time) string {
	return t.Format(dateFormat)
}
