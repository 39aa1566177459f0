package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	RedisAddr         string
	LogPath           string
	FirstWeekday      int
	SuperRootUserName string
	SuperRootPassword string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "habitlog.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "habitlog-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/uploads"
	}

	logPath := strings.TrimSpace(os.Getenv("LOG_PATH"))
	if logPath == "" {
		logPath = "logs/app.log"
	}

	// 一周起始日，1=周日 ... 7=周六，影响周边界与月历网格的空白格
	firstWeekday := 1
	if raw := strings.TrimSpace(os.Getenv("FIRST_WEEKDAY")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 && parsed <= 7 {
			firstWeekday = parsed
		}
	}

	superRootUserName := strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME"))
	superRootPassword := strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD"))

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		UploadDir:         uploadDir,
		UploadURLPath:     uploadURLPath,
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		LogPath:           logPath,
		FirstWeekday:      firstWeekday,
		SuperRootUserName: superRootUserName,
		SuperRootPassword: superRootPassword,
	}
}
