package handler

import (
	"github.com/habitlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	habits       *service.HabitService
	progress     *service.ProgressService
	stats        *service.StatsService
	reminders    *service.ReminderService
	profiles     *service.ProfileService
	firstWeekday int
	uploadDir    string
	uploadURL    string
}

// Options 控制 handler 层的可变参数
type Options struct {
	FirstWeekday int
	UploadDir    string
	UploadURL    string
	Scheduler    service.Scheduler
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	if opts.FirstWeekday < 1 || opts.FirstWeekday > 7 {
		opts.FirstWeekday = 1
	}
	if opts.Scheduler == nil {
		opts.Scheduler = service.LogScheduler{}
	}

	habitService := service.NewHabitService(gdb)
	progressService := service.NewProgressService(gdb)

	return &API{
		db:           gdb,
		habits:       habitService,
		progress:     progressService,
		stats:        service.NewStatsService(habitService, progressService),
		reminders:    service.NewReminderService(gdb, opts.Scheduler),
		profiles:     service.NewProfileService(gdb),
		firstWeekday: opts.FirstWeekday,
		uploadDir:    opts.UploadDir,
		uploadURL:    opts.UploadURL,
	}
}
