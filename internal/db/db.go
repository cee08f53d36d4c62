package db

import (
	"fmt"
	"log/slog"
	"newsroom/internal/models"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 连接数据库并完成迁移，失败直接退出
func Init(dsn string, seedPublishers []string) {
	var err error
	DB, err = Open(dsn)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := Migrate(DB); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database migration completed")

	SeedPublishers(DB, seedPublishers)
}

// Open 根据 DSN 选择驱动：sqlite: 或 file: 前缀走 sqlite，其余走 postgres
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}

	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("error getting sql.DB: %w", err)
		}
		// 内存库每个连接都是独立的数据库
		sqlDB.SetMaxOpenConns(1)
	}

	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Publisher{},
		&models.Article{},
		&models.PublisherSubscription{},
		&models.JournalistSubscription{},
		&models.Notification{},
		&models.Newsletter{},
	)
}

// SeedPublishers 首次启动时创建预设出版方
func SeedPublishers(conn *gorm.DB, names []string) {
	if len(names) == 0 {
		return
	}

	var count int64
	conn.Model(&models.Publisher{}).Count(&count)
	if count > 0 {
		slog.Info("publishers already seeded, skipping")
		return
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := conn.Create(&models.Publisher{Name: name}).Error; err != nil {
			slog.Error("failed to seed publisher", "name", name, "error", err)
		}
	}
	slog.Info("initial publishers created", "count", len(names))
}
