package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开 sqlite 数据库文件并返回 GORM 句柄。
// The handle is returned to the caller instead of being kept in a package variable;
// main owns it and passes it to the repositories.
func Open(dbPath string, log *zap.Logger) (*gorm.DB, error) {
	// 确保数据库文件所在的目录存在
	dbDir := filepath.Dir(dbPath)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		log.Info("database directory does not exist, creating it", zap.String("dir", dbDir))
		if mkErr := os.MkdirAll(dbDir, 0755); mkErr != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dbDir, mkErr)
		}
	}

	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second, // 慢 SQL 阈值
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database %s: %w", dbPath, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}

	// One connection: sqlite serialises writers anyway and the workflow submits one at a time.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to database", zap.String("path", dbPath))
	return gormDB, nil
}

// Close 关闭 GORM 数据库连接 (通常在应用退出时调用)
func Close(gormDB *gorm.DB, log *zap.Logger) {
	if gormDB == nil {
		return
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Error("get underlying sql.DB for closing", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("close database", zap.Error(err))
		return
	}
	log.Info("database connection closed")
}
