package db

import (
	"fmt"

	"shop/internal/config"
	"shop/internal/domain/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		// 一意制約違反を gorm.ErrDuplicatedKey に変換させる
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch cfg.Driver {
	case "", "postgres":
		return gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("MYSQL_DSN is required when DB_DRIVER=mysql")
		}
		return gorm.Open(mysql.Open(cfg.MySQLDSN), gcfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.Driver)
	}
}

// Migrate は全テーブルを作成・更新する。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}
