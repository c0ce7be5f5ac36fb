package database

import (
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/logger"
)

// ActionRow 已创建的 ActionRecord 索引
type ActionRow struct {
	ID           int64     `gorm:"primaryKey"`
	Hash         string    `gorm:"uniqueIndex;not null"`
	OriginalName string    `gorm:"not null"`
	OriginalPath string    `gorm:"not null"`
	ActionFile   string    `gorm:"not null"`
	Size         int64     `gorm:"not null"`
	Priority     string    `gorm:"not null"`
	DetectedAt   time.Time `gorm:"index;not null"`
}

func (ActionRow) TableName() string {
	return "action_records"
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	expandedPath, err := expandPath(dbPath)
	if err != nil {
		logger.Get().Error().Err(err).Msg("扩展数据库路径失败")
		return nil, err
	}

	logger.Get().Info().Msgf("初始化数据库，路径: %s", expandedPath)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		logger.Get().Error().Err(err).Msgf("创建数据库目录失败: %s", filepath.Dir(expandedPath))
		return nil, err
	}

	dsn := expandedPath + "?_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Get().Error().Err(err).Msg("打开数据库连接失败")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&ActionRow{}); err != nil {
		logger.Get().Error().Err(err).Msg("创建数据库表失败")
		return nil, err
	}

	logger.Get().Info().Msg("数据库初始化完成")
	return &Database{db: db}, nil
}

func expandPath(path string) (string, error) {
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Insert 记录一个新建的 ActionRecord
func (d *Database) Insert(file internal.WatchedFile, actionFile string) error {
	row := &ActionRow{
		Hash:         file.Hash,
		OriginalName: file.Name,
		OriginalPath: file.Path,
		ActionFile:   actionFile,
		Size:         file.Size,
		Priority:     string(file.Priority),
		DetectedAt:   file.DetectedAt,
	}

	if err := d.db.Create(row).Error; err != nil {
		logger.Get().Error().Err(err).Msgf("插入记录失败: %s", file.Name)
		return err
	}

	logger.Get().Debug().Msgf("插入记录成功: %s -> %s", file.Name, actionFile)
	return nil
}

// Recent 按检测时间倒序返回最近的记录
func (d *Database) Recent(limit int) ([]ActionRow, error) {
	var rows []ActionRow
	if err := d.db.Order("detected_at desc").Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		logger.Get().Error().Err(err).Msg("查询记录失败")
		return nil, err
	}
	return rows, nil
}

// Hashes 返回全部已记录的指纹
func (d *Database) Hashes() ([]string, error) {
	var hashes []string
	if err := d.db.Model(&ActionRow{}).Pluck("hash", &hashes).Error; err != nil {
		logger.Get().Error().Err(err).Msg("加载指纹失败")
		return nil, err
	}
	return hashes, nil
}

func (d *Database) Close() error {
	logger.Get().Info().Msg("关闭数据库连接")
	sqlDB, err := d.db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return err
	}
	return sqlDB.Close()
}
