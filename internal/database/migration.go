package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wfunc/mahjong-game/internal/logger"
	"github.com/wfunc/mahjong-game/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	// 注意：SQLite性能优化已在database.go的Init函数中完成

	migrationModels := []interface{}{
		// 用户相关
		&models.User{},
		&models.UserProfile{},
		&models.UserAuth{},
		&models.UserSession{},

		// 钱包/交易相关
		&models.Wallet{},
		&models.Transaction{},
		&models.BeanPackage{},
		&models.BeanPurchase{},

		// 麻将对局相关
		&models.MahjongScore{},
		&models.MahjongRound{},
	}

	// 执行迁移
	logger.Info("开始数据库迁移...")

	// 设置 SQLite 专用配置，避免锁定问题
	if DB.Dialector.Name() == "sqlite" {
		// 禁用外键约束，避免重建表时的问题
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	for _, model := range migrationModels {
		tableName := getTableName(model)

		// 检查表是否存在且有数据
		if shouldSkipMigration(tableName) {
			logger.Info("跳过大型表的迁移", zap.String("table", tableName))
			continue
		}

		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// 创建索引
	if err := createIndexes(); err != nil {
		return err
	}

	// 初始化默认数据
	if err := initDefaultData(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引
func createIndexes() error {
	// 用户表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_users_username"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_users_phone"), zap.Error(err))
	}

	// 交易表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_transactions_user_id"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_transactions_type"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_transactions_created_at"), zap.Error(err))
	}

	// 积分历史表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_mahjong_scores_user_id ON mahjong_scores(user_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_mahjong_scores_user_id"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_mahjong_scores_room_id ON mahjong_scores(room_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_mahjong_scores_room_id"), zap.Error(err))
	}

	// 对局记录表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_mahjong_rounds_room_id ON mahjong_rounds(room_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_mahjong_rounds_room_id"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_mahjong_rounds_winner ON mahjong_rounds(winner_user_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_mahjong_rounds_winner"), zap.Error(err))
	}

	logger.Info("数据库索引创建完成")
	return nil
}

// initDefaultData 初始化默认数据
func initDefaultData() error {
	// 检查是否已有数据
	var count int64
	DB.Model(&models.BeanPackage{}).Count(&count)
	if count > 0 {
		return nil
	}

	// 创建默认欢乐豆充值套餐
	defaultPackages := []models.BeanPackage{
		{
			Name:       "新手豆包",
			BeanAmount: 1000,
			BonusBeans: 0,
			Price:      100, // 1元
			Status:     "active",
			SortOrder:  1,
		},
		{
			Name:       "畅玩豆包",
			BeanAmount: 6000,
			BonusBeans: 600,
			Price:      600,
			Status:     "active",
			SortOrder:  2,
		},
		{
			Name:       "豪华豆包",
			BeanAmount: 30000,
			BonusBeans: 6000,
			Price:      3000,
			Status:     "active",
			SortOrder:  3,
		},
		{
			Name:       "至尊豆包",
			BeanAmount: 98000,
			BonusBeans: 30000,
			Price:      9800,
			Status:     "active",
			SortOrder:  4,
		},
	}

	for _, pkg := range defaultPackages {
		if err := DB.Create(&pkg).Error; err != nil {
			logger.Error("创建默认豆包失败",
				zap.String("name", pkg.Name),
				zap.Error(err),
			)
		}
	}

	logger.Info("默认数据初始化完成")
	return nil
}

// getTableName 获取模型对应的表名
func getTableName(model interface{}) string {
	// 使用反射获取类型
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	// 尝试调用TableName方法
	if tabler, ok := model.(interface{ TableName() string }); ok {
		return tabler.TableName()
	}

	// 否则使用GORM默认的表名规则
	modelName := t.Name()
	// 转换为蛇形命名并复数化
	tableName := toSnakeCase(modelName) + "s"
	return tableName
}

// toSnakeCase 将驼峰命名转换为蛇形命名
func toSnakeCase(s string) string {
	var result []rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result = append(result, '_')
		}
		result = append(result, r)
	}
	return strings.ToLower(string(result))
}

// shouldSkipMigration 检查是否应该跳过迁移
func shouldSkipMigration(tableName string) bool {
	// 交易流水表会随对局持续增长，数据量大时只补索引不动表结构
	if tableName == "transactions" || tableName == "mahjong_scores" {
		var count int64
		var exists bool

		// 检查表是否存在
		err := DB.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&exists).Error
		if err != nil || !exists {
			return false
		}

		// 检查表中的数据量
		DB.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)).Scan(&count)

		// 如果表存在且数据量超过10000条，跳过迁移
		if count > 10000 {
			logger.Info("表中数据量较大，跳过AutoMigrate",
				zap.String("table", tableName),
				zap.Int64("count", count))

			ensureIndexesForLargeTable(tableName)
			return true
		}
	}
	return false
}

// ensureIndexesForLargeTable 为大表确保索引存在
func ensureIndexesForLargeTable(tableName string) {
	var indexes []string
	switch tableName {
	case "transactions":
		indexes = []string{
			"CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)",
			"CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type)",
			"CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)",
		}
	case "mahjong_scores":
		indexes = []string{
			"CREATE INDEX IF NOT EXISTS idx_mahjong_scores_user_id ON mahjong_scores(user_id)",
			"CREATE INDEX IF NOT EXISTS idx_mahjong_scores_room_id ON mahjong_scores(room_id)",
		}
	}

	for _, idx := range indexes {
		if err := DB.Exec(idx).Error; err != nil {
			// 忽略索引已存在的错误
			if !strings.Contains(err.Error(), "already exists") {
				logger.Warn("创建索引失败", zap.String("index", idx), zap.Error(err))
			}
		}
	}
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 获取所有表名
	var tables []string
	if err := DB.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tables).Error; err != nil {
		return err
	}

	// 删除所有表
	for _, table := range tables {
		if err := DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			logger.Error("删除表失败", zap.String("table", table), zap.Error(err))
			return err
		}
	}

	logger.Info("所有表已删除")
	return nil
}
