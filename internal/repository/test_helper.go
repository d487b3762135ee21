package repository

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/mahjong-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// isCI 检查是否在CI环境中运行
func isCI() bool {
	// GitHub Actions 设置 CI=true
	// 其他CI系统也通常设置 CI 环境变量
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}

// SetupTestDB 为测试套件设置测试数据库
func SetupTestDB() *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		// 用户系统
		&models.User{},
		&models.UserProfile{},
		&models.UserAuth{},
		&models.UserSession{},

		// 钱包系统
		&models.Wallet{},
		&models.Transaction{},
		&models.BeanPackage{},
		&models.BeanPurchase{},

		// 麻将对局
		&models.MahjongScore{},
		&models.MahjongRound{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SeedTestUsers 创建带钱包的测试用户
func SeedTestUsers(t *testing.T, db *gorm.DB) []models.User {
	users := []models.User{
		{
			Username: "testuser1",
			Phone:    "13800138001",
			Email:    "test1@example.com",
			Nickname: "测试用户1",
			Status:   "active",
		},
		{
			Username: "testuser2",
			Phone:    "13800138002",
			Email:    "test2@example.com",
			Nickname: "测试用户2",
			Status:   "active",
		},
	}
	err := db.Create(&users).Error
	require.NoError(t, err)

	wallets := []models.Wallet{
		{UserID: users[0].ID, Beans: 10000},
		{UserID: users[1].ID, Beans: 5000},
	}
	err = db.Create(&wallets).Error
	require.NoError(t, err)

	return users
}

// CreateTestTransaction 创建测试交易记录
func CreateTestTransaction(userID uint, txType string, amount int64) *models.Transaction {
	return &models.Transaction{
		UserID:  userID,
		OrderNo: "test_order_" + time.Now().Format("20060102150405.000"),
		Type:    txType,
		Amount:  amount,
		Status:  "success",
	}
}

// CreateTestScore 创建测试积分记录
func CreateTestScore(userID uint, roomID string, round, delta, score int, rank string) *models.MahjongScore {
	return &models.MahjongScore{
		UserID: userID,
		RoomID: roomID,
		Round:  round,
		Delta:  delta,
		Score:  score,
		Rank:   rank,
	}
}
