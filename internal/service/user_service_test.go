package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wfunc/mahjong-game/internal/models"
	"github.com/wfunc/mahjong-game/internal/repository"
	"github.com/wfunc/mahjong-game/internal/utils"
)

// UserServiceTestSuite 用户服务测试套件
type UserServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	db          *gorm.DB
	userService UserService
	userRepo    repository.UserRepository
	authRepo    repository.UserAuthRepository
	walletRepo  repository.WalletRepository
	scoreRepo   repository.MahjongScoreRepository
	roundRepo   repository.MahjongRoundRepository
	logger      *zap.Logger
}

func (suite *UserServiceTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	suite.logger = zap.NewNop()
}

func (suite *UserServiceTestSuite) SetupTest() {
	// 每个测试创建新的内存数据库（避免并发问题）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)

	// 自动迁移
	err = db.AutoMigrate(
		&models.User{},
		&models.UserAuth{},
		&models.UserProfile{},
		&models.UserSession{},
		&models.Wallet{},
		&models.Transaction{},
		&models.MahjongScore{},
		&models.MahjongRound{},
	)
	suite.NoError(err)

	suite.db = db

	// 创建repository和service
	suite.userRepo = repository.NewUserRepository(suite.db)
	suite.authRepo = repository.NewUserAuthRepository(suite.db)
	suite.walletRepo = repository.NewWalletRepository(suite.db)
	suite.scoreRepo = repository.NewMahjongScoreRepository(suite.db)
	suite.roundRepo = repository.NewMahjongRoundRepository(suite.db)

	suite.userService = NewUserService(
		suite.db,
		suite.userRepo,
		suite.authRepo,
		suite.walletRepo,
		suite.scoreRepo,
		suite.roundRepo,
		suite.logger,
	)

	// 创建测试用户
	suite.createTestUsers()
}

func (suite *UserServiceTestSuite) createTestUsers() {
	users := []models.User{
		{
			Username: "testuser1",
			Email:    "test1@example.com",
			Phone:    "13800000001",
			Nickname: "TestNick1",
			Status:   "active",
		},
		{
			Username: "testuser2",
			Email:    "test2@example.com",
			Phone:    "13800000002",
			Nickname: "TestNick2",
			Status:   "active",
		},
		{
			Username: "banneduser",
			Email:    "banned@example.com",
			Phone:    "13800000003",
			Nickname: "BannedNick",
			Status:   "banned",
		},
	}

	for _, user := range users {
		suite.db.Create(&user)

		// 创建对应的认证信息
		hashedPassword, _ := utils.HashPassword("password123")
		auth := models.UserAuth{
			UserID:   user.ID,
			Password: hashedPassword,
		}
		suite.db.Create(&auth)

		// 创建钱包
		wallet := models.Wallet{
			UserID: user.ID,
			Beans:  1000,
		}
		suite.db.Create(&wallet)
	}
}

func (suite *UserServiceTestSuite) mustFindUser(username string) *models.User {
	var user models.User
	err := suite.db.First(&user, "username = ?", username).Error
	suite.NoError(err)
	return &user
}

// TestGetUserByID 测试根据ID获取用户
func (suite *UserServiceTestSuite) TestGetUserByID() {
	testUser := suite.mustFindUser("testuser1")

	user, err := suite.userService.GetUserByID(suite.ctx, testUser.ID)
	suite.NoError(err)
	suite.Equal("testuser1", user.Username)
	suite.Equal("TestNick1", user.Nickname)

	// 不存在的用户
	_, err = suite.userService.GetUserByID(suite.ctx, 99999)
	suite.Error(err)
}

// TestGetUserByUsername 测试根据用户名获取用户
func (suite *UserServiceTestSuite) TestGetUserByUsername() {
	user, err := suite.userService.GetUserByUsername(suite.ctx, "testuser2")
	suite.NoError(err)
	suite.Equal("test2@example.com", user.Email)

	_, err = suite.userService.GetUserByUsername(suite.ctx, "nobody")
	suite.Error(err)
}

// TestUpdateUser 测试更新用户信息
func (suite *UserServiceTestSuite) TestUpdateUser() {
	testUser := suite.mustFindUser("testuser1")

	err := suite.userService.UpdateUser(suite.ctx, testUser.ID, map[string]interface{}{
		"nickname": "新昵称",
		"avatar":   "https://example.com/avatar.png",
	})
	suite.NoError(err)

	updated, err := suite.userService.GetUserByID(suite.ctx, testUser.ID)
	suite.NoError(err)
	suite.Equal("新昵称", updated.Nickname)
	suite.Equal("https://example.com/avatar.png", updated.Avatar)
}

// TestUpdatePassword 测试修改密码
func (suite *UserServiceTestSuite) TestUpdatePassword() {
	testUser := suite.mustFindUser("testuser1")

	// 旧密码错误
	err := suite.userService.UpdatePassword(suite.ctx, testUser.ID, "wrongpass", "newpassword")
	suite.Error(err)

	// 新密码太短
	err = suite.userService.UpdatePassword(suite.ctx, testUser.ID, "password123", "123")
	suite.Error(err)

	// 正常修改
	err = suite.userService.UpdatePassword(suite.ctx, testUser.ID, "password123", "newpassword")
	suite.NoError(err)

	auth, err := suite.authRepo.FindByUserID(suite.ctx, testUser.ID)
	suite.NoError(err)
	valid, err := utils.VerifyPassword("newpassword", auth.Password)
	suite.NoError(err)
	suite.True(valid)
}

// TestBanAndUnbanUser 测试封禁与解封
func (suite *UserServiceTestSuite) TestBanAndUnbanUser() {
	testUser := suite.mustFindUser("testuser1")

	err := suite.userService.BanUser(suite.ctx, testUser.ID, "违规发言", 0)
	suite.NoError(err)

	banned, err := suite.userService.GetUserByID(suite.ctx, testUser.ID)
	suite.NoError(err)
	suite.Equal("banned", banned.Status)

	err = suite.userService.UnbanUser(suite.ctx, testUser.ID)
	suite.NoError(err)

	active, err := suite.userService.GetUserByID(suite.ctx, testUser.ID)
	suite.NoError(err)
	suite.Equal("active", active.Status)
}

// TestUpdateUserStatusInvalid 测试非法状态被拒绝
func (suite *UserServiceTestSuite) TestUpdateUserStatusInvalid() {
	testUser := suite.mustFindUser("testuser1")
	err := suite.userService.UpdateUserStatus(suite.ctx, testUser.ID, "whatever")
	suite.Error(err)
}

// TestGetUserStats 测试用户统计
func (suite *UserServiceTestSuite) TestGetUserStats() {
	testUser := suite.mustFindUser("testuser1")

	// 三局记录：两胜一负，最终积分80（青铜）
	scores := []models.MahjongScore{
		{UserID: testUser.ID, RoomID: "room-1", Round: 1, Delta: 30, Score: 30, Rank: "青铜"},
		{UserID: testUser.ID, RoomID: "room-1", Round: 2, Delta: -10, Score: 20, Rank: "青铜"},
		{UserID: testUser.ID, RoomID: "room-1", Round: 3, Delta: 60, Score: 80, Rank: "青铜"},
	}
	for i := range scores {
		suite.NoError(suite.db.Create(&scores[i]).Error)
	}

	// 钱包累计输赢
	suite.db.Model(&models.Wallet{}).
		Where("user_id = ?", testUser.ID).
		Updates(map[string]interface{}{"total_win": 900, "total_lose": 300})

	stats, err := suite.userService.GetUserStats(suite.ctx, testUser.ID)
	suite.NoError(err)
	suite.Equal(3, stats.TotalGames)
	suite.Equal(2, stats.TotalWins)
	suite.Equal(80, stats.Score)
	suite.Equal("青铜", stats.Rank)
	suite.Equal(int64(900), stats.TotalWinAmount)
	suite.Equal(int64(300), stats.TotalLoseAmount)
	suite.InDelta(66.6, stats.WinRate, 0.1)
}

// TestGetUserStatsEmpty 测试没有对局记录时的统计
func (suite *UserServiceTestSuite) TestGetUserStatsEmpty() {
	testUser := suite.mustFindUser("testuser2")

	stats, err := suite.userService.GetUserStats(suite.ctx, testUser.ID)
	suite.NoError(err)
	suite.Equal(0, stats.TotalGames)
	suite.Equal(0, stats.Score)
	suite.Empty(stats.Rank)
}

// TestGetUserGameHistory 测试对局历史分页
func (suite *UserServiceTestSuite) TestGetUserGameHistory() {
	testUser := suite.mustFindUser("testuser1")

	for i := 1; i <= 15; i++ {
		score := models.MahjongScore{
			UserID: testUser.ID,
			RoomID: fmt.Sprintf("room-%d", i),
			Round:  1,
			Delta:  10,
			Score:  i * 10,
			Rank:   "青铜",
		}
		suite.NoError(suite.db.Create(&score).Error)
	}

	records, total, err := suite.userService.GetUserGameHistory(suite.ctx, testUser.ID, 1, 10)
	suite.NoError(err)
	suite.Equal(int64(15), total)
	suite.Len(records, 10)

	records, _, err = suite.userService.GetUserGameHistory(suite.ctx, testUser.ID, 2, 10)
	suite.NoError(err)
	suite.Len(records, 5)
}

// TestGetLeaderboard 测试排行榜取每人最新积分并降序排列
func (suite *UserServiceTestSuite) TestGetLeaderboard() {
	u1 := suite.mustFindUser("testuser1")
	u2 := suite.mustFindUser("testuser2")

	records := []models.MahjongScore{
		{UserID: u1.ID, RoomID: "room-1", Round: 1, Delta: 40, Score: 40, Rank: "青铜"},
		{UserID: u1.ID, RoomID: "room-1", Round: 2, Delta: 80, Score: 120, Rank: "白银"},
		{UserID: u2.ID, RoomID: "room-2", Round: 1, Delta: 350, Score: 350, Rank: "黄金"},
	}
	for i := range records {
		suite.NoError(suite.db.Create(&records[i]).Error)
	}

	entries, err := suite.userService.GetLeaderboard(suite.ctx, 10)
	suite.NoError(err)
	suite.Len(entries, 2)
	suite.Equal(u2.ID, entries[0].UserID)
	suite.Equal(350, entries[0].Score)
	suite.Equal("黄金", entries[0].Rank)
	suite.Equal(u1.ID, entries[1].UserID)
	suite.Equal(120, entries[1].Score)
}

// TestRunUserServiceTestSuite 运行测试套件
func TestRunUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
