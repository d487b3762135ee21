package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/mahjong-game/internal/models"
	"gorm.io/gorm"
)

// UserRepositoryTestSuite 用户仓储测试套件
type UserRepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	userRepo    UserRepository
	authRepo    UserAuthRepository
	sessionRepo UserSessionRepository
}

func (suite *UserRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.userRepo = NewUserRepository(suite.db)
	suite.authRepo = NewUserAuthRepository(suite.db)
	suite.sessionRepo = NewUserSessionRepository(suite.db)
}

func (suite *UserRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestUserRepository_Create 测试创建用户
func (suite *UserRepositoryTestSuite) TestUserRepository_Create() {
	ctx := context.Background()
	user := &models.User{
		Username: "newuser",
		Email:    "newuser@example.com",
		Phone:    "13900139000",
	}

	err := suite.userRepo.Create(ctx, user)
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), user.ID)
	// BeforeCreate钩子补齐默认值
	assert.Equal(suite.T(), "newuser", user.Nickname)
	assert.Equal(suite.T(), "active", user.Status)
}

// TestUserRepository_FindByUsername 测试按用户名查找
func (suite *UserRepositoryTestSuite) TestUserRepository_FindByUsername() {
	ctx := context.Background()
	user := &models.User{Username: "finduser", Email: "find@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	found, err := suite.userRepo.FindByUsername(ctx, "finduser")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, found.ID)

	_, err = suite.userRepo.FindByUsername(ctx, "ghost")
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "用户不存在")
}

// TestUserRepository_UpdateStatus 测试更新状态
func (suite *UserRepositoryTestSuite) TestUserRepository_UpdateStatus() {
	ctx := context.Background()
	user := &models.User{Username: "statususer", Email: "status@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	err := suite.userRepo.UpdateStatus(ctx, user.ID, "frozen")
	assert.NoError(suite.T(), err)

	found, err := suite.userRepo.FindByID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "frozen", found.Status)
	assert.False(suite.T(), found.IsActive())
}

// TestUserRepository_Delete 测试软删除
func (suite *UserRepositoryTestSuite) TestUserRepository_Delete() {
	ctx := context.Background()
	user := &models.User{Username: "deleteuser", Email: "delete@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	err := suite.userRepo.Delete(ctx, user.ID)
	assert.NoError(suite.T(), err)

	_, err = suite.userRepo.FindByID(ctx, user.ID)
	assert.Error(suite.T(), err)
}

// TestUserAuthRepository_LoginAttempts 测试登录尝试计数与锁定
func (suite *UserRepositoryTestSuite) TestUserAuthRepository_LoginAttempts() {
	ctx := context.Background()
	user := &models.User{Username: "authuser", Email: "auth@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	auth := &models.UserAuth{
		UserID:   user.ID,
		Password: "hashed-password",
	}
	suite.Require().NoError(suite.authRepo.Create(ctx, auth))

	err := suite.authRepo.UpdateLoginAttempts(ctx, user.ID, 3)
	assert.NoError(suite.T(), err)

	found, err := suite.authRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, found.LoginAttempts)

	until := time.Now().Add(30 * time.Minute)
	err = suite.authRepo.LockAccount(ctx, user.ID, until)
	assert.NoError(suite.T(), err)

	err = suite.authRepo.ResetLoginAttempts(ctx, user.ID)
	assert.NoError(suite.T(), err)

	found, err = suite.authRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, found.LoginAttempts)
	assert.Nil(suite.T(), found.LockedUntil)
}

// TestUserSessionRepository_Lifecycle 测试会话的创建、查询与清理
func (suite *UserRepositoryTestSuite) TestUserSessionRepository_Lifecycle() {
	ctx := context.Background()
	user := &models.User{Username: "sessionuser", Email: "session@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	session := &models.UserSession{
		UserID:    user.ID,
		SessionID: "sess_001",
		Token:     "token_001",
		ExpireAt:  time.Now().Add(time.Hour),
	}
	suite.Require().NoError(suite.sessionRepo.Create(ctx, session))

	found, err := suite.sessionRepo.FindByToken(ctx, "token_001")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, found.UserID)

	// 刷新活跃时间
	err = suite.sessionRepo.UpdateLastActive(ctx, "token_001")
	assert.NoError(suite.T(), err)

	found, err = suite.sessionRepo.FindByToken(ctx, "token_001")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), found.LastActiveAt.IsZero())

	// 过期会话查不到
	expired := &models.UserSession{
		UserID:    user.ID,
		SessionID: "sess_002",
		Token:     "token_002",
		ExpireAt:  time.Now().Add(-time.Hour),
	}
	suite.Require().NoError(suite.sessionRepo.Create(ctx, expired))

	_, err = suite.sessionRepo.FindByToken(ctx, "token_002")
	assert.Error(suite.T(), err)

	// 清理过期会话
	err = suite.sessionRepo.CleanupExpired(ctx)
	assert.NoError(suite.T(), err)

	sessions, err := suite.sessionRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), sessions, 1)

	// 按用户删除全部会话
	err = suite.sessionRepo.DeleteByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)

	_, err = suite.sessionRepo.FindByToken(ctx, "token_001")
	assert.Error(suite.T(), err)
}

// TestUserRepositoryTestSuite 运行测试套件
func TestUserRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
