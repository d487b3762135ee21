package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/mahjong-game/internal/models"
	"gorm.io/gorm"
)

// WalletRepositoryTestSuite 钱包仓储测试套件
type WalletRepositoryTestSuite struct {
	suite.Suite
	db         *gorm.DB
	walletRepo WalletRepository
	transRepo  TransactionRepository
	userRepo   UserRepository
}

func (suite *WalletRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.walletRepo = NewWalletRepository(suite.db)
	suite.transRepo = NewTransactionRepository(suite.db)
	suite.userRepo = NewUserRepository(suite.db)
}

func (suite *WalletRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 创建测试用户
func (suite *WalletRepositoryTestSuite) createTestUser(username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Status:   "active",
	}
	err := suite.userRepo.Create(context.Background(), user)
	suite.Require().NoError(err)
	return user
}

// TestWalletRepository_Create 测试创建钱包
func (suite *WalletRepositoryTestSuite) TestWalletRepository_Create() {
	ctx := context.Background()
	user := suite.createTestUser("walletuser")

	wallet := &models.Wallet{
		UserID: user.ID,
		Beans:  10000,
	}

	err := suite.walletRepo.Create(ctx, wallet)
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), wallet.ID)

	// 验证数据
	found, err := suite.walletRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(10000), found.Beans)
}

// TestWalletRepository_FindByUserID 测试根据用户ID查找钱包
func (suite *WalletRepositoryTestSuite) TestWalletRepository_FindByUserID() {
	ctx := context.Background()
	user := suite.createTestUser("findwalletuser")

	wallet := &models.Wallet{
		UserID: user.ID,
		Beans:  5000,
	}
	err := suite.walletRepo.Create(ctx, wallet)
	assert.NoError(suite.T(), err)

	found, err := suite.walletRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), wallet.ID, found.ID)
	assert.Equal(suite.T(), int64(5000), found.Beans)

	// 测试不存在的钱包
	_, err = suite.walletRepo.FindByUserID(ctx, 99999)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "钱包不存在")
}

// TestWalletRepository_AddBeans 测试增加欢乐豆
func (suite *WalletRepositoryTestSuite) TestWalletRepository_AddBeans() {
	ctx := context.Background()
	user := suite.createTestUser("addbeansuser")

	wallet := &models.Wallet{UserID: user.ID, Beans: 1000}
	err := suite.walletRepo.Create(ctx, wallet)
	assert.NoError(suite.T(), err)

	err = suite.walletRepo.AddBeans(ctx, user.ID, 2500)
	assert.NoError(suite.T(), err)

	found, err := suite.walletRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3500), found.Beans)
}

// TestWalletRepository_DeductBeans 测试扣减欢乐豆
func (suite *WalletRepositoryTestSuite) TestWalletRepository_DeductBeans() {
	ctx := context.Background()
	user := suite.createTestUser("deductbeansuser")

	wallet := &models.Wallet{UserID: user.ID, Beans: 1000}
	err := suite.walletRepo.Create(ctx, wallet)
	assert.NoError(suite.T(), err)

	// 正常扣减
	err = suite.walletRepo.DeductBeans(ctx, user.ID, 400)
	assert.NoError(suite.T(), err)

	found, err := suite.walletRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(600), found.Beans)

	// 余额不足
	err = suite.walletRepo.DeductBeans(ctx, user.ID, 10000)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "欢乐豆不足")

	// 余额不变
	found, err = suite.walletRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(600), found.Beans)
}

// TestWalletRepository_UpdateSettleStatsTx 测试事务中更新结算统计
func (suite *WalletRepositoryTestSuite) TestWalletRepository_UpdateSettleStatsTx() {
	ctx := context.Background()
	winner := suite.createTestUser("settlewinner")
	loser := suite.createTestUser("settleloser")

	err := suite.walletRepo.Create(ctx, &models.Wallet{UserID: winner.ID, Beans: 1000})
	suite.Require().NoError(err)
	err = suite.walletRepo.Create(ctx, &models.Wallet{UserID: loser.ID, Beans: 1000})
	suite.Require().NoError(err)

	err = suite.db.Transaction(func(tx *gorm.DB) error {
		if err := suite.walletRepo.UpdateSettleStatsTx(tx, winner.ID, 800); err != nil {
			return err
		}
		return suite.walletRepo.UpdateSettleStatsTx(tx, loser.ID, -800)
	})
	assert.NoError(suite.T(), err)

	w, err := suite.walletRepo.FindByUserID(ctx, winner.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1800), w.Beans)
	assert.Equal(suite.T(), int64(800), w.TotalWin)

	l, err := suite.walletRepo.FindByUserID(ctx, loser.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(200), l.Beans)
	assert.Equal(suite.T(), int64(800), l.TotalLose)
}

// TestWalletRepository_UpdateSettleStatsTx_NoWallet 测试结算不存在的钱包
func (suite *WalletRepositoryTestSuite) TestWalletRepository_UpdateSettleStatsTx_NoWallet() {
	err := suite.db.Transaction(func(tx *gorm.DB) error {
		return suite.walletRepo.UpdateSettleStatsTx(tx, 99999, 100)
	})
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "钱包不存在")
}

// TestTransactionRepository_CreateAndFind 测试交易记录的创建与查询
func (suite *WalletRepositoryTestSuite) TestTransactionRepository_CreateAndFind() {
	ctx := context.Background()
	user := suite.createTestUser("transuser")

	trans := &models.Transaction{
		UserID:  user.ID,
		OrderNo: "order_001",
		Type:    models.TxTypeSettleWin,
		Amount:  1600,
		Status:  "success",
		RefID:   "room_abc",
		RefType: "mahjong_room",
	}
	err := suite.transRepo.Create(ctx, trans)
	assert.NoError(suite.T(), err)

	found, err := suite.transRepo.FindByOrderNo(ctx, "order_001")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1600), found.Amount)
	assert.Equal(suite.T(), models.TxTypeSettleWin, found.Type)

	// 不存在的订单
	_, err = suite.transRepo.FindByOrderNo(ctx, "no_such_order")
	assert.Error(suite.T(), err)
}

// TestTransactionRepository_FindByUserID 测试分页查询用户交易
func (suite *WalletRepositoryTestSuite) TestTransactionRepository_FindByUserID() {
	ctx := context.Background()
	user := suite.createTestUser("translistuser")

	for i := 0; i < 15; i++ {
		trans := &models.Transaction{
			UserID:  user.ID,
			OrderNo: fmt.Sprintf("order_%03d", i),
			Type:    models.TxTypeSettleLose,
			Amount:  int64(100 * (i + 1)),
			Status:  "success",
		}
		err := suite.transRepo.Create(ctx, trans)
		suite.Require().NoError(err)
	}

	pagination := NewPagination(1, 10)
	list, err := suite.transRepo.FindByUserID(ctx, user.ID, pagination)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), list, 10)
	assert.Equal(suite.T(), int64(15), pagination.Total)

	pagination = NewPagination(2, 10)
	list, err = suite.transRepo.FindByUserID(ctx, user.ID, pagination)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), list, 5)
}

// TestTransactionRepository_GetDailyStatistics 测试日统计
func (suite *WalletRepositoryTestSuite) TestTransactionRepository_GetDailyStatistics() {
	ctx := context.Background()
	user := suite.createTestUser("statuser")

	wins := []int64{800, 1600}
	for i, amount := range wins {
		trans := &models.Transaction{
			UserID:  user.ID,
			OrderNo: fmt.Sprintf("win_%d", i),
			Type:    models.TxTypeSettleWin,
			Amount:  amount,
			Status:  "success",
		}
		suite.Require().NoError(suite.transRepo.Create(ctx, trans))
	}
	lose := &models.Transaction{
		UserID:  user.ID,
		OrderNo: "lose_0",
		Type:    models.TxTypeSettleLose,
		Amount:  400,
		Status:  "success",
	}
	suite.Require().NoError(suite.transRepo.Create(ctx, lose))

	stats, err := suite.transRepo.GetDailyStatistics(ctx, user.ID, time.Now())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2400), stats.TotalIn)
	assert.Equal(suite.T(), int64(400), stats.TotalOut)
	assert.Equal(suite.T(), int64(2000), stats.NetAmount)
	assert.Equal(suite.T(), 3, stats.TransCount)
	assert.Equal(suite.T(), 2, stats.WinCount)
	assert.Equal(suite.T(), 1, stats.LoseCount)
}

// TestWalletRepositoryTestSuite 运行测试套件
func TestWalletRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(WalletRepositoryTestSuite))
}
