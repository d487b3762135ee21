package game

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/mahjong-game/internal/models"
	"github.com/wfunc/mahjong-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupPersistDB 设置测试数据库
func setupPersistDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Transaction{},
		&models.MahjongScore{},
		&models.MahjongRound{},
	)
	require.NoError(t, err)

	return db
}

// createPlayerAccount 创建带钱包的测试用户
func createPlayerAccount(t *testing.T, db *gorm.DB, beans int64) uint {
	timestamp := time.Now().UnixNano()
	user := &models.User{
		Username: fmt.Sprintf("player_%d", timestamp),
		Email:    fmt.Sprintf("player_%d@example.com", timestamp),
		Phone:    fmt.Sprintf("139%08d", timestamp%100000000),
		Status:   "active",
	}
	require.NoError(t, db.Create(user).Error)

	wallet := &models.Wallet{
		UserID: user.ID,
		Beans:  beans,
	}
	require.NoError(t, db.Create(wallet).Error)

	return user.ID
}

func TestWalletLedgerCredit(t *testing.T) {
	db := setupPersistDB(t)
	userID := createPlayerAccount(t, db, 1000)
	ledger := NewWalletLedger(repository.NewManager(db))
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, userID, 500, "测试入账"))

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", userID).First(&wallet).Error)
	assert.Equal(t, int64(1500), wallet.Beans)
	assert.Equal(t, int64(500), wallet.TotalWin)

	var record models.Transaction
	require.NoError(t, db.Where("user_id = ?", userID).First(&record).Error)
	assert.Equal(t, models.TxTypeSettleWin, record.Type)
	assert.Equal(t, int64(500), record.Amount)
	assert.Equal(t, int64(1000), record.BeforeBeans)
	assert.Equal(t, int64(1500), record.AfterBeans)
	assert.Equal(t, "success", record.Status)
	assert.Equal(t, "mahjong_round", record.RefType)
	assert.NotEmpty(t, record.OrderNo)
}

func TestWalletLedgerDebit(t *testing.T) {
	db := setupPersistDB(t)
	userID := createPlayerAccount(t, db, 1000)
	ledger := NewWalletLedger(repository.NewManager(db))
	ctx := context.Background()

	require.NoError(t, ledger.Debit(ctx, userID, 300, "测试扣账"))

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", userID).First(&wallet).Error)
	assert.Equal(t, int64(700), wallet.Beans)
	assert.Equal(t, int64(300), wallet.TotalLose)

	var record models.Transaction
	require.NoError(t, db.Where("user_id = ?", userID).First(&record).Error)
	assert.Equal(t, models.TxTypeSettleLose, record.Type)
	assert.Equal(t, int64(-300), record.Amount)
}

func TestWalletLedgerMissingWallet(t *testing.T) {
	db := setupPersistDB(t)
	ledger := NewWalletLedger(repository.NewManager(db))

	err := ledger.Credit(context.Background(), 99999, 100, "幽灵用户")
	assert.Error(t, err)

	// 失败的事务不留下任何流水
	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	assert.Zero(t, count)
}

func TestScoreStoreSaveHistory(t *testing.T) {
	db := setupPersistDB(t)
	userID := createPlayerAccount(t, db, 1000)
	store := NewScoreStore(repository.NewManager(db))

	require.NoError(t, store.SaveScoreHistory(context.Background(), userID, "room-1", 2, 30, 130, RankSilver))

	var record models.MahjongScore
	require.NoError(t, db.Where("user_id = ?", userID).First(&record).Error)
	assert.Equal(t, "room-1", record.RoomID)
	assert.Equal(t, 2, record.Round)
	assert.Equal(t, 30, record.Delta)
	assert.Equal(t, 130, record.Score)
	assert.Equal(t, RankSilver, record.Rank)
}

func TestRoundStoreSaveRound(t *testing.T) {
	db := setupPersistDB(t)
	store := NewRoundStore(repository.NewManager(db))
	ctx := context.Background()

	result := &RoundResult{
		Round: 3,
		Winners: []WinnerResult{
			{Seat: 2, Zimo: true, Fan: 5, Payout: 320},
		},
		Changes: []SeatDelta{
			{Seat: 0, Name: "玩家0", Amount: -320},
			{Seat: 1, Name: "玩家1", Amount: -320},
			{Seat: 2, Name: "玩家2", Amount: 960, IsWinner: true},
			{Seat: 3, Name: "玩家3", Amount: -320},
		},
	}
	require.NoError(t, store.SaveRound(ctx, "room-2", 1, 42, result))

	var record models.MahjongRound
	require.NoError(t, db.Where("room_id = ?", "room-2").First(&record).Error)
	assert.Equal(t, 3, record.RoundNo)
	assert.Equal(t, 1, record.DealerSeat)
	assert.Equal(t, 2, record.WinnerSeat)
	assert.Equal(t, uint(42), record.WinnerUserID)
	assert.True(t, record.Zimo)
	assert.Equal(t, 5, record.Fan)
	assert.Equal(t, int64(320), record.Payout)
	assert.False(t, record.Drawn)
	assert.NotEmpty(t, record.Detail)

	// 流局没有胜者
	drawn := &RoundResult{Round: 4, Drawn: true}
	require.NoError(t, store.SaveRound(ctx, "room-3", 0, 0, drawn))
	var drawnRecord models.MahjongRound
	require.NoError(t, db.Where("room_id = ?", "room-3").First(&drawnRecord).Error)
	assert.True(t, drawnRecord.Drawn)
	assert.Equal(t, -1, drawnRecord.WinnerSeat)
	assert.Zero(t, drawnRecord.WinnerUserID)
}

// TestSchedulerSettlementPersistence 结算通路整体联动：
// 自摸后钱包、积分历史、对局记录全部落库
func TestSchedulerSettlementPersistence(t *testing.T) {
	db := setupPersistDB(t)
	repos := repository.NewManager(db)

	room := newHumanRoom(1)
	for seat := 0; seat < SeatCount; seat++ {
		room.Players[seat].ID = createPlayerAccount(t, db, 10000)
	}

	s := NewTurnScheduler(room, rand.New(rand.NewSource(11)), &SchedulerConfig{
		Logger:     zap.NewNop(),
		Clock:      NewZeroClock(),
		Ledger:     NewWalletLedger(repos),
		ScoreStore: NewScoreStore(repos),
		RoundStore: NewRoundStore(repos),
	})
	require.NoError(t, s.Start())
	winZimo(t, s, room)

	result := s.LastResult()
	require.NotNil(t, result)
	require.Len(t, result.Winners, 1)
	winner := room.Players[result.Winners[0].Seat]

	// 钱包入账
	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", winner.ID).First(&wallet).Error)
	assert.Equal(t, 10000+result.Winners[0].Payout*3, wallet.Beans)

	// 四个座位各一条积分历史
	var scoreCount int64
	db.Model(&models.MahjongScore{}).Count(&scoreCount)
	assert.Equal(t, int64(4), scoreCount)

	// 对局记录
	var round models.MahjongRound
	require.NoError(t, db.Where("room_id = ?", room.ID).First(&round).Error)
	assert.Equal(t, winner.ID, round.WinnerUserID)
	assert.True(t, round.Zimo)

	// 全桌流水守恒
	var txSum int64
	db.Model(&models.Transaction{}).Select("COALESCE(SUM(amount), 0)").Scan(&txSum)
	assert.Zero(t, txSum)
}
