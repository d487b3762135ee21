package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/mahjong-game/internal/models"
	"gorm.io/gorm"
)

// MahjongRepositoryTestSuite 麻将对局仓储测试套件
type MahjongRepositoryTestSuite struct {
	suite.Suite
	db        *gorm.DB
	scoreRepo MahjongScoreRepository
	roundRepo MahjongRoundRepository
}

func (suite *MahjongRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.scoreRepo = NewMahjongScoreRepository(suite.db)
	suite.roundRepo = NewMahjongRoundRepository(suite.db)
}

func (suite *MahjongRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestScore_CreateAndLatest 测试积分记录的写入与最新查询
func (suite *MahjongRepositoryTestSuite) TestScore_CreateAndLatest() {
	ctx := context.Background()

	records := []*models.MahjongScore{
		CreateTestScore(1, "room_a", 1, 30, 30, "青铜"),
		CreateTestScore(1, "room_a", 2, -10, 20, "青铜"),
		CreateTestScore(1, "room_a", 3, 160, 180, "白银"),
	}
	for _, rec := range records {
		err := suite.scoreRepo.Create(ctx, rec)
		suite.Require().NoError(err)
	}

	latest, err := suite.scoreRepo.LatestByUserID(ctx, 1)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 180, latest.Score)
	assert.Equal(suite.T(), "白银", latest.Rank)

	// 没有记录的用户
	_, err = suite.scoreRepo.LatestByUserID(ctx, 999)
	assert.Error(suite.T(), err)
}

// TestScore_FindByUserID 测试积分历史分页
func (suite *MahjongRepositoryTestSuite) TestScore_FindByUserID() {
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		rec := CreateTestScore(2, "room_b", i+1, 10, 10*(i+1), "青铜")
		suite.Require().NoError(suite.scoreRepo.Create(ctx, rec))
	}

	pagination := NewPagination(1, 10)
	list, err := suite.scoreRepo.FindByUserID(ctx, 2, pagination)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), list, 10)
	assert.Equal(suite.T(), int64(12), pagination.Total)
}

// TestScore_Leaderboard 测试排行榜取每人最新积分
func (suite *MahjongRepositoryTestSuite) TestScore_Leaderboard() {
	ctx := context.Background()

	// 用户1先高后低，排行榜应取最新值
	suite.Require().NoError(suite.scoreRepo.Create(ctx, CreateTestScore(1, "r", 1, 500, 500, "黄金")))
	suite.Require().NoError(suite.scoreRepo.Create(ctx, CreateTestScore(1, "r", 2, -10, 490, "黄金")))
	suite.Require().NoError(suite.scoreRepo.Create(ctx, CreateTestScore(2, "r", 1, 1200, 1200, "钻石")))
	suite.Require().NoError(suite.scoreRepo.Create(ctx, CreateTestScore(3, "r", 1, 50, 50, "青铜")))

	entries, err := suite.scoreRepo.Leaderboard(ctx, 10)
	assert.NoError(suite.T(), err)
	suite.Require().Len(entries, 3)
	assert.Equal(suite.T(), uint(2), entries[0].UserID)
	assert.Equal(suite.T(), 1200, entries[0].Score)
	assert.Equal(suite.T(), uint(1), entries[1].UserID)
	assert.Equal(suite.T(), 490, entries[1].Score)
	assert.Equal(suite.T(), uint(3), entries[2].UserID)
}

// TestRound_CreateAndFind 测试牌局记录写入与查询
func (suite *MahjongRepositoryTestSuite) TestRound_CreateAndFind() {
	ctx := context.Background()

	rounds := []*models.MahjongRound{
		{RoomID: "room_x", RoundNo: 1, DealerSeat: 0, WinnerSeat: 2, WinnerUserID: 7, Zimo: false, Fan: 3, Payout: 800},
		{RoomID: "room_x", RoundNo: 2, DealerSeat: 2, Drawn: true, WinnerSeat: -1},
		{RoomID: "room_y", RoundNo: 1, DealerSeat: 0, WinnerSeat: 0, WinnerUserID: 7, Zimo: true, Fan: 5, Payout: 3200},
	}
	for _, r := range rounds {
		suite.Require().NoError(suite.roundRepo.Create(ctx, r))
	}

	list, err := suite.roundRepo.FindByRoomID(ctx, "room_x")
	assert.NoError(suite.T(), err)
	suite.Require().Len(list, 2)
	assert.Equal(suite.T(), 1, list[0].RoundNo)
	assert.True(suite.T(), list[1].Drawn)

	wins, err := suite.roundRepo.CountWinsByUser(ctx, 7)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), wins)
}

// TestMahjongRepositoryTestSuite 运行测试套件
func TestMahjongRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MahjongRepositoryTestSuite))
}
