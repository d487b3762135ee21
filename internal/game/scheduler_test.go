package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/mahjong-game/internal/errors"
	"github.com/wfunc/mahjong-game/internal/game/mahjong"
	"go.uber.org/zap"
)

// recordingNotifier 记录全部下发事件
type recordingNotifier struct {
	events []Event
}

func (n *recordingNotifier) Notify(playerID uint, event Event) {
	n.events = append(n.events, event)
}

func (n *recordingNotifier) countType(t EventType) int {
	count := 0
	for _, e := range n.events {
		if e.Type == t {
			count++
		}
	}
	return count
}

// newHumanRoom 四个人类座位的测试房间（无AI，流程完全由测试驱动）
func newHumanRoom(totalRounds int) *RoomState {
	room := &RoomState{
		ID:           "room-test",
		BaseStake:    10,
		TotalRounds:  totalRounds,
		CurrentRound: 1,
		Status:       MatchWaiting,
	}
	for seat := 0; seat < SeatCount; seat++ {
		room.Players[seat] = &Player{
			ID:    uint(seat + 1),
			Name:  fmt.Sprintf("玩家%d", seat),
			Seat:  seat,
			Beans: 10000,
		}
	}
	return room
}

func newTestScheduler(room *RoomState, seed int64, notifier Notifier) *TurnScheduler {
	return NewTurnScheduler(room, rand.New(rand.NewSource(seed)), &SchedulerConfig{
		Logger:   zap.NewNop(),
		Clock:    NewZeroClock(),
		Notifier: notifier,
	})
}

func setHand(t *testing.T, room *RoomState, seat int, symbols ...string) {
	t.Helper()
	tiles, err := mahjong.ParseTiles(symbols)
	require.NoError(t, err)
	room.Players[seat].Hand = tiles
}

// inertHand 对east和w5都无任何合法反应的13张散牌
func inertHand() []string {
	return []string{
		"w1", "w4", "w7", "t2", "t5", "t8",
		"b3", "b6", "b9", "south", "west", "north", "red",
	}
}

func TestSchedulerStart(t *testing.T) {
	room := newHumanRoom(4)
	s := newTestScheduler(room, 1, nil)

	require.Equal(t, PhaseIdle, s.Phase())
	require.NoError(t, s.Start())

	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
	assert.Equal(t, MatchPlaying, room.Status)
	assert.Equal(t, room.Dealer, room.Turn)

	// 庄家14张其余13张，全桌守恒
	for seat := 0; seat < SeatCount; seat++ {
		want := 13
		if seat == room.Dealer {
			want = 14
		}
		assert.Len(t, room.Players[seat].Hand, want, "座位%d", seat)
	}
	assert.Equal(t, mahjong.WallSize-4*13-1, room.WallRemaining())
	assert.Equal(t, mahjong.WallSize, room.TileConservation())

	// 重复开局非法
	err := s.Start()
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))
}

func TestSchedulerDiscardValidation(t *testing.T) {
	room := newHumanRoom(4)
	s := newTestScheduler(room, 2, nil)
	require.NoError(t, s.Start())

	setHand(t, room, 0, append(inertHand(), "east")...)
	for seat := 1; seat < SeatCount; seat++ {
		setHand(t, room, seat, inertHand()...)
	}
	room.Turn = 0

	// 未轮到的座位
	err := s.Discard(1, mahjong.TileEast)
	assert.Equal(t, apperrors.ErrOutOfTurn, apperrors.GetCode(err))

	// 非法牌索引
	err = s.Discard(0, mahjong.Tile(99))
	assert.Equal(t, apperrors.ErrInvalidTile, apperrors.GetCode(err))

	// 手中没有的牌
	err = s.Discard(0, mahjong.MustParseTile("w9"))
	assert.Equal(t, apperrors.ErrInvalidTile, apperrors.GetCode(err))

	// 合法打牌：无人能反应，直接轮到下家摸牌
	require.NoError(t, s.Discard(0, mahjong.TileEast))
	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
	assert.Equal(t, 1, room.Turn)
	assert.Len(t, room.Players[1].Hand, 14) // 13张+新摸1张
	require.Len(t, room.Pool, 1)
	assert.Equal(t, mahjong.TileEast, room.Pool[0])
}

func TestSchedulerPengReaction(t *testing.T) {
	room := newHumanRoom(4)
	notifier := &recordingNotifier{}
	s := newTestScheduler(room, 3, notifier)
	require.NoError(t, s.Start())

	setHand(t, room, 0, append(inertHand(), "east")...)
	setHand(t, room, 1, inertHand()...)
	setHand(t, room, 2, append(inertHand()[:11], "east", "east")...)
	setHand(t, room, 3, inertHand()...)
	room.Turn = 0

	require.NoError(t, s.Discard(0, mahjong.TileEast))
	require.Equal(t, PhaseResolvingReactions, s.Phase())

	// 无权表态的座位
	err := s.React(1, mahjong.ActionPass, nil)
	assert.Equal(t, apperrors.ErrOutOfTurn, apperrors.GetCode(err))

	// 未被授予的动作
	err = s.React(2, mahjong.ActionGang, nil)
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))

	// 碰成立：牌归碰家，轮到碰家打牌
	require.NoError(t, s.React(2, mahjong.ActionPeng, nil))
	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
	assert.Equal(t, 2, room.Turn)
	assert.Empty(t, room.Pool, "被碰的牌应移出弃牌池")

	p := room.Players[2]
	require.Len(t, p.Melds, 1)
	assert.Equal(t, mahjong.MeldPeng, p.Melds[0].Type)
	assert.Equal(t, mahjong.TileEast, p.Melds[0].Tiles[0])
	assert.Equal(t, 0, p.Melds[0].From)
	assert.Len(t, p.Hand, 11)

	assert.Equal(t, 4, notifier.countType(EventPeng), "碰事件应下发给全桌四个人类")
}

func TestSchedulerMultiHu(t *testing.T) {
	room := newHumanRoom(4)
	s := newTestScheduler(room, 4, nil)
	require.NoError(t, s.Start())

	// 座位1、2都听w5（w5做将），座位0放铳
	tingHand := []string{
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8", "b9", "w5",
	}
	setHand(t, room, 0, append(inertHand(), "w5")...)
	setHand(t, room, 1, tingHand...)
	setHand(t, room, 2, tingHand...)
	setHand(t, room, 3, inertHand()...)
	room.Turn = 0
	room.Dealer = 0

	require.NoError(t, s.Discard(0, mahjong.MustParseTile("w5")))
	require.Equal(t, PhaseResolvingReactions, s.Phase())

	// 第一家胡后窗口仍开着：第二家的胡不可被压过
	require.NoError(t, s.React(1, mahjong.ActionHu, nil))
	require.Equal(t, PhaseResolvingReactions, s.Phase())
	require.NoError(t, s.React(2, mahjong.ActionHu, nil))

	assert.Equal(t, PhaseRoundSettling, s.Phase())
	result := s.LastResult()
	require.NotNil(t, result)
	require.Len(t, result.Winners, 2)
	assert.Equal(t, 1, result.Winners[0].Seat)
	assert.Equal(t, 2, result.Winners[1].Seat)

	// 平胡门清2番：放铳者对每家各付底分×2^2
	for _, w := range result.Winners {
		assert.Equal(t, 2, w.Fan)
		assert.Equal(t, int64(40), w.Payout)
		assert.False(t, w.Zimo)
	}

	var total int64
	for _, c := range result.Changes {
		total += c.Amount
		switch c.Seat {
		case 0:
			assert.Equal(t, int64(-80), c.Amount)
			assert.True(t, c.IsPao)
		case 1, 2:
			assert.Equal(t, int64(40), c.Amount)
			assert.True(t, c.IsWinner)
		case 3:
			assert.Zero(t, c.Amount)
		}
	}
	assert.Zero(t, total, "全桌欢乐豆变动必须守恒")

	// 放铳者扣积分、第一胡家坐庄
	assert.Equal(t, -10, room.Players[0].Score)
	assert.Equal(t, 20, room.Players[1].Score)
	assert.Equal(t, 1, room.Dealer)
}

func TestSchedulerZimo(t *testing.T) {
	room := newHumanRoom(1)
	s := newTestScheduler(room, 5, nil)
	require.NoError(t, s.Start())

	setHand(t, room, 0,
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8", "b9",
		"east", "east")
	for seat := 1; seat < SeatCount; seat++ {
		setHand(t, room, seat, inertHand()...)
	}
	room.Turn = 0
	room.Dealer = 0

	// 未成牌型时自摸非法
	room.Turn = 1
	err := s.Zimo(1)
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))
	room.Turn = 0

	require.NoError(t, s.Zimo(0))
	assert.Equal(t, PhaseRoundSettling, s.Phase())

	result := s.LastResult()
	require.NotNil(t, result)
	require.Len(t, result.Winners, 1)
	w := result.Winners[0]
	assert.True(t, w.Zimo)
	// 底番+门清+自摸
	assert.Equal(t, 3, w.Fan)
	assert.Equal(t, int64(80), w.Payout)

	// 自摸三家均付
	for _, c := range result.Changes {
		if c.Seat == 0 {
			assert.Equal(t, int64(240), c.Amount)
		} else {
			assert.Equal(t, int64(-80), c.Amount)
		}
	}
	assert.Equal(t, int64(10240), room.Players[0].Beans)
	assert.Equal(t, 30, room.Players[0].Score)
	assert.Equal(t, 1, room.Players[0].Wins)
	assert.Equal(t, 1, room.Players[1].Losses)
}

func TestSchedulerNextRoundAndMatchEnd(t *testing.T) {
	room := newHumanRoom(2)
	notifier := &recordingNotifier{}
	s := newTestScheduler(room, 6, notifier)
	require.NoError(t, s.Start())

	// 结算前不允许换局
	err := s.NextRound()
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))

	winZimo(t, s, room)

	// 进入第二局：重新发牌、胡家坐庄
	require.NoError(t, s.NextRound())
	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
	assert.Equal(t, 2, room.CurrentRound)
	assert.Equal(t, mahjong.WallSize, room.TileConservation())
	assert.Len(t, room.Players[room.Dealer].Hand, 14)

	winZimo(t, s, room)

	// 局数用尽：整场结束为终态
	require.NoError(t, s.NextRound())
	assert.Equal(t, PhaseMatchFinished, s.Phase())
	assert.Equal(t, MatchFinished, room.Status)
	assert.Equal(t, 4, notifier.countType(EventMatchEnd), "终局事件下发全桌四个人类")

	err = s.Start()
	assert.Equal(t, apperrors.ErrMatchFinished, apperrors.GetCode(err))
	err = s.Discard(0, mahjong.TileEast)
	assert.Equal(t, apperrors.ErrMatchFinished, apperrors.GetCode(err))
	err = s.NextRound()
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))
}

// winZimo 把庄家手牌换成和牌并自摸，推进到结算
func winZimo(t *testing.T, s *TurnScheduler, room *RoomState) {
	t.Helper()
	dealer := room.Dealer
	setHand(t, room, dealer,
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8", "b9",
		"east", "east")
	room.Turn = dealer
	require.NoError(t, s.Zimo(dealer))
	require.Equal(t, PhaseRoundSettling, s.Phase())
}

func TestSchedulerConcealedGang(t *testing.T) {
	room := newHumanRoom(4)
	s := newTestScheduler(room, 7, nil)
	require.NoError(t, s.Start())

	setHand(t, room, 0,
		"w1", "w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8",
		"east", "east")
	for seat := 1; seat < SeatCount; seat++ {
		setHand(t, room, seat, inertHand()...)
	}
	room.Turn = 0

	// 不足四张不能暗杠
	err := s.ConcealedGang(0, mahjong.MustParseTile("t5"))
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))

	// 非当前座位
	err = s.ConcealedGang(1, mahjong.MustParseTile("w1"))
	assert.Equal(t, apperrors.ErrOutOfTurn, apperrors.GetCode(err))

	wallBefore := room.WallRemaining()
	require.NoError(t, s.ConcealedGang(0, mahjong.MustParseTile("w1")))

	p := room.Players[0]
	require.Len(t, p.Melds, 1)
	assert.Equal(t, mahjong.MeldGang, p.Melds[0].Type)
	assert.True(t, p.Melds[0].Concealed)
	assert.Len(t, p.Hand, 11) // 14-4+补1
	assert.Equal(t, wallBefore-1, room.WallRemaining())
	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
	assert.Equal(t, 0, room.Turn)
}

func TestSchedulerAbort(t *testing.T) {
	room := newHumanRoom(4)
	s := newTestScheduler(room, 8, nil)
	require.NoError(t, s.Start())

	s.Abort()
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, MatchWaiting, room.Status)

	// 废局后可重新开局
	require.NoError(t, s.Start())
	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
}

// TestSchedulerWallExhaustion 全员只打不鸣，摸完整面墙必然流局
// 同时校验整个过程中的牌数守恒
func TestSchedulerWallExhaustion(t *testing.T) {
	room := newHumanRoom(1)
	s := newTestScheduler(room, 9, nil)
	require.NoError(t, s.Start())

	for i := 0; i < 2000; i++ {
		switch s.Phase() {
		case PhaseAwaitingDiscard:
			p := room.Players[room.Turn]
			tile := p.Hand[len(p.Hand)-1]
			require.NoError(t, s.Discard(room.Turn, tile))
			assert.Equal(t, mahjong.WallSize, room.TileConservation())
		case PhaseResolvingReactions:
			for seat := 0; seat < SeatCount; seat++ {
				// 只有待表态的座位会成功，其余返回错误直接忽略
				_ = s.React(seat, mahjong.ActionPass, nil)
			}
		case PhaseRoundSettling:
			result := s.LastResult()
			require.NotNil(t, result)
			assert.True(t, result.Drawn, "无人鸣牌摸完牌墙应流局")
			assert.Empty(t, result.Winners)
			for _, c := range result.Changes {
				assert.Zero(t, c.Amount, "流局不应有任何支付")
			}
			assert.Zero(t, room.WallRemaining())
			return
		default:
			t.Fatalf("意外状态: %s", s.Phase())
		}
	}
	t.Fatal("2000步内未到达流局")
}

func TestRankName(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{-50, RankBronze},
		{0, RankBronze},
		{99, RankBronze},
		{100, RankSilver},
		{299, RankSilver},
		{300, RankGold},
		{599, RankGold},
		{600, RankPlatinum},
		{999, RankPlatinum},
		{1000, RankDiamond},
		{5000, RankDiamond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RankName(tt.score), "score=%d", tt.score)
	}
}

func TestSchedulerChiComboValidation(t *testing.T) {
	room := newHumanRoom(4)
	s := newTestScheduler(room, 8, nil)
	require.NoError(t, s.Start())

	setHand(t, room, 0, append(inertHand(), "w5")...)
	setHand(t, room, 1,
		"w3", "w4", "t2", "t5", "t8",
		"b3", "b6", "b9", "south", "west", "north", "red", "green")
	setHand(t, room, 2, inertHand()...)
	setHand(t, room, 3, inertHand()...)
	room.Turn = 0

	require.NoError(t, s.Discard(0, mahjong.MustParseTile("w5")))
	require.Equal(t, PhaseResolvingReactions, s.Phase())
	before := room.TileConservation()

	// 手里根本没有的两张
	combo := mahjong.ChiCombo{mahjong.MustParseTile("b1"), mahjong.MustParseTile("b1")}
	err := s.React(1, mahjong.ActionChi, &combo)
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))

	// 在手但连不成顺子的两张
	combo = mahjong.ChiCombo{mahjong.MustParseTile("t2"), mahjong.MustParseTile("t5")}
	err = s.React(1, mahjong.ActionChi, &combo)
	assert.Equal(t, apperrors.ErrIllegalAction, apperrors.GetCode(err))

	// 被拒的表态不得改动任何状态，窗口保持开放
	assert.Len(t, room.Players[1].Hand, 13)
	assert.Empty(t, room.Players[1].Melds)
	assert.Equal(t, before, room.TileConservation())
	assert.Equal(t, PhaseResolvingReactions, s.Phase())

	// 授予的搭子乱序提交同样成立
	combo = mahjong.ChiCombo{mahjong.MustParseTile("w4"), mahjong.MustParseTile("w3")}
	require.NoError(t, s.React(1, mahjong.ActionChi, &combo))

	p := room.Players[1]
	require.Len(t, p.Melds, 1)
	assert.Equal(t, mahjong.MeldChi, p.Melds[0].Type)
	assert.Len(t, p.Hand, 11)
	assert.Equal(t, before, room.TileConservation())
	assert.Equal(t, 1, room.Turn)
	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
}

func TestSchedulerZimoWinTile(t *testing.T) {
	room := newHumanRoom(1)
	s := newTestScheduler(room, 9, nil)
	require.NoError(t, s.Start())

	setHand(t, room, 0,
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8", "b9",
		"east", "east")
	room.Turn = 0
	winTile := mahjong.MustParseTile("w4")
	s.lastDraw[0] = winTile

	require.NoError(t, s.Zimo(0))
	result := s.LastResult()
	require.NotNil(t, result)
	require.Len(t, result.Winners, 1)
	assert.Equal(t, winTile, result.Winners[0].WinTile, "胡牌应报摸到的那张，而非理牌后的末张")
}

// scriptedSource 按脚本吐出Int63，把AI的随机决策钉死
type scriptedSource struct {
	vals  []int64
	calls int
}

func (s *scriptedSource) Int63() int64 {
	i := s.calls
	s.calls++
	if i >= len(s.vals) {
		i = len(s.vals) - 1
	}
	return s.vals[i]
}

func (s *scriptedSource) Seed(int64) {}

func TestSchedulerAIZimoSingleRoll(t *testing.T) {
	room := newHumanRoom(1)
	// 首次掷骰≈0.9（弃胡），之后全为0（若再被问必接受）
	high := float64(1 << 63)
	src := &scriptedSource{vals: []int64{int64(high * 0.9), 0}}
	room.Players[1].IsAI = true
	room.Players[1].ai = mahjong.NewAI(rand.New(src))

	const seed = 21
	s := newTestScheduler(room, seed, nil)
	require.NoError(t, s.Start())

	// 复刻同种子的牌墙，得到座位1即将摸进的那张
	mirror := mahjong.NewWall(rand.New(rand.NewSource(seed)))
	for i := 0; i < 4*13+1; i++ {
		_, err := mirror.Draw()
		require.NoError(t, err)
	}
	drawn, err := mirror.Draw()
	require.NoError(t, err)

	// 座位1四组字牌刻子加单张drawn，摸进drawn即成和
	var symbols []string
	for _, h := range []string{"east", "south", "west", "north", "white"} {
		if len(symbols) == 12 {
			break
		}
		if mahjong.MustParseTile(h) == drawn {
			continue
		}
		symbols = append(symbols, h, h, h)
	}
	symbols = append(symbols, drawn.String())
	setHand(t, room, 1, symbols...)
	setHand(t, room, 2, inertHand()...)
	setHand(t, room, 3, inertHand()...)

	discard := "w9"
	if drawn == mahjong.MustParseTile("w9") {
		discard = "t9"
	}
	setHand(t, room, 0, append(inertHand(), discard)...)
	room.Turn = 0

	require.NoError(t, s.Discard(0, mahjong.MustParseTile(discard)))

	// AI摸成和牌但掷骰弃胡：只问一次，随后照常打牌不结算
	assert.Equal(t, 1, src.calls, "弃胡后不应再次掷骰")
	assert.Nil(t, s.LastResult())
	assert.Len(t, room.Players[1].Discards, 1)
	assert.Equal(t, PhaseAwaitingDiscard, s.Phase())
	assert.Equal(t, 2, room.Turn)
}
