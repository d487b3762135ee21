package game

import (
	"context"
	"time"

	"github.com/wfunc/mahjong-game/internal/game/mahjong"
)

// EventType 推送给玩家的事件类型
type EventType string

const (
	EventDeal     EventType = "deal"      // 发牌
	EventDraw     EventType = "draw"      // 摸牌
	EventDiscard  EventType = "discard"   // 打牌
	EventChi      EventType = "chi"       // 吃
	EventPeng     EventType = "peng"      // 碰
	EventGang     EventType = "gang"      // 杠
	EventHu       EventType = "hu"        // 胡
	EventRoundEnd EventType = "round_end" // 一局结束
	EventMatchEnd EventType = "match_end" // 整场结束
)

// Event 游戏事件，核心只管发出，不消费返回值
type Event struct {
	Type   EventType     `json:"type"`
	RoomID string        `json:"room_id"`
	Seat   int           `json:"seat"`
	Tile   *mahjong.Tile `json:"tile,omitempty"`
	Round  int           `json:"round,omitempty"`
	Result *RoundResult  `json:"result,omitempty"`
}

// Notifier 通知下发接口（外部协作方，发后不理）
type Notifier interface {
	Notify(playerID uint, event Event)
}

// Ledger 钱包账本接口（外部协作方）
// 失败只记日志不回滚牌局
type Ledger interface {
	Credit(ctx context.Context, playerID uint, amount int64, memo string) error
	Debit(ctx context.Context, playerID uint, amount int64, memo string) error
}

// ScoreStore 积分/段位历史接口（外部协作方）
type ScoreStore interface {
	SaveScoreHistory(ctx context.Context, playerID uint, roomID string, round, delta, score int, newRank string) error
}

// RoundStore 牌局记录接口（外部协作方）
type RoundStore interface {
	SaveRound(ctx context.Context, roomID string, dealer int, winnerUserID uint, result *RoundResult) error
}

// Clock 延时抽象：正式环境真实休眠，测试注入零延时
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewRealClock 真实时钟
func NewRealClock() Clock { return realClock{} }

type zeroClock struct{}

func (zeroClock) Sleep(time.Duration) {}

// NewZeroClock 零延时时钟（测试用）
func NewZeroClock() Clock { return zeroClock{} }

// SeatDelta 一局结算中单个座位的变动
type SeatDelta struct {
	Seat     int    `json:"seat"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	IsWinner bool   `json:"is_winner"`
	IsPao    bool   `json:"is_pao"` // 点炮
}

// WinnerResult 单个胡牌者的算番结果
type WinnerResult struct {
	Seat       int                   `json:"seat"`
	WinTile    mahjong.Tile          `json:"win_tile"`
	Zimo       bool                  `json:"zimo"`
	Fan        int                   `json:"fan"`
	Categories []mahjong.FanCategory `json:"categories"`
	Payout     int64                 `json:"payout"`
	Hand       []mahjong.Tile        `json:"hand"`
	Melds      []mahjong.Meld        `json:"melds"`
}

// RoundResult 一局的结算结果；流局时Winners为空
type RoundResult struct {
	Round   int            `json:"round"`
	Drawn   bool           `json:"drawn"` // 流局
	Winners []WinnerResult `json:"winners"`
	Changes []SeatDelta    `json:"changes"`
}

// RoomSnapshot 对外快照，UI/AI只读不改
type RoomSnapshot struct {
	RoomID        string       `json:"room_id"`
	Status        MatchStatus  `json:"status"`
	Phase         Phase        `json:"phase"`
	CurrentRound  int          `json:"current_round"`
	TotalRounds   int          `json:"total_rounds"`
	Dealer        int          `json:"dealer"`
	Turn          int          `json:"turn"`
	WallRemaining int          `json:"wall_remaining"`
	Pool          []string     `json:"pool"`
	Players       []SeatView   `json:"players"`
	LastResult    *RoundResult `json:"last_result,omitempty"`
}

// SeatView 座位视图；他家手牌只给张数
type SeatView struct {
	Seat      int            `json:"seat"`
	Name      string         `json:"name"`
	IsAI      bool           `json:"is_ai"`
	Beans     int64          `json:"beans"`
	Score     int            `json:"score"`
	HandCount int            `json:"hand_count"`
	Hand      []string       `json:"hand,omitempty"`
	Melds     []mahjong.Meld `json:"melds"`
	Discards  []string       `json:"discards"`
}

// CreateRoomRequest 开房请求
type CreateRoomRequest struct {
	BaseStake   int64 `json:"base_stake" binding:"min=0"`
	TotalRounds int   `json:"total_rounds" binding:"min=0,max=16"`
}

// DiscardRequest 打牌请求
type DiscardRequest struct {
	RoomID string `json:"room_id" binding:"required"`
	Tile   string `json:"tile" binding:"required"`
}

// ReactionRequest 反应请求（吃/碰/杠/胡/过）
type ReactionRequest struct {
	RoomID string   `json:"room_id" binding:"required"`
	Action string   `json:"action" binding:"required"`
	Combo  []string `json:"combo,omitempty"` // 吃牌时的手内搭子
}
