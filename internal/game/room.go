package game

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/wfunc/mahjong-game/internal/game/mahjong"
)

// MatchStatus 牌局状态
type MatchStatus string

const (
	MatchWaiting  MatchStatus = "waiting"  // 等待开局
	MatchPlaying  MatchStatus = "playing"  // 对局中
	MatchSettling MatchStatus = "settling" // 结算中
	MatchFinished MatchStatus = "finished" // 已结束
)

// SeatCount 一桌座位数
const SeatCount = 4

// Player 一个座位上的玩家
type Player struct {
	ID       uint           `json:"id"`
	Name     string         `json:"name"`
	Seat     int            `json:"seat"`
	IsAI     bool           `json:"is_ai"`
	Hand     []mahjong.Tile `json:"hand"`
	Melds    []mahjong.Meld `json:"melds"`
	Discards []mahjong.Tile `json:"discards"`
	Beans    int64          `json:"beans"`
	Score    int            `json:"score"`
	Wins     int            `json:"wins"`
	Losses   int            `json:"losses"`

	ai *mahjong.AI
}

// RoomConfig 开房配置
type RoomConfig struct {
	BaseStake   int64 `json:"base_stake"`
	TotalRounds int   `json:"total_rounds"`
}

// RoomState 一桌牌局的全部可变状态，仅由TurnScheduler修改
type RoomState struct {
	ID           string             `json:"id"`
	BaseStake    int64              `json:"base_stake"`
	TotalRounds  int                `json:"total_rounds"`
	CurrentRound int                `json:"current_round"`
	Dealer       int                `json:"dealer"`
	Turn         int                `json:"turn"`
	Status       MatchStatus        `json:"status"`
	Players      [SeatCount]*Player `json:"players"`
	Pool         []mahjong.Tile     `json:"pool"`

	wall *mahjong.Wall
}

// 机器人名册（来自原陪玩名单的节选）
var botNames = []string{
	"绝代双椒", "乔大狸子", "麻将桌上吴彦祖", "吃饱了再战",
	"杠精本精", "碰瓷专业户", "这把稳了", "欢乐豆收割机",
	"资深潜水员", "不胡不睡", "摸鱼冠军", "全村的希望",
}

// NewRoomState 创建一桌：座位0为房主，其余由AI补齐
func NewRoomState(owner *Player, cfg RoomConfig, rng *rand.Rand) *RoomState {
	if cfg.BaseStake <= 0 {
		cfg.BaseStake = 100
	}
	if cfg.TotalRounds <= 0 {
		cfg.TotalRounds = 4
	}

	room := &RoomState{
		ID:           uuid.NewString(),
		BaseStake:    cfg.BaseStake,
		TotalRounds:  cfg.TotalRounds,
		CurrentRound: 1,
		Status:       MatchWaiting,
	}

	owner.Seat = 0
	room.Players[0] = owner

	perm := rng.Perm(len(botNames))
	for seat := 1; seat < SeatCount; seat++ {
		room.Players[seat] = &Player{
			ID:    uint(1000000 + rng.Intn(900000)),
			Name:  botNames[perm[seat-1]],
			Seat:  seat,
			IsAI:  true,
			Beans: int64(5000 + rng.Intn(45000)),
			ai:    mahjong.NewAI(rng),
		}
	}
	return room
}

// WallRemaining 牌墙剩余张数
func (r *RoomState) WallRemaining() int {
	if r.wall == nil {
		return 0
	}
	return r.wall.Remaining()
}

// TileConservation 全桌牌数守恒校验：墙+手牌+副露+弃牌池
func (r *RoomState) TileConservation() int {
	total := r.WallRemaining() + len(r.Pool)
	for _, p := range r.Players {
		if p == nil {
			continue
		}
		total += len(p.Hand)
		for _, m := range p.Melds {
			total += len(m.Tiles)
		}
	}
	return total
}

// resetForRound 清空一局的手牌/副露/弃牌，准备重新发牌
func (r *RoomState) resetForRound() {
	r.Pool = r.Pool[:0]
	for _, p := range r.Players {
		p.Hand = nil
		p.Melds = nil
		p.Discards = nil
	}
}

// exposedTiles 全桌副露牌的汇总（AI可见信息）
func (r *RoomState) exposedTiles() []mahjong.Tile {
	var out []mahjong.Tile
	for _, p := range r.Players {
		for _, m := range p.Melds {
			out = append(out, m.Tiles...)
		}
	}
	return out
}
