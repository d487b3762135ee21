package game

import (
	"context"
	"fmt"

	"github.com/wfunc/mahjong-game/internal/game/mahjong"
	"go.uber.org/zap"
)

// winClaim 一个成立的胡牌声明
type winClaim struct {
	seat int
	tile mahjong.Tile
}

// 段位阶梯
const (
	RankBronze   = "青铜"
	RankSilver   = "白银"
	RankGold     = "黄金"
	RankPlatinum = "铂金"
	RankDiamond  = "钻石"
)

// RankName 按积分返回段位名
func RankName(score int) string {
	switch {
	case score < 100:
		return RankBronze
	case score < 300:
		return RankSilver
	case score < 600:
		return RankGold
	case score < 1000:
		return RankPlatinum
	default:
		return RankDiamond
	}
}

// settleWin 结算胡牌：自摸三家付，点炮放铳者一人付；多家胡各自独立算番
// 胡牌者（多家时取离放铳者最近的一家）坐庄下一局
func (s *TurnScheduler) settleWin(winners []winClaim, zimo bool, discarder int) {
	s.room.Status = MatchSettling
	s.setPhase(PhaseRoundSettling)

	result := &RoundResult{Round: s.room.CurrentRound}
	paid := make(map[int]int64) // 每个座位本局的净变动

	for _, w := range winners {
		p := s.room.Players[w.seat]
		hand := make([]mahjong.Tile, len(p.Hand))
		copy(hand, p.Hand)
		if !zimo {
			hand = append(hand, w.tile)
			mahjong.SortTiles(hand)
		}

		ctx := mahjong.Context{
			Zimo:      zimo,
			SeatWind:  (w.seat - s.room.Dealer + SeatCount) % SeatCount,
			RoundWind: ((s.room.CurrentRound - 1) / SeatCount) % SeatCount,
			LastTile:  s.room.WallRemaining() == 0,
			GangDraw:  zimo && s.gangDraw[w.seat],
		}

		score, err := mahjong.Score(hand, p.Melds, ctx, s.room.BaseStake)
		if err != nil {
			// 能走到这里说明胡牌判定与算番不一致，记下来但不让整局崩掉
			s.logger.Error("算番失败",
				zap.Error(err),
				zap.String("room_id", s.room.ID),
				zap.Int("seat", w.seat))
			continue
		}

		if zimo {
			// 三家均付
			for seat := 0; seat < SeatCount; seat++ {
				if seat == w.seat {
					continue
				}
				paid[seat] -= score.Payout
				paid[w.seat] += score.Payout
			}
		} else {
			paid[discarder] -= score.Payout
			paid[w.seat] += score.Payout
		}

		p.Score += score.TotalFan * 10
		p.Wins++

		result.Winners = append(result.Winners, WinnerResult{
			Seat:       w.seat,
			WinTile:    w.tile,
			Zimo:       zimo,
			Fan:        score.TotalFan,
			Categories: score.Categories,
			Payout:     score.Payout,
			Hand:       hand,
			Melds:      p.Melds,
		})
		tile := w.tile
		s.broadcast(Event{Type: EventHu, RoomID: s.room.ID, Seat: w.seat, Tile: &tile})
	}

	winnerSeats := make(map[int]bool, len(winners))
	for _, w := range winners {
		winnerSeats[w.seat] = true
	}
	for seat := 0; seat < SeatCount; seat++ {
		p := s.room.Players[seat]
		amount := paid[seat]
		p.Beans += amount
		if amount < 0 {
			p.Score -= 10
			p.Losses++
		}
		result.Changes = append(result.Changes, SeatDelta{
			Seat:     seat,
			Name:     p.Name,
			Amount:   amount,
			IsWinner: winnerSeats[seat],
			IsPao:    !zimo && seat == discarder,
		})
	}

	s.applyLedger(result)
	s.recordScores(result)
	s.recordRound(result)

	// 胡牌者坐庄
	if len(winners) > 0 {
		s.room.Dealer = winners[0].seat
	}
	s.gangDraw = [SeatCount]bool{}
	s.lastResult = result
	s.broadcast(Event{Type: EventRoundEnd, RoomID: s.room.ID, Round: result.Round, Result: result})
}

// settleDrawn 流局：无人胡、无支付、庄家连任
func (s *TurnScheduler) settleDrawn() {
	s.room.Status = MatchSettling
	s.setPhase(PhaseRoundSettling)

	result := &RoundResult{Round: s.room.CurrentRound, Drawn: true}
	for seat := 0; seat < SeatCount; seat++ {
		result.Changes = append(result.Changes, SeatDelta{
			Seat: seat,
			Name: s.room.Players[seat].Name,
		})
	}
	s.recordRound(result)
	s.gangDraw = [SeatCount]bool{}
	s.lastResult = result
	s.logger.Info("流局",
		zap.String("room_id", s.room.ID),
		zap.Int("round", result.Round))
	s.broadcast(Event{Type: EventRoundEnd, RoomID: s.room.ID, Round: result.Round, Result: result})
}

// applyLedger 把欢乐豆变动写入账本；AI座位不入账
// 账本失败只记日志，不回滚牌局
func (s *TurnScheduler) applyLedger(result *RoundResult) {
	if s.ledger == nil {
		return
	}
	ctx := context.Background()
	for _, change := range result.Changes {
		p := s.room.Players[change.Seat]
		if p.IsAI || change.Amount == 0 {
			continue
		}
		memo := fmt.Sprintf("麻将房间%s第%d局结算", s.room.ID, result.Round)
		var err error
		if change.Amount > 0 {
			err = s.ledger.Credit(ctx, p.ID, change.Amount, memo)
		} else {
			err = s.ledger.Debit(ctx, p.ID, -change.Amount, memo)
		}
		if err != nil {
			s.logger.Error("账本写入失败",
				zap.Error(err),
				zap.String("room_id", s.room.ID),
				zap.Uint("player_id", p.ID),
				zap.Int64("amount", change.Amount))
		}
	}
}

// recordRound 保存单局对局记录；AI胡牌时用户ID为0
func (s *TurnScheduler) recordRound(result *RoundResult) {
	if s.roundStore == nil {
		return
	}
	var winnerUserID uint
	if len(result.Winners) > 0 {
		p := s.room.Players[result.Winners[0].Seat]
		if !p.IsAI {
			winnerUserID = p.ID
		}
	}
	if err := s.roundStore.SaveRound(context.Background(), s.room.ID, s.room.Dealer, winnerUserID, result); err != nil {
		s.logger.Error("对局记录写入失败",
			zap.Error(err),
			zap.String("room_id", s.room.ID),
			zap.Int("round", result.Round))
	}
}

// recordScores 记录人类玩家的积分变动与最新段位
func (s *TurnScheduler) recordScores(result *RoundResult) {
	if s.scoreStore == nil {
		return
	}
	ctx := context.Background()
	for _, change := range result.Changes {
		p := s.room.Players[change.Seat]
		if p.IsAI || change.Amount == 0 {
			continue
		}
		delta := -10
		if change.IsWinner {
			for _, w := range result.Winners {
				if w.Seat == change.Seat {
					delta = w.Fan * 10
					break
				}
			}
		}
		if err := s.scoreStore.SaveScoreHistory(ctx, p.ID, s.room.ID, result.Round, delta, p.Score, RankName(p.Score)); err != nil {
			s.logger.Error("积分历史写入失败",
				zap.Error(err),
				zap.String("room_id", s.room.ID),
				zap.Uint("player_id", p.ID))
		}
	}
}
