package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/mahjong-game/internal/models"
	"github.com/wfunc/mahjong-game/internal/repository"
)

// walletLedger 基于钱包仓储的账本实现
// 扣豆/加豆与交易流水在同一个事务里完成
type walletLedger struct {
	repos *repository.Manager
}

// NewWalletLedger 创建钱包账本
func NewWalletLedger(repos *repository.Manager) Ledger {
	return &walletLedger{repos: repos}
}

// Credit 结算入账
func (l *walletLedger) Credit(ctx context.Context, userID uint, amount int64, memo string) error {
	return l.apply(ctx, userID, amount, models.TxTypeSettleWin, memo)
}

// Debit 结算扣账
func (l *walletLedger) Debit(ctx context.Context, userID uint, amount int64, memo string) error {
	return l.apply(ctx, userID, -amount, models.TxTypeSettleLose, memo)
}

func (l *walletLedger) apply(ctx context.Context, userID uint, amount int64, txType, memo string) error {
	return l.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		wallet, err := tx.Wallet().LockForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if err := tx.Wallet().UpdateSettleStatsTx(tx.GetDB(), userID, amount); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:      userID,
			OrderNo:     newOrderNo(),
			Type:        txType,
			Amount:      amount,
			BeforeBeans: wallet.Beans,
			AfterBeans:  wallet.Beans + amount,
			Status:      "success",
			RefType:     "mahjong_round",
			Description: memo,
		}
		now := time.Now()
		record.ProcessedAt = &now
		return tx.TransactionRepo().Create(ctx, record)
	})
}

// newOrderNo 生成交易订单号
func newOrderNo() string {
	return fmt.Sprintf("MJ%s%s", time.Now().Format("20060102150405"), uuid.NewString()[:8])
}

// scoreStore 积分历史存储实现
type scoreStore struct {
	repos *repository.Manager
}

// NewScoreStore 创建积分历史存储
func NewScoreStore(repos *repository.Manager) ScoreStore {
	return &scoreStore{repos: repos}
}

// SaveScoreHistory 写入一条积分变动记录
func (s *scoreStore) SaveScoreHistory(ctx context.Context, playerID uint, roomID string, round, delta, score int, newRank string) error {
	return s.repos.MahjongScore().Create(ctx, &models.MahjongScore{
		UserID: playerID,
		RoomID: roomID,
		Round:  round,
		Delta:  delta,
		Score:  score,
		Rank:   newRank,
	})
}

// roundStore 对局记录存储实现
type roundStore struct {
	repos *repository.Manager
}

// NewRoundStore 创建对局记录存储
func NewRoundStore(repos *repository.Manager) RoundStore {
	return &roundStore{repos: repos}
}

// SaveRound 保存一局的最终结果
func (s *roundStore) SaveRound(ctx context.Context, roomID string, dealer int, winnerUserID uint, result *RoundResult) error {
	record := &models.MahjongRound{
		RoomID:       roomID,
		RoundNo:      result.Round,
		DealerSeat:   dealer,
		Drawn:        result.Drawn,
		WinnerSeat:   -1,
		WinnerUserID: winnerUserID,
	}
	if len(result.Winners) > 0 {
		w := result.Winners[0]
		record.WinnerSeat = w.Seat
		record.Zimo = w.Zimo
		record.Fan = w.Fan
		record.Payout = w.Payout
	}

	detail := models.JSONMap{}
	for _, w := range result.Winners {
		detail[fmt.Sprintf("winner_%d", w.Seat)] = map[string]interface{}{
			"fan":        w.Fan,
			"payout":     w.Payout,
			"zimo":       w.Zimo,
			"categories": w.Categories,
		}
	}
	for _, c := range result.Changes {
		detail[fmt.Sprintf("seat_%d", c.Seat)] = map[string]interface{}{
			"name":   c.Name,
			"amount": c.Amount,
			"pao":    c.IsPao,
		}
	}
	record.Detail = detail

	return s.repos.MahjongRound().Create(ctx, record)
}
