package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// WithTransaction 在事务中执行函数
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
}

// Transaction 事务包装器：惰性构建事务内的各仓储实例
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	// 用户相关
	user        UserRepository
	userAuth    UserAuthRepository
	userSession UserSessionRepository

	// 钱包相关
	wallet      WalletRepository
	transaction TransactionRepository

	// 麻将相关
	mahjongScore MahjongScoreRepository
	mahjongRound MahjongRoundRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("开始事务失败: %w", tx.Error)
	}
	return &Transaction{tx: tx, ctx: ctx}, nil
}

// WithTransaction 在事务中执行函数；fn返回错误则整体回滚
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	t, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = t.Rollback()
			panic(r)
		}
	}()

	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf("回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}

	return t.Commit()
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed || t.rolledback {
		return fmt.Errorf("事务已结束")
	}
	if err := t.tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed || t.rolledback {
		return nil
	}
	if err := t.tx.Rollback().Error; err != nil {
		return fmt.Errorf("回滚事务失败: %w", err)
	}
	t.rolledback = true
	return nil
}

// GetDB 获取事务数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// User 事务内的用户仓储
func (t *Transaction) User() UserRepository {
	if t.user == nil {
		t.user = NewUserRepository(t.tx)
	}
	return t.user
}

// UserAuth 事务内的用户认证仓储
func (t *Transaction) UserAuth() UserAuthRepository {
	if t.userAuth == nil {
		t.userAuth = NewUserAuthRepository(t.tx)
	}
	return t.userAuth
}

// UserSession 事务内的用户会话仓储
func (t *Transaction) UserSession() UserSessionRepository {
	if t.userSession == nil {
		t.userSession = NewUserSessionRepository(t.tx)
	}
	return t.userSession
}

// Wallet 事务内的钱包仓储
func (t *Transaction) Wallet() WalletRepository {
	if t.wallet == nil {
		t.wallet = NewWalletRepository(t.tx)
	}
	return t.wallet
}

// TransactionRepo 事务内的交易记录仓储
func (t *Transaction) TransactionRepo() TransactionRepository {
	if t.transaction == nil {
		t.transaction = NewTransactionRepository(t.tx)
	}
	return t.transaction
}

// MahjongScore 事务内的积分历史仓储
func (t *Transaction) MahjongScore() MahjongScoreRepository {
	if t.mahjongScore == nil {
		t.mahjongScore = NewMahjongScoreRepository(t.tx)
	}
	return t.mahjongScore
}

// MahjongRound 事务内的牌局记录仓储
func (t *Transaction) MahjongRound() MahjongRoundRepository {
	if t.mahjongRound == nil {
		t.mahjongRound = NewMahjongRoundRepository(t.tx)
	}
	return t.mahjongRound
}
