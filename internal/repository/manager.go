package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器：按需惰性创建各仓储单例
type Manager struct {
	db *gorm.DB
	mu sync.RWMutex

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

	// 事务管理
	txManager TransactionManager
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// User 获取用户仓储
func (m *Manager) User() UserRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		m.user = NewUserRepository(m.db)
	}
	return m.user
}

// UserAuth 获取用户认证仓储
func (m *Manager) UserAuth() UserAuthRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userAuth == nil {
		m.userAuth = NewUserAuthRepository(m.db)
	}
	return m.userAuth
}

// UserSession 获取用户会话仓储
func (m *Manager) UserSession() UserSessionRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userSession == nil {
		m.userSession = NewUserSessionRepository(m.db)
	}
	return m.userSession
}

// Wallet 获取钱包仓储
func (m *Manager) Wallet() WalletRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wallet == nil {
		m.wallet = NewWalletRepository(m.db)
	}
	return m.wallet
}

// Transaction 获取交易记录仓储
func (m *Manager) Transaction() TransactionRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transaction == nil {
		m.transaction = NewTransactionRepository(m.db)
	}
	return m.transaction
}

// MahjongScore 获取积分历史仓储
func (m *Manager) MahjongScore() MahjongScoreRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mahjongScore == nil {
		m.mahjongScore = NewMahjongScoreRepository(m.db)
	}
	return m.mahjongScore
}

// MahjongRound 获取牌局记录仓储
func (m *Manager) MahjongRound() MahjongRoundRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mahjongRound == nil {
		m.mahjongRound = NewMahjongRoundRepository(m.db)
	}
	return m.mahjongRound
}

// TxManager 获取事务管理器
func (m *Manager) TxManager() TransactionManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txManager == nil {
		m.txManager = NewTransactionManager(m.db)
	}
	return m.txManager
}

// WithTransaction 在事务中执行
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.TxManager().WithTransaction(ctx, fn)
}

// HealthCheck 检查数据库连接
func (m *Manager) HealthCheck(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
