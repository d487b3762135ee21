package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/mahjong-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository 钱包仓储接口
type WalletRepository interface {
	BaseRepository
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	AddBeans(ctx context.Context, userID uint, amount int64) error
	DeductBeans(ctx context.Context, userID uint, amount int64) error
	LockForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)
	UpdateSettleStatsTx(tx *gorm.DB, userID uint, amount int64) error
	CreateTransaction(ctx context.Context, transaction *models.WalletTransaction) error
}

// walletRepo 钱包仓储实现
type walletRepo struct {
	*BaseRepo
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建钱包
func (r *walletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

// FindByUserID 根据用户ID查找钱包
func (r *walletRepo) FindByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("钱包不存在")
		}
		return nil, err
	}
	return &wallet, nil
}

// AddBeans 增加欢乐豆
func (r *walletRepo) AddBeans(ctx context.Context, userID uint, amount int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("beans", gorm.Expr("beans + ?", amount)).Error
}

// DeductBeans 扣减欢乐豆；余额不足时整条更新落空
func (r *walletRepo) DeductBeans(ctx context.Context, userID uint, amount int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND beans >= ?", userID, amount).
		Update("beans", gorm.Expr("beans - ?", amount))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("欢乐豆不足")
	}

	return nil
}

// LockForUpdate 锁定钱包用于更新（悲观锁）
func (r *walletRepo) LockForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("钱包不存在")
		}
		return nil, err
	}
	return &wallet, nil
}

// UpdateSettleStatsTx 在事务中按结算金额更新豆与胜负统计
func (r *walletRepo) UpdateSettleStatsTx(tx *gorm.DB, userID uint, amount int64) error {
	updates := map[string]interface{}{
		"beans": gorm.Expr("beans + ?", amount),
	}
	if amount > 0 {
		updates["total_win"] = gorm.Expr("total_win + ?", amount)
		updates["daily_win"] = gorm.Expr("daily_win + ?", amount)
	} else if amount < 0 {
		updates["total_lose"] = gorm.Expr("total_lose + ?", -amount)
		updates["daily_lose"] = gorm.Expr("daily_lose + ?", -amount)
	}

	result := tx.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("钱包不存在")
	}

	return nil
}

// CreateTransaction 创建交易记录
func (r *walletRepo) CreateTransaction(ctx context.Context, transaction *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// WithTx 使用事务
func (r *walletRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &walletRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

// TransactionRepository 交易记录仓储接口
type TransactionRepository interface {
	BaseRepository
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, id uint) (*models.Transaction, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*models.Transaction, error)
	FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Transaction, error)
	FindByType(ctx context.Context, txType string, pagination *Pagination) ([]*models.Transaction, error)
	UpdateStatus(ctx context.Context, orderNo string, status string) error
	GetDailyStatistics(ctx context.Context, userID uint, date time.Time) (*TransactionStats, error)
}

// TransactionStats 交易统计
type TransactionStats struct {
	TotalIn     int64 `json:"total_in"`
	TotalOut    int64 `json:"total_out"`
	NetAmount   int64 `json:"net_amount"`
	TransCount  int   `json:"trans_count"`
	WinCount    int   `json:"win_count"`
	LoseCount   int   `json:"lose_count"`
	RechargeSum int64 `json:"recharge_sum"`
}

// transactionRepo 交易记录仓储实现
type transactionRepo struct {
	*BaseRepo
}

// NewTransactionRepository 创建交易记录仓储
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建交易记录
func (r *transactionRepo) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// FindByID 根据ID查找交易
func (r *transactionRepo) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).First(&transaction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("交易记录不存在")
		}
		return nil, err
	}
	return &transaction, nil
}

// FindByOrderNo 根据订单号查找
func (r *transactionRepo) FindByOrderNo(ctx context.Context, orderNo string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("交易记录不存在")
		}
		return nil, err
	}
	return &transaction, nil
}

// FindByUserID 查找用户的交易记录
func (r *transactionRepo) FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)

	// 获取总数
	var total int64
	query.Count(&total)
	pagination.Total = total

	// 分页查询
	err := query.
		Limit(pagination.PageSize).
		Offset((pagination.Page - 1) * pagination.PageSize).
		Order("created_at DESC").
		Find(&transactions).Error

	return transactions, err
}

// FindByType 根据类型查找交易
func (r *transactionRepo) FindByType(ctx context.Context, txType string, pagination *Pagination) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("type = ?", txType)

	// 获取总数
	var total int64
	query.Count(&total)
	pagination.Total = total

	// 分页查询
	err := query.
		Limit(pagination.PageSize).
		Offset((pagination.Page - 1) * pagination.PageSize).
		Order("created_at DESC").
		Find(&transactions).Error

	return transactions, err
}

// UpdateStatus 更新交易状态
func (r *transactionRepo) UpdateStatus(ctx context.Context, orderNo string, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("order_no = ?", orderNo).
		Update("status", status).Error
}

// GetDailyStatistics 获取日统计
func (r *transactionRepo) GetDailyStatistics(ctx context.Context, userID uint, date time.Time) (*TransactionStats, error) {
	stats := &TransactionStats{}

	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	// 统计收入
	var totalIn int64
	r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type IN (?) AND created_at BETWEEN ? AND ?",
			userID, []string{models.TxTypeSettleWin, models.TxTypeRecharge, models.TxTypeBonus}, startOfDay, endOfDay).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalIn)
	stats.TotalIn = totalIn

	// 统计支出
	var totalOut int64
	r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND created_at BETWEEN ? AND ?",
			userID, models.TxTypeSettleLose, startOfDay, endOfDay).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalOut)
	stats.TotalOut = totalOut

	stats.NetAmount = totalIn - totalOut

	// 统计交易次数
	var transCount int64
	r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND created_at BETWEEN ? AND ?", userID, startOfDay, endOfDay).
		Count(&transCount)
	stats.TransCount = int(transCount)

	// 分类统计
	var winCount int64
	r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND created_at BETWEEN ? AND ?",
			userID, models.TxTypeSettleWin, startOfDay, endOfDay).
		Count(&winCount)
	stats.WinCount = int(winCount)

	var loseCount int64
	r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND created_at BETWEEN ? AND ?",
			userID, models.TxTypeSettleLose, startOfDay, endOfDay).
		Count(&loseCount)
	stats.LoseCount = int(loseCount)

	r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND created_at BETWEEN ? AND ?",
			userID, models.TxTypeRecharge, startOfDay, endOfDay).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.RechargeSum)

	return stats, nil
}

// WithTx 使用事务
func (r *transactionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &transactionRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
