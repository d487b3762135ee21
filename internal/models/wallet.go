package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet 用户钱包表：欢乐豆是唯一的对局货币
type Wallet struct {
	BaseModel
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Beans         int64     `gorm:"default:0" json:"beans"` // 欢乐豆
	FrozenBeans   int64     `gorm:"default:0" json:"frozen_beans"`
	TotalRecharge int64     `gorm:"default:0" json:"total_recharge"`
	TotalWin      int64     `gorm:"default:0" json:"total_win"`  // 对局赢得的豆
	TotalLose     int64     `gorm:"default:0" json:"total_lose"` // 对局输掉的豆
	DailyWin      int64     `gorm:"default:0" json:"daily_win"`
	DailyLose     int64     `gorm:"default:0" json:"daily_lose"`
	LastResetAt   time.Time `json:"last_reset_at"`

	// 关联（注意：不直接嵌入 User，避免循环依赖）
	// 查询时使用 Preload("User") 来加载用户信息
}

// 交易类型
const (
	TxTypeRecharge   = "recharge"    // 充值欢乐豆
	TxTypeSettleWin  = "settle_win"  // 对局结算入账
	TxTypeSettleLose = "settle_lose" // 对局结算扣账
	TxTypeBonus      = "bonus"       // 系统赠送
)

// WalletTransaction 是 Transaction 的别名，用于兼容性
type WalletTransaction = Transaction

// Transaction 交易记录表
type Transaction struct {
	BaseModel
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	OrderNo     string     `gorm:"uniqueIndex;size:64;not null" json:"order_no"`
	Type        string     `gorm:"size:50;not null;index" json:"type"` // recharge, settle_win, settle_lose, bonus
	Amount      int64      `gorm:"not null" json:"amount"`
	BeforeBeans int64      `json:"before_beans"`
	AfterBeans  int64      `json:"after_beans"`
	Status      string     `gorm:"size:20;default:'pending';index" json:"status"` // pending, success, failed
	RefID       string     `gorm:"size:100;index" json:"ref_id"`                  // 关联ID（房间ID、充值单号等）
	RefType     string     `gorm:"size:50" json:"ref_type"`
	Description string     `gorm:"size:500" json:"description"`
	Metadata    JSONMap    `gorm:"type:json" json:"metadata"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// 关联（注意：不直接嵌入 User，避免循环依赖）
}

// BeanPackage 欢乐豆充值套餐
type BeanPackage struct {
	BaseModel
	Name       string `gorm:"size:100;not null" json:"name"`
	BeanAmount int64  `gorm:"not null" json:"bean_amount"`
	BonusBeans int64  `gorm:"default:0" json:"bonus_beans"`
	Price      int64  `gorm:"not null" json:"price"` // 分
	Status     string `gorm:"size:20;default:'active'" json:"status"`
	SortOrder  int    `gorm:"default:0" json:"sort_order"`
}

// BeanPurchase 欢乐豆充值记录
type BeanPurchase struct {
	BaseModel
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	OrderNo       string     `gorm:"uniqueIndex;size:64;not null" json:"order_no"`
	TransactionID uint       `gorm:"index" json:"transaction_id"`
	PackageID     uint       `json:"package_id"`
	PackageName   string     `gorm:"size:100" json:"package_name"`
	BeanAmount    int64      `gorm:"not null" json:"bean_amount"`
	BonusBeans    int64      `gorm:"default:0" json:"bonus_beans"`
	Price         int64      `gorm:"not null" json:"price"`     // 分
	PayMethod     string     `gorm:"size:50" json:"pay_method"` // alipay, wechat, apple, google
	PayTime       *time.Time `json:"pay_time,omitempty"`
	Status        string     `gorm:"size:20;default:'pending'" json:"status"`

	// 关联（注意：不直接嵌入 User，避免循环依赖）
	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

// BeforeCreate 钱包创建前的钩子
func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	w.LastResetAt = time.Now()
	return nil
}

// UpdateSettle 更新对局结算统计
func (w *Wallet) UpdateSettle(amount int64) {
	w.Beans += amount
	if amount > 0 {
		w.TotalWin += amount
		w.DailyWin += amount
	} else {
		w.TotalLose += -amount
		w.DailyLose += -amount
	}
}

// ResetDailyStats 重置每日统计
func (w *Wallet) ResetDailyStats() {
	now := time.Now()
	if now.Day() != w.LastResetAt.Day() {
		w.DailyWin = 0
		w.DailyLose = 0
		w.LastResetAt = now
	}
}

// CanStake 检查欢乐豆是否够进场
func (w *Wallet) CanStake(amount int64) bool {
	return w.Beans-w.FrozenBeans >= amount
}
