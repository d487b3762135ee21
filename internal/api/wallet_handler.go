package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/mahjong-game/internal/middleware"
	"github.com/wfunc/mahjong-game/internal/models"
	"github.com/wfunc/mahjong-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WalletHandler 钱包处理器
type WalletHandler struct {
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	db              *gorm.DB
	logger          *zap.Logger
}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler(db *gorm.DB, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		walletRepo:      repository.NewWalletRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		db:              db,
		logger:          logger,
	}
}

// BalanceResponse 余额响应
type BalanceResponse struct {
	Beans       int64  `json:"beans"`
	FrozenBeans int64  `json:"frozen_beans"`
	Available   int64  `json:"available"`
	Currency    string `json:"currency"`
}

// RechargeRequest 充值请求
type RechargeRequest struct {
	Amount int64 `json:"amount" binding:"required,min=100,max=1000000"`
}

// RechargeResponse 充值响应
type RechargeResponse struct {
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Beans         int64     `json:"beans"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionListResponse 交易列表响应
type TransactionListResponse struct {
	Transactions []TransactionInfo `json:"transactions"`
	Total        int64             `json:"total"`
	Page         int               `json:"page"`
	PageSize     int               `json:"page_size"`
}

// TransactionInfo 交易信息
type TransactionInfo struct {
	ID          uint      `json:"id"`
	OrderNo     string    `json:"order_no"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	BeforeBeans int64     `json:"before_beans"`
	AfterBeans  int64     `json:"after_beans"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetBalance 获取余额
// @Summary 获取余额
// @Description 获取当前用户的欢乐豆余额与可用余额
// @Tags Wallet
// @Security Bearer
// @Produce json
// @Success 200 {object} BalanceResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/wallet/balance [get]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	// 获取钱包信息
	wallet, err := h.walletRepo.FindByUserID(c.Request.Context(), userID)
	if err != nil {
		// 如果钱包不存在，创建一个新钱包
		if err.Error() == "钱包不存在" {
			wallet = &models.Wallet{
				UserID: userID,
				Beans:  1000, // 初始赠送1000欢乐豆
			}
			if err = h.walletRepo.Create(c.Request.Context(), wallet); err != nil {
				h.logger.Error("创建钱包失败", zap.Error(err))
				c.JSON(500, gin.H{"error": "创建钱包失败"})
				return
			}

			// 记录初始赠送交易
			transaction := &models.WalletTransaction{
				UserID:      userID,
				OrderNo:     fmt.Sprintf("INIT-%d-%d", userID, time.Now().Unix()),
				Type:        models.TxTypeBonus,
				Amount:      1000,
				BeforeBeans: 0,
				AfterBeans:  1000,
				RefType:     "system",
				RefID:       "initial",
				Description: "新用户初始赠送",
				Status:      "success",
			}
			h.walletRepo.CreateTransaction(c.Request.Context(), transaction)
		} else {
			h.logger.Error("获取钱包失败", zap.Error(err))
			c.JSON(500, gin.H{"error": "获取余额失败"})
			return
		}
	}

	c.JSON(200, BalanceResponse{
		Beans:       wallet.Beans,
		FrozenBeans: wallet.FrozenBeans,
		Available:   wallet.Beans - wallet.FrozenBeans,
		Currency:    "BEAN",
	})
}

// Recharge 充值欢乐豆
// @Summary 充值欢乐豆
// @Description 增加欢乐豆余额（演示环境直接到账）
// @Tags Wallet
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body RechargeRequest true "充值请求"
// @Success 200 {object} RechargeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/wallet/recharge [post]
func (h *WalletHandler) Recharge(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	// 开始事务
	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// 获取钱包（加锁）
	wallet, err := h.walletRepo.WithTx(tx).(repository.WalletRepository).LockForUpdate(c.Request.Context(), userID)
	if err != nil {
		tx.Rollback()
		h.logger.Error("获取钱包失败", zap.Error(err))
		c.JSON(500, gin.H{"error": "获取钱包失败"})
		return
	}

	// 增加欢乐豆
	beforeBeans := wallet.Beans
	if err := h.walletRepo.WithTx(tx).(repository.WalletRepository).AddBeans(c.Request.Context(), userID, req.Amount); err != nil {
		tx.Rollback()
		h.logger.Error("增加欢乐豆失败", zap.Error(err))
		c.JSON(500, gin.H{"error": "充值失败"})
		return
	}

	// 创建交易记录
	transactionID := fmt.Sprintf("RC-%d-%d", userID, time.Now().Unix())
	transaction := &models.WalletTransaction{
		UserID:      userID,
		OrderNo:     transactionID,
		Type:        models.TxTypeRecharge,
		Amount:      req.Amount,
		BeforeBeans: beforeBeans,
		AfterBeans:  beforeBeans + req.Amount,
		RefType:     "manual",
		Description: "欢乐豆充值",
		Status:      "success",
	}

	if err := h.walletRepo.WithTx(tx).(repository.WalletRepository).CreateTransaction(c.Request.Context(), transaction); err != nil {
		tx.Rollback()
		h.logger.Error("创建交易记录失败", zap.Error(err))
		c.JSON(500, gin.H{"error": "记录交易失败"})
		return
	}

	// 累计充值统计
	if err := tx.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("total_recharge", gorm.Expr("total_recharge + ?", req.Amount)).Error; err != nil {
		tx.Rollback()
		h.logger.Error("更新充值统计失败", zap.Error(err))
		c.JSON(500, gin.H{"error": "充值失败"})
		return
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		h.logger.Error("提交事务失败", zap.Error(err))
		c.JSON(500, gin.H{"error": "充值失败"})
		return
	}

	h.logger.Info("充值成功",
		zap.Uint("user_id", userID),
		zap.Int64("amount", req.Amount),
		zap.String("transaction_id", transactionID))

	c.JSON(200, RechargeResponse{
		TransactionID: transactionID,
		Amount:        req.Amount,
		Beans:         beforeBeans + req.Amount,
		Status:        "success",
		CreatedAt:     time.Now(),
	})
}

// GetTransactions 获取交易记录
// @Summary 交易记录
// @Description 获取当前用户的交易记录（支持类型过滤与分页）
// @Tags Wallet
// @Security Bearer
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量（<=100）"
// @Param type query string false "交易类型（recharge/settle_win/settle_lose/bonus）"
// @Success 200 {object} TransactionListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/wallet/transactions [get]
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	// 获取分页参数
	page := 1
	if p := c.Query("page"); p != "" {
		fmt.Sscanf(p, "%d", &page)
	}
	pageSize := 20
	if ps := c.Query("page_size"); ps != "" {
		fmt.Sscanf(ps, "%d", &pageSize)
	}

	// 限制页面大小
	if pageSize > 100 {
		pageSize = 100
	}

	// 获取交易类型过滤
	txType := c.Query("type")

	// 创建分页对象
	pagination := &repository.Pagination{
		Page:     page,
		PageSize: pageSize,
	}

	// 查询交易记录
	var transactions []*models.Transaction
	var err error

	if txType != "" {
		transactions, err = h.transactionRepo.FindByType(c.Request.Context(), txType, pagination)
	} else {
		transactions, err = h.transactionRepo.FindByUserID(c.Request.Context(), userID, pagination)
	}

	if err != nil {
		h.logger.Error("获取交易记录失败",
			zap.Uint("user_id", userID),
			zap.Error(err))
		c.JSON(500, gin.H{"error": "获取交易记录失败"})
		return
	}

	// 转换为响应格式
	var transactionInfos []TransactionInfo
	for _, tx := range transactions {
		transactionInfos = append(transactionInfos, TransactionInfo{
			ID:          tx.ID,
			OrderNo:     tx.OrderNo,
			Type:        tx.Type,
			Amount:      tx.Amount,
			BeforeBeans: tx.BeforeBeans,
			AfterBeans:  tx.AfterBeans,
			Description: tx.Description,
			Status:      tx.Status,
			CreatedAt:   tx.CreatedAt,
		})
	}

	c.JSON(200, TransactionListResponse{
		Transactions: transactionInfos,
		Total:        pagination.Total,
		Page:         page,
		PageSize:     pageSize,
	})
}

// GetStatistics 获取钱包统计
// @Summary 钱包统计
// @Description 获取指定日期的输赢统计信息
// @Tags Wallet
// @Security Bearer
// @Produce json
// @Param date query string false "日期，格式YYYY-MM-DD"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/wallet/statistics [get]
func (h *WalletHandler) GetStatistics(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	// 获取日期参数（默认今天）
	date := time.Now()
	if d := c.Query("date"); d != "" {
		parsedDate, err := time.Parse("2006-01-02", d)
		if err == nil {
			date = parsedDate
		}
	}

	// 获取统计数据
	stats, err := h.transactionRepo.GetDailyStatistics(c.Request.Context(), userID, date)
	if err != nil {
		h.logger.Error("获取统计失败",
			zap.Uint("user_id", userID),
			zap.Error(err))
		c.JSON(500, gin.H{"error": "获取统计失败"})
		return
	}

	// 获取钱包信息
	wallet, err := h.walletRepo.FindByUserID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("获取钱包失败", zap.Error(err))
		wallet = &models.Wallet{}
	}

	c.JSON(200, gin.H{
		"beans":          wallet.Beans,
		"total_recharge": wallet.TotalRecharge,
		"total_win":      wallet.TotalWin,
		"total_lose":     wallet.TotalLose,
		"daily_stats":    stats,
		"date":           date.Format("2006-01-02"),
	})
}
