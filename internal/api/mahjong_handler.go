package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/mahjong-game/internal/errors"
	"github.com/wfunc/mahjong-game/internal/game"
	"github.com/wfunc/mahjong-game/internal/logger"
	"github.com/wfunc/mahjong-game/internal/middleware"
	"github.com/wfunc/mahjong-game/internal/service"
	"go.uber.org/zap"
)

// MahjongHandler 麻将牌局处理器
type MahjongHandler struct {
	gameService *game.Service
	userService service.UserService
	logger      *zap.Logger
}

// NewMahjongHandler 创建麻将牌局处理器
func NewMahjongHandler(gameService *game.Service, userService service.UserService, logger *zap.Logger) *MahjongHandler {
	return &MahjongHandler{
		gameService: gameService,
		userService: userService,
		logger:      logger,
	}
}

// GangRequest 暗杠请求
type GangRequest struct {
	RoomID string `json:"room_id" binding:"required"`
	Tile   string `json:"tile" binding:"required"`
}

// RoomActionRequest 只带房间号的操作请求
type RoomActionRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

// respondError 把业务错误翻译成HTTP响应
func (h *MahjongHandler) respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.HTTPStatus(), ErrorResponse{
			Code:    fmt.Sprintf("%d", appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	h.logger.Error("牌局接口未分类错误", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "500",
		Message: "服务器内部错误",
	})
}

// CreateRoom 开房
// @Summary 开房
// @Description 创建一桌麻将并立即开局，三个座位由AI补齐
// @Tags Mahjong
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body game.CreateRoomRequest true "开房配置"
// @Success 200 {object} game.RoomSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/mahjong/rooms [post]
func (h *MahjongHandler) CreateRoom(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	var req game.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	snapshot, err := h.gameService.CreateRoom(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	logger.LogGameEvent("room_created", snapshot.RoomID, map[string]interface{}{
		"user_id":      userID,
		"base_stake":   req.BaseStake,
		"total_rounds": req.TotalRounds,
	})
	c.JSON(200, snapshot)
}

// GetState 牌桌快照
// @Summary 牌桌快照
// @Description 获取当前牌桌状态，他人手牌只返回张数
// @Tags Mahjong
// @Security Bearer
// @Produce json
// @Param room_id query string true "房间ID"
// @Success 200 {object} game.RoomSnapshot
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/mahjong/state [get]
func (h *MahjongHandler) GetState(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	roomID := c.Query("room_id")
	if roomID == "" {
		c.JSON(400, gin.H{"error": "缺少room_id"})
		return
	}

	snapshot, err := h.gameService.Snapshot(c.Request.Context(), userID, roomID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, snapshot)
}

// Discard 打牌
// @Summary 打牌
// @Description 轮到自己时打出一张手牌
// @Tags Mahjong
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body game.DiscardRequest true "打牌请求"
// @Success 200 {object} game.RoomSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/mahjong/discard [post]
func (h *MahjongHandler) Discard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	var req game.DiscardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	snapshot, err := h.gameService.Discard(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, snapshot)
}

// React 反应
// @Summary 对打出的牌反应
// @Description 在反应窗口内声明吃/碰/杠/胡/过
// @Tags Mahjong
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body game.ReactionRequest true "反应请求"
// @Success 200 {object} game.RoomSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/mahjong/react [post]
func (h *MahjongHandler) React(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	var req game.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	snapshot, err := h.gameService.React(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, snapshot)
}

// Zimo 自摸
// @Summary 自摸胡牌
// @Description 摸牌后手牌构成胡型时宣告自摸
// @Tags Mahjong
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body RoomActionRequest true "房间"
// @Success 200 {object} game.RoomSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/mahjong/zimo [post]
func (h *MahjongHandler) Zimo(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	var req RoomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	snapshot, err := h.gameService.Zimo(c.Request.Context(), userID, req.RoomID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, snapshot)
}

// ConcealedGang 暗杠
// @Summary 暗杠
// @Description 手里四张相同时在自己回合内暗杠
// @Tags Mahjong
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body GangRequest true "暗杠请求"
// @Success 200 {object} game.RoomSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/mahjong/gang [post]
func (h *MahjongHandler) ConcealedGang(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	var req GangRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	snapshot, err := h.gameService.ConcealedGang(c.Request.Context(), userID, req.RoomID, req.Tile)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, snapshot)
}

// NextRound 下一局
// @Summary 开下一局
// @Description 一局结算完毕后开始下一局
// @Tags Mahjong
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body RoomActionRequest true "房间"
// @Success 200 {object} game.RoomSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/mahjong/next [post]
func (h *MahjongHandler) NextRound(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	var req RoomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	snapshot, err := h.gameService.NextRound(c.Request.Context(), userID, req.RoomID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, snapshot)
}

// LastResult 上一局结算
// @Summary 上一局结算结果
// @Description 获取最近一局的胡牌与欢乐豆变动明细
// @Tags Mahjong
// @Security Bearer
// @Produce json
// @Param room_id query string true "房间ID"
// @Success 200 {object} game.RoundResult
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/mahjong/result [get]
func (h *MahjongHandler) LastResult(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	roomID := c.Query("room_id")
	if roomID == "" {
		c.JSON(400, gin.H{"error": "缺少room_id"})
		return
	}

	result, err := h.gameService.LastResult(c.Request.Context(), userID, roomID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, result)
}

// LeaveRoom 退出房间
// @Summary 退出房间
// @Description 退出并解散当前房间，对局中退出视为弃局
// @Tags Mahjong
// @Security Bearer
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/mahjong/leave [post]
func (h *MahjongHandler) LeaveRoom(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(401, gin.H{"error": "未登录"})
		return
	}

	if err := h.gameService.LeaveRoom(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, SuccessResponse{Message: "已退出房间"})
}

// Leaderboard 段位排行榜
// @Summary 段位排行榜
// @Description 按当前积分降序返回排行榜
// @Tags Mahjong
// @Produce json
// @Param limit query int false "返回条数（<=100）"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/mahjong/leaderboard [get]
func (h *MahjongHandler) Leaderboard(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}

	entries, err := h.userService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"leaderboard": entries})
}
