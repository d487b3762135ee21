package repository

import (
	"context"
	"errors"

	"github.com/wfunc/mahjong-game/internal/models"
	"gorm.io/gorm"
)

// MahjongScoreRepository 积分/段位历史仓储接口
type MahjongScoreRepository interface {
	BaseRepository
	Create(ctx context.Context, score *models.MahjongScore) error
	FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.MahjongScore, error)
	LatestByUserID(ctx context.Context, userID uint) (*models.MahjongScore, error)
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error)
}

// LeaderboardEntry 排行榜一行
type LeaderboardEntry struct {
	UserID uint   `json:"user_id"`
	Score  int    `json:"score"`
	Rank   string `json:"rank"`
}

// mahjongScoreRepo 积分历史仓储实现
type mahjongScoreRepo struct {
	*BaseRepo
}

// NewMahjongScoreRepository 创建积分历史仓储
func NewMahjongScoreRepository(db *gorm.DB) MahjongScoreRepository {
	return &mahjongScoreRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 写入一条积分变动
func (r *mahjongScoreRepo) Create(ctx context.Context, score *models.MahjongScore) error {
	return r.db.WithContext(ctx).Create(score).Error
}

// FindByUserID 查找用户的积分历史
func (r *mahjongScoreRepo) FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.MahjongScore, error) {
	var scores []*models.MahjongScore
	query := r.db.WithContext(ctx).Model(&models.MahjongScore{}).Where("user_id = ?", userID)

	var total int64
	query.Count(&total)
	pagination.Total = total

	err := query.
		Limit(pagination.PageSize).
		Offset((pagination.Page - 1) * pagination.PageSize).
		Order("created_at DESC").
		Find(&scores).Error

	return scores, err
}

// LatestByUserID 用户最新一条积分记录（含当前段位）
func (r *mahjongScoreRepo) LatestByUserID(ctx context.Context, userID uint) (*models.MahjongScore, error) {
	var score models.MahjongScore
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("暂无积分记录")
		}
		return nil, err
	}
	return &score, nil
}

// Leaderboard 按每个用户最新累计积分排序
func (r *mahjongScoreRepo) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var entries []*LeaderboardEntry
	err := r.db.WithContext(ctx).
		Model(&models.MahjongScore{}).
		Select("user_id, score, rank").
		Where("id IN (SELECT MAX(id) FROM mahjong_scores GROUP BY user_id)").
		Order("score DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

// WithTx 使用事务
func (r *mahjongScoreRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &mahjongScoreRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

// MahjongRoundRepository 牌局记录仓储接口
type MahjongRoundRepository interface {
	BaseRepository
	Create(ctx context.Context, round *models.MahjongRound) error
	FindByRoomID(ctx context.Context, roomID string) ([]*models.MahjongRound, error)
	CountWinsByUser(ctx context.Context, userID uint) (int64, error)
}

// mahjongRoundRepo 牌局记录仓储实现
type mahjongRoundRepo struct {
	*BaseRepo
}

// NewMahjongRoundRepository 创建牌局记录仓储
func NewMahjongRoundRepository(db *gorm.DB) MahjongRoundRepository {
	return &mahjongRoundRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 写入一局记录
func (r *mahjongRoundRepo) Create(ctx context.Context, round *models.MahjongRound) error {
	return r.db.WithContext(ctx).Create(round).Error
}

// FindByRoomID 查找房间的全部对局记录
func (r *mahjongRoundRepo) FindByRoomID(ctx context.Context, roomID string) ([]*models.MahjongRound, error) {
	var rounds []*models.MahjongRound
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("round_no ASC").
		Find(&rounds).Error
	return rounds, err
}

// CountWinsByUser 统计用户胡牌局数
func (r *mahjongRoundRepo) CountWinsByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MahjongRound{}).
		Where("winner_user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *mahjongRoundRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &mahjongRoundRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
