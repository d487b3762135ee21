package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/mahjong-game/internal/errors"
	"github.com/wfunc/mahjong-game/internal/game/mahjong"
	"github.com/wfunc/mahjong-game/internal/repository"
	"go.uber.org/zap"
)

// ServiceConfig 房间服务配置
type ServiceConfig struct {
	Logger         *zap.Logger
	Repos          *repository.Manager
	Notifier       Notifier
	Clock          Clock
	ThinkDelay     time.Duration
	ReactionWindow time.Duration
}

// Service 房间注册表：管理所有在开的牌桌
// 一个用户同时只能在一个房间里
type Service struct {
	mu        sync.RWMutex
	rooms     map[string]*TurnScheduler
	userRooms map[uint]string

	logger         *zap.Logger
	repos          *repository.Manager
	notifier       Notifier
	clock          Clock
	thinkDelay     time.Duration
	reactionWindow time.Duration

	ledger     Ledger
	scoreStore ScoreStore
	roundStore RoundStore
}

// NewService 创建房间服务
func NewService(cfg *ServiceConfig) *Service {
	s := &Service{
		rooms:          make(map[string]*TurnScheduler),
		userRooms:      make(map[uint]string),
		logger:         cfg.Logger,
		repos:          cfg.Repos,
		notifier:       cfg.Notifier,
		clock:          cfg.Clock,
		thinkDelay:     cfg.ThinkDelay,
		reactionWindow: cfg.ReactionWindow,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.repos != nil {
		s.ledger = NewWalletLedger(s.repos)
		s.scoreStore = NewScoreStore(s.repos)
		s.roundStore = NewRoundStore(s.repos)
	}
	return s
}

// CreateRoom 开房并立即开局：校验欢乐豆、配三个AI、发牌
func (s *Service) CreateRoom(ctx context.Context, userID uint, req *CreateRoomRequest) (*RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roomID, ok := s.userRooms[userID]; ok {
		if _, alive := s.rooms[roomID]; alive {
			return nil, errors.New(errors.ErrIllegalAction, "已在房间中，请先退出")
		}
		delete(s.userRooms, userID)
	}

	user, err := s.repos.User().FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound)
	}

	cfg := RoomConfig{BaseStake: req.BaseStake, TotalRounds: req.TotalRounds}
	if cfg.BaseStake <= 0 {
		cfg.BaseStake = 100
	}

	wallet, err := s.repos.Wallet().FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	// 至少要付得起一次三家自摸的底注
	if wallet.Beans < cfg.BaseStake*3 {
		return nil, errors.New(errors.ErrInsufficientBeans)
	}

	owner := &Player{
		ID:    user.ID,
		Name:  user.Nickname,
		Beans: wallet.Beans,
	}
	if owner.Name == "" {
		owner.Name = user.Username
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	room := NewRoomState(owner, cfg, rng)
	sched := NewTurnScheduler(room, rng, &SchedulerConfig{
		Logger:         s.logger,
		Clock:          s.clock,
		Notifier:       s.notifier,
		Ledger:         s.ledger,
		ScoreStore:     s.scoreStore,
		RoundStore:     s.roundStore,
		ThinkDelay:     s.thinkDelay,
		ReactionWindow: s.reactionWindow,
	})

	if err := sched.Start(); err != nil {
		return nil, err
	}

	s.rooms[room.ID] = sched
	s.userRooms[userID] = room.ID

	s.logger.Info("开房成功",
		zap.String("room_id", room.ID),
		zap.Uint("user_id", userID),
		zap.Int64("base_stake", cfg.BaseStake),
		zap.Int("total_rounds", room.TotalRounds))

	snapshot := sched.Snapshot(owner.Seat)
	return &snapshot, nil
}

// Discard 玩家打出一张牌
func (s *Service) Discard(ctx context.Context, userID uint, req *DiscardRequest) (*RoomSnapshot, error) {
	sched, seat, err := s.seatOf(userID, req.RoomID)
	if err != nil {
		return nil, err
	}
	tile, err := mahjong.ParseTile(req.Tile)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidTile)
	}
	if err := sched.Discard(seat, tile); err != nil {
		return nil, err
	}
	snapshot := sched.Snapshot(seat)
	return &snapshot, nil
}

// React 对别家打出的牌作出反应（吃/碰/杠/胡/过）
func (s *Service) React(ctx context.Context, userID uint, req *ReactionRequest) (*RoomSnapshot, error) {
	sched, seat, err := s.seatOf(userID, req.RoomID)
	if err != nil {
		return nil, err
	}

	action := mahjong.ActionType(req.Action)
	switch action {
	case mahjong.ActionHu, mahjong.ActionGang, mahjong.ActionPeng, mahjong.ActionChi, mahjong.ActionPass:
	default:
		return nil, errors.New(errors.ErrIllegalAction, "未知反应类型: "+req.Action)
	}

	var combo *mahjong.ChiCombo
	if action == mahjong.ActionChi {
		if len(req.Combo) != 2 {
			return nil, errors.New(errors.ErrIllegalAction, "吃牌需要指定手内两张搭子")
		}
		tiles, perr := mahjong.ParseTiles(req.Combo)
		if perr != nil {
			return nil, errors.Wrap(perr, errors.ErrInvalidTile)
		}
		combo = &mahjong.ChiCombo{tiles[0], tiles[1]}
	}

	if err := sched.React(seat, action, combo); err != nil {
		return nil, err
	}
	snapshot := sched.Snapshot(seat)
	return &snapshot, nil
}

// Zimo 自摸胡牌
func (s *Service) Zimo(ctx context.Context, userID uint, roomID string) (*RoomSnapshot, error) {
	sched, seat, err := s.seatOf(userID, roomID)
	if err != nil {
		return nil, err
	}
	if err := sched.Zimo(seat); err != nil {
		return nil, err
	}
	snapshot := sched.Snapshot(seat)
	return &snapshot, nil
}

// ConcealedGang 暗杠
func (s *Service) ConcealedGang(ctx context.Context, userID uint, roomID, tileSymbol string) (*RoomSnapshot, error) {
	sched, seat, err := s.seatOf(userID, roomID)
	if err != nil {
		return nil, err
	}
	tile, err := mahjong.ParseTile(tileSymbol)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidTile)
	}
	if err := sched.ConcealedGang(seat, tile); err != nil {
		return nil, err
	}
	snapshot := sched.Snapshot(seat)
	return &snapshot, nil
}

// NextRound 上一局结算完后开下一局
func (s *Service) NextRound(ctx context.Context, userID uint, roomID string) (*RoomSnapshot, error) {
	sched, seat, err := s.seatOf(userID, roomID)
	if err != nil {
		return nil, err
	}
	if err := sched.NextRound(); err != nil {
		return nil, err
	}
	snapshot := sched.Snapshot(seat)
	return &snapshot, nil
}

// Snapshot 当前牌桌快照（按请求者视角隐藏他人手牌）
func (s *Service) Snapshot(ctx context.Context, userID uint, roomID string) (*RoomSnapshot, error) {
	sched, seat, err := s.seatOf(userID, roomID)
	if err != nil {
		return nil, err
	}
	snapshot := sched.Snapshot(seat)
	return &snapshot, nil
}

// LastResult 上一局结算结果
func (s *Service) LastResult(ctx context.Context, userID uint, roomID string) (*RoundResult, error) {
	sched, _, err := s.seatOf(userID, roomID)
	if err != nil {
		return nil, err
	}
	result := sched.LastResult()
	if result == nil {
		return nil, errors.New(errors.ErrIllegalAction, "当前还没有结算结果")
	}
	return result, nil
}

// LeaveRoom 退出并解散房间（对局中退出视为弃局）
func (s *Service) LeaveRoom(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.userRooms[userID]
	if !ok {
		return errors.New(errors.ErrRoomNotFound)
	}
	if sched, alive := s.rooms[roomID]; alive {
		sched.Abort()
		delete(s.rooms, roomID)
	}
	delete(s.userRooms, userID)

	s.logger.Info("退出房间",
		zap.String("room_id", roomID),
		zap.Uint("user_id", userID))
	return nil
}

// RoomCount 在开房间数
func (s *Service) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// seatOf 找到用户所在房间的调度器和座位号
func (s *Service) seatOf(userID uint, roomID string) (*TurnScheduler, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.rooms[roomID]
	if !ok {
		return nil, 0, errors.New(errors.ErrRoomNotFound)
	}
	if s.userRooms[userID] != roomID {
		return nil, 0, errors.New(errors.ErrRoomNotFound, "不在该房间中")
	}
	for seat, p := range sched.Room().Players {
		if p != nil && !p.IsAI && p.ID == userID {
			return sched, seat, nil
		}
	}
	return nil, 0, errors.New(errors.ErrRoomNotFound, "不在该房间中")
}
