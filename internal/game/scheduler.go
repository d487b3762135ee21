package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/mahjong-game/internal/errors"
	"github.com/wfunc/mahjong-game/internal/game/mahjong"
	"go.uber.org/zap"
)

// Phase 牌局流程状态机的状态
type Phase string

const (
	PhaseIdle               Phase = "idle"                // 未开局
	PhaseDealing            Phase = "dealing"             // 发牌中
	PhaseAwaitingDiscard    Phase = "awaiting_discard"    // 等待当前座位打牌
	PhaseResolvingReactions Phase = "resolving_reactions" // 等待对打出牌的反应
	PhaseRoundSettling      Phase = "round_settling"      // 一局结算
	PhaseMatchFinished      Phase = "match_finished"      // 整场结束（终态）
)

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	Logger         *zap.Logger
	Clock          Clock
	Notifier       Notifier
	Ledger         Ledger
	ScoreStore     ScoreStore
	RoundStore     RoundStore
	ThinkDelay     time.Duration // AI出牌思考延时
	ReactionWindow time.Duration // 反应窗口时长
}

// reactionWindow 一次打牌后的反应收集窗口
type reactionWindow struct {
	tile      mahjong.Tile
	discarder int
	claims    map[int]seatClaim // 已到达的反应
	awaiting  map[int]bool      // 还未表态的人类座位
	granted   map[int]mahjong.Actions
}

type seatClaim struct {
	action mahjong.ActionType
	combo  *mahjong.ChiCombo
}

// TurnScheduler 牌局流程状态机
// 所有状态变更都在同一把锁内串行执行；外部只通过方法推进
type TurnScheduler struct {
	mu     sync.Mutex
	room   *RoomState
	phase  Phase
	rng    *rand.Rand
	logger *zap.Logger
	clock  Clock

	notifier   Notifier
	ledger     Ledger
	scoreStore ScoreStore
	roundStore RoundStore

	thinkDelay     time.Duration
	reactionWindow time.Duration

	window     *reactionWindow
	gangDraw   [SeatCount]bool         // 刚杠过、下一张是补牌
	lastDraw   [SeatCount]mahjong.Tile // 各座位最近摸进/鸣进的牌
	lastResult *RoundResult
}

// NewTurnScheduler 创建调度器
func NewTurnScheduler(room *RoomState, rng *rand.Rand, cfg *SchedulerConfig) *TurnScheduler {
	s := &TurnScheduler{
		room:           room,
		phase:          PhaseIdle,
		rng:            rng,
		logger:         cfg.Logger,
		clock:          cfg.Clock,
		notifier:       cfg.Notifier,
		ledger:         cfg.Ledger,
		scoreStore:     cfg.ScoreStore,
		roundStore:     cfg.RoundStore,
		thinkDelay:     cfg.ThinkDelay,
		reactionWindow: cfg.ReactionWindow,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = NewRealClock()
	}
	return s
}

// Phase 当前状态
func (s *TurnScheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Room 牌局状态（仅供只读访问；修改必须经由调度器方法）
func (s *TurnScheduler) Room() *RoomState {
	return s.room
}

// LastResult 最近一局的结算结果
func (s *TurnScheduler) LastResult() *RoundResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// setPhase 状态迁移，统一记日志
func (s *TurnScheduler) setPhase(to Phase) {
	from := s.phase
	s.phase = to
	s.logger.Info("状态转换",
		zap.String("room_id", s.room.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int("round", s.room.CurrentRound))
}

// Start 开局：洗牌发牌，进入庄家打牌阶段
func (s *TurnScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseMatchFinished {
		return errors.New(errors.ErrMatchFinished)
	}
	if s.phase != PhaseIdle {
		return errors.New(errors.ErrIllegalAction)
	}
	s.room.Status = MatchPlaying
	s.dealRound()
	return nil
}

// dealRound 发一局牌
func (s *TurnScheduler) dealRound() {
	s.setPhase(PhaseDealing)
	s.room.resetForRound()
	s.room.wall = mahjong.NewWall(s.rng)

	hands, err := s.room.wall.Deal(s.room.Dealer)
	if err != nil {
		// 整副新墙发4×13+1张不可能失败，出现即为内部不变量被破坏
		s.logger.Panic("发牌失败", zap.Error(err), zap.String("room_id", s.room.ID))
	}
	for seat, hand := range hands {
		s.room.Players[seat].Hand = hand
	}
	s.lastDraw = [SeatCount]mahjong.Tile{}
	// 庄家起手14张没有独立的摸牌，以理牌后的末张代
	dealerHand := s.room.Players[s.room.Dealer].Hand
	s.lastDraw[s.room.Dealer] = dealerHand[len(dealerHand)-1]
	s.room.Turn = s.room.Dealer
	s.broadcast(Event{Type: EventDeal, RoomID: s.room.ID, Seat: s.room.Dealer, Round: s.room.CurrentRound})
	s.setPhase(PhaseAwaitingDiscard)

	// 庄家起手14张直接进入打牌；庄家若胡牌可天胡自摸
	s.maybeAutoPlay()
}

// Discard 当前座位打出一张牌
func (s *TurnScheduler) Discard(seat int, tile mahjong.Tile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseMatchFinished {
		return errors.New(errors.ErrMatchFinished)
	}
	if s.phase != PhaseAwaitingDiscard {
		return errors.New(errors.ErrIllegalAction)
	}
	if seat != s.room.Turn {
		return errors.New(errors.ErrOutOfTurn)
	}
	if !tile.Valid() {
		return errors.New(errors.ErrInvalidTile)
	}
	player := s.room.Players[seat]
	if !removeFromHand(player, tile, 1) {
		return errors.New(errors.ErrInvalidTile)
	}
	s.executeDiscard(seat, tile)
	return nil
}

// Zimo 当前座位宣告自摸
func (s *TurnScheduler) Zimo(seat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseMatchFinished {
		return errors.New(errors.ErrMatchFinished)
	}
	if s.phase != PhaseAwaitingDiscard || seat != s.room.Turn {
		return errors.New(errors.ErrOutOfTurn)
	}
	player := s.room.Players[seat]
	if !mahjong.IsWinningHand(player.Hand, player.Melds) {
		return errors.New(errors.ErrIllegalAction)
	}
	s.settleWin([]winClaim{{seat: seat, tile: s.lastDraw[seat]}}, true, -1)
	return nil
}

// ConcealedGang 当前座位暗杠手中四张
func (s *TurnScheduler) ConcealedGang(seat int, tile mahjong.Tile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseMatchFinished {
		return errors.New(errors.ErrMatchFinished)
	}
	if s.phase != PhaseAwaitingDiscard || seat != s.room.Turn {
		return errors.New(errors.ErrOutOfTurn)
	}
	player := s.room.Players[seat]
	found := false
	for _, t := range mahjong.ConcealedGangTiles(player.Hand) {
		if t == tile {
			found = true
			break
		}
	}
	if !found {
		return errors.New(errors.ErrIllegalAction)
	}
	removeFromHand(player, tile, 4)
	player.Melds = append(player.Melds, mahjong.Meld{
		Type:      mahjong.MeldGang,
		Tiles:     []mahjong.Tile{tile, tile, tile, tile},
		Concealed: true,
		From:      seat,
	})
	s.broadcast(Event{Type: EventGang, RoomID: s.room.ID, Seat: seat, Tile: &tile})
	s.drawReplacement(seat)
	return nil
}

// React 人类座位对反应窗口表态；action为pass表示放弃
func (s *TurnScheduler) React(seat int, action mahjong.ActionType, combo *mahjong.ChiCombo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseMatchFinished {
		return errors.New(errors.ErrMatchFinished)
	}
	if s.phase != PhaseResolvingReactions || s.window == nil {
		return errors.New(errors.ErrIllegalAction)
	}
	w := s.window
	if !w.awaiting[seat] {
		return errors.New(errors.ErrOutOfTurn)
	}

	granted := w.granted[seat]
	switch action {
	case mahjong.ActionPass:
	case mahjong.ActionHu:
		if !granted.CanHu {
			return errors.New(errors.ErrIllegalAction)
		}
	case mahjong.ActionGang:
		if !granted.CanGang {
			return errors.New(errors.ErrIllegalAction)
		}
	case mahjong.ActionPeng:
		if !granted.CanPeng {
			return errors.New(errors.ErrIllegalAction)
		}
	case mahjong.ActionChi:
		if len(granted.ChiCombos) == 0 {
			return errors.New(errors.ErrIllegalAction)
		}
		if combo == nil {
			combo = &granted.ChiCombos[0]
		} else {
			// 只接受窗口授予的搭子，杜绝伪造副露
			lo, hi := combo[0], combo[1]
			if hi < lo {
				lo, hi = hi, lo
			}
			matched := false
			for i := range granted.ChiCombos {
				if granted.ChiCombos[i][0] == lo && granted.ChiCombos[i][1] == hi {
					combo = &granted.ChiCombos[i]
					matched = true
					break
				}
			}
			if !matched {
				return errors.New(errors.ErrIllegalAction)
			}
		}
	default:
		return errors.New(errors.ErrIllegalAction)
	}

	delete(w.awaiting, seat)
	if action != mahjong.ActionPass {
		w.claims[seat] = seatClaim{action: action, combo: combo}
	}

	// 所有待表态的人类都已表态，或已出现不可能被压过的定论，提前关窗
	if len(w.awaiting) == 0 || s.windowDecided(w) {
		s.resolveClaims()
	}
	return nil
}

// windowDecided 已到达的最高优先级不可能再被未表态者超越
func (s *TurnScheduler) windowDecided(w *reactionWindow) bool {
	best := 0
	for _, c := range w.claims {
		if p := c.action.Priority(); p > best {
			best = p
		}
	}
	if best == 0 {
		return false
	}
	for seat := range w.awaiting {
		if w.granted[seat].Highest().Priority() >= best {
			return false
		}
	}
	return true
}

// Abort 中途废局：直接回到Idle，废弃未结算的一切，不产生任何支付
func (s *TurnScheduler) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = nil
	s.gangDraw = [SeatCount]bool{}
	s.lastDraw = [SeatCount]mahjong.Tile{}
	s.room.Status = MatchWaiting
	s.setPhase(PhaseIdle)
}

// NextRound 从结算进入下一局或终局
func (s *TurnScheduler) NextRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRoundSettling {
		return errors.New(errors.ErrIllegalAction)
	}
	s.room.CurrentRound++
	if s.room.CurrentRound > s.room.TotalRounds {
		s.room.Status = MatchFinished
		s.setPhase(PhaseMatchFinished)
		s.broadcast(Event{Type: EventMatchEnd, RoomID: s.room.ID, Round: s.room.CurrentRound - 1})
		return nil
	}
	s.room.Status = MatchPlaying
	s.dealRound()
	return nil
}

// executeDiscard 打牌入池并打开反应窗口
func (s *TurnScheduler) executeDiscard(seat int, tile mahjong.Tile) {
	player := s.room.Players[seat]
	player.Discards = append(player.Discards, tile)
	s.room.Pool = append(s.room.Pool, tile)
	s.gangDraw[seat] = false
	s.broadcast(Event{Type: EventDiscard, RoomID: s.room.ID, Seat: seat, Tile: &tile})

	s.openReactionWindow(seat, tile)
}

// openReactionWindow 向其余三家征询反应
// AI立即决策；有合法反应的人类保持窗口开放等待表态
func (s *TurnScheduler) openReactionWindow(discarder int, tile mahjong.Tile) {
	w := &reactionWindow{
		tile:      tile,
		discarder: discarder,
		claims:    make(map[int]seatClaim),
		awaiting:  make(map[int]bool),
		granted:   make(map[int]mahjong.Actions),
	}

	for i := 1; i < SeatCount; i++ {
		seat := (discarder + i) % SeatCount
		p := s.room.Players[seat]
		acts := mahjong.ResolveActions(p.Hand, p.Melds, tile, discarder, seat)
		if acts.Empty() {
			continue
		}
		w.granted[seat] = acts
		if p.IsAI {
			s.clock.Sleep(s.reactionWindow)
			action, combo := p.ai.ChooseReaction(p.Hand, p.Melds, tile, acts)
			if action != mahjong.ActionPass {
				w.claims[seat] = seatClaim{action: action, combo: combo}
			}
		} else {
			w.awaiting[seat] = true
		}
	}

	s.window = w
	if len(w.awaiting) > 0 && !s.windowDecided(w) {
		s.setPhase(PhaseResolvingReactions)
		return
	}
	s.resolveClaims()
}

// resolveClaims 按优先级裁决反应：胡 > 杠 > 碰 > 吃；
// 同级取离打牌者顺时针最近的座位；多家同时胡全部成立
func (s *TurnScheduler) resolveClaims() {
	w := s.window
	s.window = nil

	// 多家胡：全部按各自的手牌与局面独立算番
	var winners []winClaim
	for i := 1; i < SeatCount; i++ {
		seat := (w.discarder + i) % SeatCount
		if c, ok := w.claims[seat]; ok && c.action == mahjong.ActionHu {
			winners = append(winners, winClaim{seat: seat, tile: w.tile})
		}
	}
	if len(winners) > 0 {
		// 胡的牌从池中移出，归入胡牌者手
		s.room.Pool = s.room.Pool[:len(s.room.Pool)-1]
		s.settleWin(winners, false, w.discarder)
		return
	}

	bestSeat, bestPriority := -1, 0
	for i := 1; i < SeatCount; i++ {
		seat := (w.discarder + i) % SeatCount
		c, ok := w.claims[seat]
		if !ok {
			continue
		}
		if p := c.action.Priority(); p > bestPriority {
			bestSeat, bestPriority = seat, p
		}
	}

	if bestSeat < 0 {
		s.advanceTurn()
		return
	}

	claim := w.claims[bestSeat]
	switch claim.action {
	case mahjong.ActionGang:
		s.executeExposedGang(bestSeat, w.tile, w.discarder)
	case mahjong.ActionPeng:
		s.executePeng(bestSeat, w.tile, w.discarder)
	case mahjong.ActionChi:
		s.executeChi(bestSeat, w.tile, w.discarder, claim.combo)
	}
}

// executeExposedGang 明杠：手中三张+打出的一张
func (s *TurnScheduler) executeExposedGang(seat int, tile mahjong.Tile, from int) {
	p := s.room.Players[seat]
	if !removeFromHand(p, tile, 3) {
		// 反应窗口授予过杠权，手内必有三张
		s.logger.Panic("明杠牌不足三张", zap.String("room_id", s.room.ID), zap.Int("seat", seat))
	}
	s.room.Pool = s.room.Pool[:len(s.room.Pool)-1]
	p.Melds = append(p.Melds, mahjong.Meld{
		Type:  mahjong.MeldGang,
		Tiles: []mahjong.Tile{tile, tile, tile, tile},
		From:  from,
	})
	s.broadcast(Event{Type: EventGang, RoomID: s.room.ID, Seat: seat, Tile: &tile})
	s.room.Turn = seat
	s.drawReplacement(seat)
}

// executePeng 碰：手中两张+打出的一张
func (s *TurnScheduler) executePeng(seat int, tile mahjong.Tile, from int) {
	p := s.room.Players[seat]
	if !removeFromHand(p, tile, 2) {
		s.logger.Panic("碰牌不足两张", zap.String("room_id", s.room.ID), zap.Int("seat", seat))
	}
	s.room.Pool = s.room.Pool[:len(s.room.Pool)-1]
	s.lastDraw[seat] = tile
	p.Melds = append(p.Melds, mahjong.Meld{
		Type:  mahjong.MeldPeng,
		Tiles: []mahjong.Tile{tile, tile, tile},
		From:  from,
	})
	s.broadcast(Event{Type: EventPeng, RoomID: s.room.ID, Seat: seat, Tile: &tile})
	s.room.Turn = seat
	s.setPhase(PhaseAwaitingDiscard)
	s.maybeAutoPlay()
}

// executeChi 吃：手内搭子+打出的一张组成顺子
func (s *TurnScheduler) executeChi(seat int, tile mahjong.Tile, from int, combo *mahjong.ChiCombo) {
	p := s.room.Players[seat]
	if !removeFromHand(p, combo[0], 1) || !removeFromHand(p, combo[1], 1) {
		s.logger.Panic("吃牌搭子不在手内", zap.String("room_id", s.room.ID), zap.Int("seat", seat))
	}
	s.room.Pool = s.room.Pool[:len(s.room.Pool)-1]
	s.lastDraw[seat] = tile
	run := []mahjong.Tile{combo[0], combo[1], tile}
	mahjong.SortTiles(run)
	p.Melds = append(p.Melds, mahjong.Meld{
		Type:  mahjong.MeldChi,
		Tiles: run,
		From:  from,
	})
	s.broadcast(Event{Type: EventChi, RoomID: s.room.ID, Seat: seat, Tile: &tile})
	s.room.Turn = seat
	s.setPhase(PhaseAwaitingDiscard)
	s.maybeAutoPlay()
}

// drawReplacement 杠后补牌；墙空则直接进入打牌（随后流局）
func (s *TurnScheduler) drawReplacement(seat int) {
	p := s.room.Players[seat]
	if tile, err := s.room.wall.Draw(); err == nil {
		p.Hand = append(p.Hand, tile)
		mahjong.SortTiles(p.Hand)
		s.gangDraw[seat] = true
		s.lastDraw[seat] = tile
		s.broadcast(Event{Type: EventDraw, RoomID: s.room.ID, Seat: seat})
	}
	s.room.Turn = seat
	s.setPhase(PhaseAwaitingDiscard)
	s.maybeAutoPlay()
}

// advanceTurn 轮到下一家摸牌；墙空流局
func (s *TurnScheduler) advanceTurn() {
	s.room.Turn = (s.room.Turn + 1) % SeatCount
	seat := s.room.Turn
	p := s.room.Players[seat]

	tile, err := s.room.wall.Draw()
	if err != nil {
		s.settleDrawn()
		return
	}
	p.Hand = append(p.Hand, tile)
	mahjong.SortTiles(p.Hand)
	s.lastDraw[seat] = tile
	s.broadcast(Event{Type: EventDraw, RoomID: s.room.ID, Seat: seat})

	s.setPhase(PhaseAwaitingDiscard)

	// 自摸检查；AI只掷一次骰，弃胡后直接打牌
	if p.IsAI {
		if mahjong.IsWinningHand(p.Hand, p.Melds) && p.ai.ShouldDeclareZimo() {
			s.settleWin([]winClaim{{seat: seat, tile: tile}}, true, -1)
			return
		}
		s.autoDiscard(p)
	}
	// 人类自行决定是否Zimo
}

// maybeAutoPlay 当前座位是AI时自动打牌，串起整个AI回合链
func (s *TurnScheduler) maybeAutoPlay() {
	if s.phase != PhaseAwaitingDiscard {
		return
	}
	p := s.room.Players[s.room.Turn]
	if !p.IsAI {
		return
	}
	// 起手/鸣牌后也可能直接成和
	if mahjong.IsWinningHand(p.Hand, p.Melds) && p.ai.ShouldDeclareZimo() {
		s.settleWin([]winClaim{{seat: p.Seat, tile: s.lastDraw[p.Seat]}}, true, -1)
		return
	}
	s.autoDiscard(p)
}

// autoDiscard AI打出一张牌
func (s *TurnScheduler) autoDiscard(p *Player) {
	s.clock.Sleep(s.thinkDelay)
	tile := p.ai.ChooseDiscard(p.Hand, p.Melds, s.room.Pool, s.room.exposedTiles())
	removeFromHand(p, tile, 1)
	s.executeDiscard(p.Seat, tile)
}

// broadcast 向全桌下发事件，发后不理
func (s *TurnScheduler) broadcast(event Event) {
	if s.notifier == nil {
		return
	}
	for _, p := range s.room.Players {
		if p != nil && !p.IsAI {
			s.notifier.Notify(p.ID, event)
		}
	}
}

// removeFromHand 从手牌移除n张指定牌
func removeFromHand(p *Player, tile mahjong.Tile, n int) bool {
	removed := 0
	out := p.Hand[:0]
	for _, t := range p.Hand {
		if t == tile && removed < n {
			removed++
			continue
		}
		out = append(out, t)
	}
	if removed < n {
		p.Hand = append(out, repeatTile(tile, removed)...)
		mahjong.SortTiles(p.Hand)
		return false
	}
	p.Hand = out
	return true
}

func repeatTile(tile mahjong.Tile, n int) []mahjong.Tile {
	out := make([]mahjong.Tile, n)
	for i := range out {
		out[i] = tile
	}
	return out
}

// Snapshot 生成座位视角的只读快照
func (s *TurnScheduler) Snapshot(viewerSeat int) RoomSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := RoomSnapshot{
		RoomID:        s.room.ID,
		Status:        s.room.Status,
		Phase:         s.phase,
		CurrentRound:  s.room.CurrentRound,
		TotalRounds:   s.room.TotalRounds,
		Dealer:        s.room.Dealer,
		Turn:          s.room.Turn,
		WallRemaining: s.room.WallRemaining(),
		Pool:          mahjong.TileSymbols(s.room.Pool),
		LastResult:    s.lastResult,
	}
	for _, p := range s.room.Players {
		view := SeatView{
			Seat:      p.Seat,
			Name:      p.Name,
			IsAI:      p.IsAI,
			Beans:     p.Beans,
			Score:     p.Score,
			HandCount: len(p.Hand),
			Melds:     p.Melds,
			Discards:  mahjong.TileSymbols(p.Discards),
		}
		if p.Seat == viewerSeat {
			view.Hand = mahjong.TileSymbols(p.Hand)
		}
		snap.Players = append(snap.Players, view)
	}
	return snap
}
