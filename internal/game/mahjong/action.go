package mahjong

// ActionType 对打出牌的反应类型
type ActionType string

const (
	ActionHu   ActionType = "hu"
	ActionGang ActionType = "gang"
	ActionPeng ActionType = "peng"
	ActionChi  ActionType = "chi"
	ActionPass ActionType = "pass"
)

// priority 反应优先级，数值大者先
var actionPriority = map[ActionType]int{
	ActionHu:   4,
	ActionGang: 3,
	ActionPeng: 2,
	ActionChi:  1,
	ActionPass: 0,
}

// Priority 反应优先级
func (a ActionType) Priority() int {
	return actionPriority[a]
}

// ChiCombo 吃牌所需的手内两张搭子
type ChiCombo [2]Tile

// Actions 某座位对一张打出牌的全部合法反应，纯查询不改状态
type Actions struct {
	CanHu     bool       `json:"can_hu"`
	CanGang   bool       `json:"can_gang"`
	CanPeng   bool       `json:"can_peng"`
	ChiCombos []ChiCombo `json:"chi_combos,omitempty"`
}

// Empty 是否没有任何可选反应
func (a Actions) Empty() bool {
	return !a.CanHu && !a.CanGang && !a.CanPeng && len(a.ChiCombos) == 0
}

// Highest 可选反应中的最高优先级动作
func (a Actions) Highest() ActionType {
	switch {
	case a.CanHu:
		return ActionHu
	case a.CanGang:
		return ActionGang
	case a.CanPeng:
		return ActionPeng
	case len(a.ChiCombos) > 0:
		return ActionChi
	}
	return ActionPass
}

// ResolveActions 判定observerSeat对discarderSeat打出tile的合法反应
func ResolveActions(hand []Tile, melds []Meld, tile Tile, discarderSeat, observerSeat int) Actions {
	var acts Actions
	if !tile.Valid() || discarderSeat == observerSeat {
		return acts
	}

	counts, err := NewTileCounts(hand)
	if err != nil {
		return acts
	}

	acts.CanHu = CanWinOn(hand, melds, tile)
	acts.CanGang = counts[tile] >= 3
	acts.CanPeng = counts[tile] >= 2

	// 只有下家能吃
	if observerSeat == (discarderSeat+1)%seatCount {
		acts.ChiCombos = chiCombos(&counts, tile)
	}
	return acts
}

// chiCombos 以tile为低/中/高张的三种顺子占位逐一检查
func chiCombos(counts *TileCounts, tile Tile) []ChiCombo {
	if tile.IsHonor() {
		return nil
	}
	var combos []ChiCombo
	rank := tile.Rank()

	// [tile-2, tile-1, tile]
	if rank >= 3 && counts[tile-2] > 0 && counts[tile-1] > 0 {
		combos = append(combos, ChiCombo{tile - 2, tile - 1})
	}
	// [tile-1, tile, tile+1]
	if rank >= 2 && rank <= 8 && counts[tile-1] > 0 && counts[tile+1] > 0 {
		combos = append(combos, ChiCombo{tile - 1, tile + 1})
	}
	// [tile, tile+1, tile+2]
	if rank <= 7 && counts[tile+1] > 0 && counts[tile+2] > 0 {
		combos = append(combos, ChiCombo{tile + 1, tile + 2})
	}
	return combos
}

// ConcealedGangTiles 手中满4张可暗杠的牌种
func ConcealedGangTiles(hand []Tile) []Tile {
	counts, err := NewTileCounts(hand)
	if err != nil {
		return nil
	}
	var out []Tile
	for kind := 0; kind < TileKinds; kind++ {
		if counts[kind] == CopiesPerKind {
			out = append(out, Tile(kind))
		}
	}
	return out
}
