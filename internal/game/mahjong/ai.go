package mahjong

import (
	"math/rand"
)

// 反应接受概率（保留原始数值）
const (
	acceptGangProb     = 0.8 // 未听牌时杠
	acceptGangTingProb = 0.2 // 已听牌时杠（可能破听，谨慎）
	acceptPengProb     = 0.9 // 碰不成听时
	acceptChiProb      = 0.7 // 吃不成听时
	acceptZimoProb     = 0.8 // 摸到胡牌时自摸
)

// 出牌综合评分权重
// 注意：三项信号的优化方向并不完全一致——价值高、有用度高的牌
// 本应保留，但公式按加权和取最小值丢弃，混合后仍可能被选中打出。
// 这是既有行为的一部分，刻意保留等待牌局设计层面的决定，勿顺手"修正"。
const (
	weightDanger     = 0.3
	weightValue      = 0.4
	weightUsefulness = 0.3
)

// AI 麻将AI决策器；全部随机性来自注入的rng以保证可复现
type AI struct {
	rng *rand.Rand
}

// NewAI 创建AI决策器
func NewAI(rng *rand.Rand) *AI {
	return &AI{rng: rng}
}

// ChooseDiscard 决定打出哪张牌
// hand为摸牌后的手牌（3n+2张）；pool为全场弃牌；tableExposed为全场副露的牌
func (ai *AI) ChooseDiscard(hand []Tile, melds []Meld, pool []Tile, tableExposed []Tile) Tile {
	// 已到听：打出保持听牌的牌，多个候选时保留听牌面最大的
	if tile, ok := ai.keepTingDiscard(hand, melds); ok {
		return tile
	}

	poolCounts, _ := NewTileCounts(pool)
	handCounts, _ := NewTileCounts(hand)
	exposedCounts, _ := NewTileCounts(tableExposed)

	best := hand[0]
	bestScore := 0.0
	for i, tile := range hand {
		score := weightDanger*ai.danger(tile, &poolCounts) +
			weightValue*ai.value(tile, &handCounts) +
			weightUsefulness*ai.usefulness(tile, &handCounts, &poolCounts, &exposedCounts)
		if i == 0 || score < bestScore {
			best, bestScore = tile, score
		}
	}
	return best
}

// keepTingDiscard 寻找打出后仍听牌的牌，优先保留最大的听牌面
func (ai *AI) keepTingDiscard(hand []Tile, melds []Meld) (Tile, bool) {
	bestWaits := 0
	var best Tile
	tried := map[Tile]bool{}
	for i, tile := range hand {
		if tried[tile] {
			continue
		}
		tried[tile] = true
		rest := make([]Tile, 0, len(hand)-1)
		rest = append(rest, hand[:i]...)
		rest = append(rest, hand[i+1:]...)
		if waits := WaitingTiles(rest, melds); len(waits) > bestWaits {
			bestWaits = len(waits)
			best = tile
		}
	}
	return best, bestWaits > 0
}

// danger 危险度：弃牌池中出现越多越安全，字牌/幺九偏安全，中张(4-6)偏危险
func (ai *AI) danger(tile Tile, pool *TileCounts) float64 {
	d := 10 - pool[tile]*2
	if tile.IsHonor() {
		d -= 2
	} else {
		r := tile.Rank()
		if r == 1 || r == 9 {
			d--
		}
		if r >= 4 && r <= 6 {
			d += 2
		}
	}
	if d < 0 {
		d = 0
	}
	return float64(d)
}

// value 价值：成对+5，±2以内每种相邻牌+3
func (ai *AI) value(tile Tile, hand *TileCounts) float64 {
	v := 0
	if hand[tile] >= 2 {
		v += 5
	}
	if !tile.IsHonor() {
		v += 3 * ai.neighborKinds(tile, hand)
	}
	return float64(v)
}

// usefulness 有用度：未现世的同种牌每张+2，手内±2相邻每种+2
func (ai *AI) usefulness(tile Tile, hand, pool, exposed *TileCounts) float64 {
	unseen := CopiesPerKind - hand[tile] - pool[tile] - exposed[tile]
	if unseen < 0 {
		unseen = 0
	}
	u := unseen * 2
	if !tile.IsHonor() {
		u += 2 * ai.neighborKinds(tile, hand)
	}
	return float64(u)
}

// neighborKinds 手内±2点数以内存在的相邻牌种数
func (ai *AI) neighborKinds(tile Tile, hand *TileCounts) int {
	rank := tile.Rank()
	n := 0
	for _, off := range []int{-2, -1, 1, 2} {
		r := rank + off
		if r < 1 || r > 9 {
			continue
		}
		if hand[int(tile)+off] > 0 {
			n++
		}
	}
	return n
}

// ChooseReaction 对一张打出的牌在若干合法反应中做选择
// 优先级严格 hu > gang > peng > chi > pass，非胡档位带概率闸门
func (ai *AI) ChooseReaction(hand []Tile, melds []Meld, tile Tile, acts Actions) (ActionType, *ChiCombo) {
	if acts.CanHu {
		return ActionHu, nil
	}

	ting := len(WaitingTiles(hand, melds)) > 0

	// 已听牌：吃碰一律放弃，杠可能破听只小概率接受
	if ting {
		if acts.CanGang && ai.rng.Float64() < acceptGangTingProb {
			return ActionGang, nil
		}
		return ActionPass, nil
	}

	if acts.CanGang {
		if ai.rng.Float64() < acceptGangProb {
			return ActionGang, nil
		}
		return ActionPass, nil
	}

	if acts.CanPeng {
		if ai.tingAfterPeng(hand, melds, tile) {
			return ActionPeng, nil
		}
		if ai.rng.Float64() < acceptPengProb {
			return ActionPeng, nil
		}
		return ActionPass, nil
	}

	if len(acts.ChiCombos) > 0 {
		for i := range acts.ChiCombos {
			if ai.tingAfterChi(hand, melds, tile, acts.ChiCombos[i]) {
				return ActionChi, &acts.ChiCombos[i]
			}
		}
		if ai.rng.Float64() < acceptChiProb {
			return ActionChi, &acts.ChiCombos[0]
		}
		return ActionPass, nil
	}

	return ActionPass, nil
}

// ShouldDeclareZimo 摸到胡牌时是否立即自摸
func (ai *AI) ShouldDeclareZimo() bool {
	return ai.rng.Float64() < acceptZimoProb
}

// tingAfterPeng 碰后是否存在一张打牌使手牌进入听牌
func (ai *AI) tingAfterPeng(hand []Tile, melds []Meld, tile Tile) bool {
	rest := removeCopies(hand, tile, 2)
	if rest == nil {
		return false
	}
	newMelds := append(append([]Meld{}, melds...), Meld{Type: MeldPeng, Tiles: []Tile{tile, tile, tile}})
	return canReachTing(rest, newMelds)
}

// tingAfterChi 用指定搭子吃后是否能听牌
func (ai *AI) tingAfterChi(hand []Tile, melds []Meld, tile Tile, combo ChiCombo) bool {
	rest := removeCopies(hand, combo[0], 1)
	if rest == nil {
		return false
	}
	rest = removeCopies(rest, combo[1], 1)
	if rest == nil {
		return false
	}
	run := []Tile{combo[0], combo[1], tile}
	SortTiles(run)
	newMelds := append(append([]Meld{}, melds...), Meld{Type: MeldChi, Tiles: run})
	return canReachTing(rest, newMelds)
}

// canReachTing 打出任意一张后是否听牌
func canReachTing(hand []Tile, melds []Meld) bool {
	tried := map[Tile]bool{}
	for i, tile := range hand {
		if tried[tile] {
			continue
		}
		tried[tile] = true
		rest := make([]Tile, 0, len(hand)-1)
		rest = append(rest, hand[:i]...)
		rest = append(rest, hand[i+1:]...)
		if len(WaitingTiles(rest, melds)) > 0 {
			return true
		}
	}
	return false
}

// removeCopies 移除n张指定牌，不足时返回nil
func removeCopies(hand []Tile, tile Tile, n int) []Tile {
	out := make([]Tile, 0, len(hand))
	removed := 0
	for _, t := range hand {
		if t == tile && removed < n {
			removed++
			continue
		}
		out = append(out, t)
	}
	if removed < n {
		return nil
	}
	return out
}
