package mahjong

// MeldType 副露类型
type MeldType string

const (
	MeldChi  MeldType = "chi"  // 吃：顺子
	MeldPeng MeldType = "peng" // 碰：刻子
	MeldGang MeldType = "gang" // 杠：四张
)

// Meld 已亮出的面子，亮出后在本局内不可变
type Meld struct {
	Type      MeldType `json:"type"`
	Tiles     []Tile   `json:"tiles"`
	Concealed bool     `json:"concealed"` // 暗杠
	From      int      `json:"from"`      // 来源座位，暗杠为自身
}

// IsWinningHand 判断门前牌+副露是否构成胡牌型
// concealed需已包含胡的那张牌；牌数需满足 门前+3×副露 = 14
func IsWinningHand(concealed []Tile, melds []Meld) bool {
	counts, err := NewTileCounts(concealed)
	if err != nil {
		return false
	}
	if len(concealed)+3*len(melds) != 14 {
		return false
	}

	// 特殊牌型仅对门清14张生效
	if len(melds) == 0 {
		if ok, _ := isSevenPairs(&counts); ok {
			return true
		}
		if isThirteenOrphans(&counts) {
			return true
		}
	}

	return decomposeStandard(counts)
}

// CanWinOn 判断门前牌补上tile后是否胡牌
func CanWinOn(concealed []Tile, melds []Meld, tile Tile) bool {
	if !tile.Valid() {
		return false
	}
	full := make([]Tile, 0, len(concealed)+1)
	full = append(full, concealed...)
	full = append(full, tile)
	return IsWinningHand(full, melds)
}

// WaitingTiles 听牌检测：逐一试插34种牌
func WaitingTiles(concealed []Tile, melds []Meld) []Tile {
	if len(concealed)+3*len(melds) != 13 {
		return nil
	}
	counts, err := NewTileCounts(concealed)
	if err != nil {
		return nil
	}
	var waits []Tile
	for kind := 0; kind < TileKinds; kind++ {
		if counts[kind] >= CopiesPerKind {
			continue
		}
		if CanWinOn(concealed, melds, Tile(kind)) {
			waits = append(waits, Tile(kind))
		}
	}
	return waits
}

// decomposeStandard 标准型分解：枚举将牌后递归剥离面子
// 必须穷举所有将牌选择，贪心单选会漏解
func decomposeStandard(counts TileCounts) bool {
	for kind := 0; kind < TileKinds; kind++ {
		if counts[kind] < 2 {
			continue
		}
		counts[kind] -= 2
		if peelMelds(&counts, 0) {
			return true
		}
		counts[kind] += 2
	}
	return false
}

// peelMelds 从最低未消耗的牌种起剥离刻子或顺子
func peelMelds(c *TileCounts, from int) bool {
	kind := from
	for kind < TileKinds && c[kind] == 0 {
		kind++
	}
	if kind == TileKinds {
		return true
	}

	// 刻子
	if c[kind] >= 3 {
		c[kind] -= 3
		if peelMelds(c, kind) {
			c[kind] += 3
			return true
		}
		c[kind] += 3
	}

	// 顺子：仅数牌且不跨花色
	t := Tile(kind)
	if !t.IsHonor() && t.Rank() <= 7 && c[kind+1] > 0 && c[kind+2] > 0 {
		c[kind], c[kind+1], c[kind+2] = c[kind]-1, c[kind+1]-1, c[kind+2]-1
		if peelMelds(c, kind) {
			c[kind], c[kind+1], c[kind+2] = c[kind]+1, c[kind+1]+1, c[kind+2]+1
			return true
		}
		c[kind], c[kind+1], c[kind+2] = c[kind]+1, c[kind+1]+1, c[kind+2]+1
	}

	return false
}

// isSevenPairs 七对：恰好7种各2张；豪华七对允许4张算两对
func isSevenPairs(c *TileCounts) (ok bool, luxurious bool) {
	if c.Total() != 14 {
		return false, false
	}
	pairs := 0
	for _, v := range c {
		switch v {
		case 0:
		case 2:
			pairs++
		case 4:
			pairs += 2
			luxurious = true
		default:
			return false, false
		}
	}
	return pairs == 7, luxurious
}

// isThirteenOrphans 十三幺：13种幺九牌各至少1张，其一成对
func isThirteenOrphans(c *TileCounts) bool {
	if c.Total() != 14 {
		return false
	}
	hasPair := false
	for _, kind := range orphanKinds {
		switch c[kind] {
		case 1:
		case 2:
			if hasPair {
				return false
			}
			hasPair = true
		default:
			return false
		}
	}
	return hasPair
}
