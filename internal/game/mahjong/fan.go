package mahjong

import (
	"errors"
	"math"
)

var (
	ErrNotWinningHand = errors.New("不是胡牌牌型")
)

// MaxFan 番数封顶
const MaxFan = 64

// 番种数值（引擎常量，不做推导）
const (
	fanBase          = 1  // 底番
	fanConcealedHand = 1  // 门清
	fanSelfDraw      = 1  // 自摸
	fanAllTriplets   = 1  // 碰碰胡
	fanMixedOneSuit  = 2  // 混一色
	fanPureOneSuit   = 4  // 清一色
	fanAllHonors     = 32 // 字一色
	fanMixedTerminal = 8  // 混幺九
	fanPureTerminal  = 32 // 清幺九
	fanSmallDragons  = 16 // 小三元
	fanBigDragons    = 32 // 大三元
	fanSeatWind      = 1  // 门风刻
	fanRoundWind     = 1  // 圈风刻
	fanExposedGang   = 1  // 明杠（每个）
	fanConcealedGang = 2  // 暗杠（每个）
	fanGangDraw      = 1  // 杠上开花
	fanRobGang       = 1  // 抢杠胡
	fanLastTile      = 1  // 海底捞月
	fanStraight      = 2  // 清龙
	fanSevenPairs    = 3  // 七对
	fanLuxuryPairs   = 6  // 豪华七对
	fanOrphans       = 64 // 十三幺
)

// Context 影响算番的局面信息，每次结算时新建
type Context struct {
	Zimo       bool // 自摸
	SeatWind   int  // 门风座位(0-3，0=东)
	RoundWind  int  // 圈风(0-3)
	LastTile   bool // 海底牌
	GangDraw   bool // 杠后补牌胡
	RobbedGang bool // 抢杠胡
}

// FanCategory 被命中的番种
type FanCategory struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ScoreResult 算番结果
type ScoreResult struct {
	Categories []FanCategory `json:"categories"`
	TotalFan   int           `json:"total_fan"`
	Payout     int64         `json:"payout"`
}

// Score 对胡牌进行算番：固定顺序的独立谓词逐一判定后求和封顶
// concealed需已包含胡的那张牌
func Score(concealed []Tile, melds []Meld, ctx Context, baseStake int64) (*ScoreResult, error) {
	if !IsWinningHand(concealed, melds) {
		return nil, ErrNotWinningHand
	}
	counts, err := NewTileCounts(concealed)
	if err != nil {
		return nil, err
	}

	var cats []FanCategory
	add := func(name string, value int) {
		cats = append(cats, FanCategory{Name: name, Value: value})
	}
	add("底番", fanBase)

	// 整手型优先，命中后跳过普通牌型的谓词组，避免重复计番
	exclusive := false
	if len(melds) == 0 {
		if isThirteenOrphans(&counts) {
			add("十三幺", fanOrphans)
			exclusive = true
		} else if ok, lux := isSevenPairs(&counts); ok {
			if lux {
				add("豪华七对", fanLuxuryPairs)
			} else {
				add("七对", fanSevenPairs)
			}
			exclusive = true
		}
	}

	if !exclusive {
		combined := combinedCounts(&counts, melds)

		if isConcealedHand(melds) {
			add("门清", fanConcealedHand)
		}
		if isAllTriplets(counts, melds) {
			add("碰碰胡", fanAllTriplets)
		}

		// 花色系：字一色优先于清/混一色
		switch {
		case isAllHonors(combined):
			add("字一色", fanAllHonors)
		case isPureOneSuit(combined):
			add("清一色", fanPureOneSuit)
		case isMixedOneSuit(combined):
			add("混一色", fanMixedOneSuit)
		}

		// 幺九系：清幺九优先于混幺九
		switch {
		case isPureTerminals(combined):
			add("清幺九", fanPureTerminal)
		case isMixedTerminals(combined):
			add("混幺九", fanMixedTerminal)
		}

		// 三元系：大三元命中则不再测小三元
		if isBigThreeDragons(&counts, melds) {
			add("大三元", fanBigDragons)
		} else if isSmallThreeDragons(&counts, melds) {
			add("小三元", fanSmallDragons)
		}

		if hasTripletOf(&counts, melds, SeatWindTile(ctx.SeatWind)) {
			add("门风刻", fanSeatWind)
		}
		if hasTripletOf(&counts, melds, SeatWindTile(ctx.RoundWind)) {
			add("圈风刻", fanRoundWind)
		}

		if isStraight(counts, melds) {
			add("清龙", fanStraight)
		}

		for _, m := range melds {
			if m.Type != MeldGang {
				continue
			}
			if m.Concealed {
				add("暗杠", fanConcealedGang)
			} else {
				add("明杠", fanExposedGang)
			}
		}
	}

	// 局面番：与牌型无关，整手型同样适用
	if ctx.Zimo {
		add("自摸", fanSelfDraw)
	}
	if ctx.GangDraw {
		add("杠上开花", fanGangDraw)
	}
	if ctx.RobbedGang {
		add("抢杠胡", fanRobGang)
	}
	if ctx.LastTile {
		add("海底捞月", fanLastTile)
	}

	total := 0
	for _, c := range cats {
		total += c.Value
	}
	if total > MaxFan {
		total = MaxFan
	}

	return &ScoreResult{
		Categories: cats,
		TotalFan:   total,
		Payout:     payout(baseStake, total),
	}, nil
}

// payout 底分×2^番，上溢时饱和
func payout(base int64, fan int) int64 {
	if base <= 0 {
		return 0
	}
	for i := 0; i < fan; i++ {
		if base > math.MaxInt64/2 {
			return math.MaxInt64
		}
		base *= 2
	}
	return base
}

// combinedCounts 门前+副露的合并多重集，杠按3张计保持14张结构
func combinedCounts(concealed *TileCounts, melds []Meld) TileCounts {
	combined := *concealed
	for _, m := range melds {
		n := len(m.Tiles)
		if m.Type == MeldGang {
			n = 3
		}
		for i := 0; i < n; i++ {
			combined[m.Tiles[i]]++
		}
	}
	return combined
}

// isConcealedHand 门清：除暗杠外无副露
func isConcealedHand(melds []Meld) bool {
	for _, m := range melds {
		if !(m.Type == MeldGang && m.Concealed) {
			return false
		}
	}
	return true
}

// isAllTriplets 碰碰胡：副露全为刻/杠，门前为将牌+若干暗刻
func isAllTriplets(concealed TileCounts, melds []Meld) bool {
	for _, m := range melds {
		if m.Type == MeldChi {
			return false
		}
	}
	for kind := 0; kind < TileKinds; kind++ {
		if concealed[kind] < 2 {
			continue
		}
		rest := concealed
		rest[kind] -= 2
		allKe := true
		for _, v := range rest {
			if v != 0 && v != 3 {
				allKe = false
				break
			}
		}
		if allKe {
			return true
		}
	}
	return false
}

func isAllHonors(c TileCounts) bool {
	for kind := 0; kind < 27; kind++ {
		if c[kind] > 0 {
			return false
		}
	}
	return true
}

func isPureOneSuit(c TileCounts) bool {
	suits := suitsPresent(c)
	return len(suits) == 1 && suits[0] != SuitHonor
}

func isMixedOneSuit(c TileCounts) bool {
	suits := suitsPresent(c)
	return len(suits) == 2 &&
		(suits[0] == SuitHonor || suits[1] == SuitHonor)
}

func isPureTerminals(c TileCounts) bool {
	for kind := 0; kind < TileKinds; kind++ {
		if c[kind] > 0 && !Tile(kind).IsTerminal() {
			return false
		}
	}
	return true
}

func isMixedTerminals(c TileCounts) bool {
	hasHonor := false
	for kind := 0; kind < TileKinds; kind++ {
		if c[kind] == 0 {
			continue
		}
		t := Tile(kind)
		if t.IsHonor() {
			hasHonor = true
			continue
		}
		if !t.IsTerminal() {
			return false
		}
	}
	return hasHonor
}

func suitsPresent(c TileCounts) []Suit {
	var suits []Suit
	seen := map[Suit]bool{}
	for kind := 0; kind < TileKinds; kind++ {
		if c[kind] == 0 {
			continue
		}
		s := Tile(kind).Suit()
		if !seen[s] {
			seen[s] = true
			suits = append(suits, s)
		}
	}
	return suits
}

// hasTripletOf 指定牌是否成刻（门前暗刻或副露刻/杠）
func hasTripletOf(concealed *TileCounts, melds []Meld, tile Tile) bool {
	if concealed[tile] >= 3 {
		return true
	}
	for _, m := range melds {
		if (m.Type == MeldPeng || m.Type == MeldGang) && m.Tiles[0] == tile {
			return true
		}
	}
	return false
}

func isBigThreeDragons(concealed *TileCounts, melds []Meld) bool {
	return hasTripletOf(concealed, melds, TileRed) &&
		hasTripletOf(concealed, melds, TileGreen) &&
		hasTripletOf(concealed, melds, TileWhite)
}

// isSmallThreeDragons 两组箭刻+第三种箭牌作将
func isSmallThreeDragons(concealed *TileCounts, melds []Meld) bool {
	triplets, pair := 0, 0
	for _, d := range []Tile{TileRed, TileGreen, TileWhite} {
		if hasTripletOf(concealed, melds, d) {
			triplets++
		} else if concealed[d] == 2 {
			pair++
		}
	}
	return triplets == 2 && pair == 1
}

// isStraight 清龙：同花色1-9三组顺子，可由副露的吃补足
func isStraight(concealed TileCounts, melds []Meld) bool {
	for suit := 0; suit < 3; suit++ {
		base := suit * 9
		rest := concealed
		ok := true
		for _, lowRank := range []int{0, 3, 6} {
			low := base + lowRank
			if hasChiMeld(melds, Tile(low)) {
				continue
			}
			if rest[low] > 0 && rest[low+1] > 0 && rest[low+2] > 0 {
				rest[low]--
				rest[low+1]--
				rest[low+2]--
				continue
			}
			ok = false
			break
		}
		// 剩余门前牌仍需自洽（将牌+面子）
		if ok && decomposeStandard(rest) {
			return true
		}
	}
	return false
}

// hasChiMeld 是否有以low为最小张的吃副露
func hasChiMeld(melds []Meld, low Tile) bool {
	for _, m := range melds {
		if m.Type != MeldChi || len(m.Tiles) != 3 {
			continue
		}
		tiles := []Tile{m.Tiles[0], m.Tiles[1], m.Tiles[2]}
		SortTiles(tiles)
		if tiles[0] == low && tiles[1] == low+1 && tiles[2] == low+2 {
			return true
		}
	}
	return false
}
