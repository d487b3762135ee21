package mahjong

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidTile = errors.New("无效的牌")
)

// Tile 牌的规范表示：[0,34)的整数索引
// 0-8 万子(w1-w9) 9-17 条子(t1-t9) 18-26 筒子(b1-b9) 27-33 字牌
type Tile int

// Suit 花色
type Suit int

const (
	SuitWan   Suit = iota // 万子
	SuitTiao              // 条子
	SuitTong              // 筒子
	SuitHonor             // 字牌
)

// 牌种类常量
const (
	TileKinds     = 34  // 牌的种类数
	CopiesPerKind = 4   // 每种牌的张数
	WallSize      = 136 // 整副牌的张数
)

// 字牌索引（东南西北中发白）
const (
	TileEast Tile = 27 + iota
	TileSouth
	TileWest
	TileNorth
	TileRed
	TileGreen
	TileWhite
)

// 字牌符号表（顺序与索引对应）
var honorSymbols = [7]string{"east", "south", "west", "north", "red", "green", "white"}

var honorIndex = map[string]Tile{
	"east": TileEast, "south": TileSouth, "west": TileWest, "north": TileNorth,
	"red": TileRed, "green": TileGreen, "white": TileWhite,
}

var suitPrefix = [3]byte{'w', 't', 'b'}

// ParseTile 解析牌的符号表示（w1-w9/t1-t9/b1-b9/east...white）
func ParseTile(symbol string) (Tile, error) {
	if t, ok := honorIndex[symbol]; ok {
		return t, nil
	}
	if len(symbol) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTile, symbol)
	}
	rank := int(symbol[1] - '0')
	if rank < 1 || rank > 9 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTile, symbol)
	}
	switch symbol[0] {
	case 'w':
		return Tile(rank - 1), nil
	case 't':
		return Tile(9 + rank - 1), nil
	case 'b':
		return Tile(18 + rank - 1), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTile, symbol)
}

// MustParseTile 解析符号，非法时panic（仅用于常量牌面）
func MustParseTile(symbol string) Tile {
	t, err := ParseTile(symbol)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid 判断索引是否在合法域内
func (t Tile) Valid() bool {
	return t >= 0 && t < TileKinds
}

// String 牌的符号表示，与ParseTile互逆
func (t Tile) String() string {
	if !t.Valid() {
		return fmt.Sprintf("invalid(%d)", int(t))
	}
	if t >= 27 {
		return honorSymbols[t-27]
	}
	return fmt.Sprintf("%c%d", suitPrefix[t/9], t%9+1)
}

// Suit 牌的花色
func (t Tile) Suit() Suit {
	if t >= 27 {
		return SuitHonor
	}
	return Suit(t / 9)
}

// Rank 数牌点数1-9，字牌返回0
func (t Tile) Rank() int {
	if t.IsHonor() {
		return 0
	}
	return int(t)%9 + 1
}

// IsHonor 是否字牌
func (t Tile) IsHonor() bool {
	return t >= 27 && t < TileKinds
}

// IsTerminal 是否幺九数牌（1或9）
func (t Tile) IsTerminal() bool {
	if t.IsHonor() {
		return false
	}
	r := t.Rank()
	return r == 1 || r == 9
}

// IsDragon 是否箭牌（中发白）
func (t Tile) IsDragon() bool {
	return t >= TileRed && t <= TileWhite
}

// IsWind 是否风牌（东南西北）
func (t Tile) IsWind() bool {
	return t >= TileEast && t <= TileNorth
}

// SeatWindTile 座位(0-3)对应的风牌：东=0起顺时针
func SeatWindTile(seat int) Tile {
	return TileEast + Tile(seat%4)
}

// AllTiles 按索引序返回全部34种牌
func AllTiles() []Tile {
	tiles := make([]Tile, TileKinds)
	for i := range tiles {
		tiles[i] = Tile(i)
	}
	return tiles
}

// orphanKinds 十三幺的13种幺九牌
var orphanKinds = []Tile{
	MustParseTile("w1"), MustParseTile("w9"),
	MustParseTile("t1"), MustParseTile("t9"),
	MustParseTile("b1"), MustParseTile("b9"),
	TileEast, TileSouth, TileWest, TileNorth, TileRed, TileGreen, TileWhite,
}

// TileCounts 34桶计数数组，手牌多重集的算法表示
type TileCounts [TileKinds]int

// NewTileCounts 从牌列表构建计数
func NewTileCounts(tiles []Tile) (TileCounts, error) {
	var c TileCounts
	for _, t := range tiles {
		if !t.Valid() {
			return c, fmt.Errorf("%w: 索引%d", ErrInvalidTile, int(t))
		}
		c[t]++
	}
	return c, nil
}

// Total 总张数
func (c *TileCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// SortTiles 按索引序排序（万条筒字）
func SortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool { return tiles[i] < tiles[j] })
}

// ParseTiles 批量解析符号，任一非法即报错
func ParseTiles(symbols []string) ([]Tile, error) {
	tiles := make([]Tile, 0, len(symbols))
	for _, s := range symbols {
		t, err := ParseTile(s)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// TileSymbols 批量转符号
func TileSymbols(tiles []Tile) []string {
	out := make([]string, len(tiles))
	for i, t := range tiles {
		out[i] = t.String()
	}
	return out
}
