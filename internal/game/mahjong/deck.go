package mahjong

import (
	"errors"
	"math/rand"
)

var (
	ErrWallExhausted = errors.New("牌墙已摸完")
)

const (
	handSize  = 13 // 起手牌数
	seatCount = 4  // 座位数
)

// Wall 牌墙：136张洗好的牌，从尾部摸牌
type Wall struct {
	tiles []Tile
}

// NewWall 构建并洗牌；rng由外部注入以保证可复现
func NewWall(rng *rand.Rand) *Wall {
	tiles := make([]Tile, 0, WallSize)
	for kind := 0; kind < TileKinds; kind++ {
		for i := 0; i < CopiesPerKind; i++ {
			tiles = append(tiles, Tile(kind))
		}
	}
	// Fisher-Yates洗牌
	for i := len(tiles) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		tiles[i], tiles[j] = tiles[j], tiles[i]
	}
	return &Wall{tiles: tiles}
}

// Remaining 剩余张数
func (w *Wall) Remaining() int {
	return len(w.tiles)
}

// Draw 摸一张牌
func (w *Wall) Draw() (Tile, error) {
	if len(w.tiles) == 0 {
		return 0, ErrWallExhausted
	}
	t := w.tiles[len(w.tiles)-1]
	w.tiles = w.tiles[:len(w.tiles)-1]
	return t, nil
}

// Deal 发牌：每家13张，庄家多摸一张作为起手打牌
func (w *Wall) Deal(dealer int) ([seatCount][]Tile, error) {
	var hands [seatCount][]Tile
	if w.Remaining() < handSize*seatCount+1 {
		return hands, ErrWallExhausted
	}
	for seat := 0; seat < seatCount; seat++ {
		hand := make([]Tile, 0, handSize+1)
		for i := 0; i < handSize; i++ {
			t, err := w.Draw()
			if err != nil {
				return hands, err
			}
			hand = append(hand, t)
		}
		SortTiles(hand)
		hands[seat] = hand
	}
	extra, err := w.Draw()
	if err != nil {
		return hands, err
	}
	hands[dealer%seatCount] = append(hands[dealer%seatCount], extra)
	SortTiles(hands[dealer%seatCount])
	return hands, nil
}
