package mahjong

import (
	"testing"
)

func mustTiles(t *testing.T, symbols ...string) []Tile {
	t.Helper()
	tiles, err := ParseTiles(symbols)
	if err != nil {
		t.Fatalf("ParseTiles error: %v", err)
	}
	return tiles
}

func TestIsWinningHand(t *testing.T) {
	tests := []struct {
		name      string
		concealed []string
		melds     []Meld
		want      bool
	}{
		{
			name: "标准型_三刻两顺一将",
			concealed: []string{
				"w1", "w1", "w1", "w2", "w3", "w4",
				"t5", "t5", "t5", "b7", "b8", "b9",
				"east", "east",
			},
			want: true,
		},
		{
			name: "七对",
			concealed: []string{
				"w1", "w1", "w3", "w3", "t5", "t5", "t7", "t7",
				"b2", "b2", "b9", "b9", "east", "east",
			},
			want: true,
		},
		{
			name: "豪华七对_四张算两对",
			concealed: []string{
				"w1", "w1", "w1", "w1", "w3", "w3", "t5", "t5",
				"t7", "t7", "b2", "b2", "east", "east",
			},
			want: true,
		},
		{
			name: "十三幺",
			concealed: []string{
				"w1", "w9", "t1", "t9", "b1", "b9",
				"east", "south", "west", "north", "red", "green", "white",
				"w1",
			},
			want: true,
		},
		{
			name: "带副露的标准型",
			concealed: []string{
				"b2", "b3", "b4", "b6", "b6", "w9", "w9", "w9",
			},
			melds: []Meld{
				{Type: MeldPeng, Tiles: mustParseMeld("w5", "w5", "w5")},
				{Type: MeldChi, Tiles: mustParseMeld("t1", "t2", "t3")},
			},
			want: true,
		},
		{
			name: "杠按三张计保持牌数结构",
			concealed: []string{
				"b2", "b3", "b4", "b6", "b6", "w9", "w9", "w9",
			},
			melds: []Meld{
				{Type: MeldGang, Tiles: mustParseMeld("w5", "w5", "w5", "w5"), Concealed: true},
				{Type: MeldChi, Tiles: mustParseMeld("t1", "t2", "t3")},
			},
			want: true,
		},
		{
			name: "未成牌型",
			concealed: []string{
				"w1", "w2", "w4", "w5", "t1", "t3", "t5", "b2",
				"b4", "b6", "east", "south", "west", "north",
			},
			want: false,
		},
		{
			name: "牌数不足",
			concealed: []string{
				"w1", "w1", "w1", "east", "east",
			},
			want: false,
		},
		{
			name: "顺子不能跨花色",
			concealed: []string{
				"w8", "w9", "t1", "w2", "w3", "w4",
				"t5", "t5", "t5", "b7", "b8", "b9",
				"east", "east",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := mustTiles(t, tt.concealed...)
			if got := IsWinningHand(tiles, tt.melds); got != tt.want {
				t.Errorf("IsWinningHand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func mustParseMeld(symbols ...string) []Tile {
	tiles, err := ParseTiles(symbols)
	if err != nil {
		panic(err)
	}
	return tiles
}

func TestCanWinOn(t *testing.T) {
	// 13张听b6/b9
	hand := mustParseMeld(
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8",
		"east", "east",
	)

	if !CanWinOn(hand, nil, MustParseTile("b9")) {
		t.Error("b9应能胡")
	}
	if !CanWinOn(hand, nil, MustParseTile("b6")) {
		t.Error("b6应能胡")
	}
	if CanWinOn(hand, nil, MustParseTile("w5")) {
		t.Error("w5不应能胡")
	}
	if CanWinOn(hand, nil, Tile(99)) {
		t.Error("非法牌不应能胡")
	}
}

func TestWaitingTiles(t *testing.T) {
	hand := mustParseMeld(
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8",
		"east", "east",
	)
	waits := WaitingTiles(hand, nil)
	if len(waits) != 2 {
		t.Fatalf("听牌数 = %d, want 2 (%v)", len(waits), TileSymbols(waits))
	}
	if waits[0] != MustParseTile("b6") || waits[1] != MustParseTile("b9") {
		t.Errorf("听牌 = %v, want [b6 b9]", TileSymbols(waits))
	}

	// 牌数不对时返回空
	if got := WaitingTiles(hand[:12], nil); got != nil {
		t.Errorf("12张手牌听牌检测应返回nil, got %v", got)
	}

	// 未听牌
	noTing := mustParseMeld(
		"w1", "w4", "w7", "t2", "t5", "t8",
		"b3", "b6", "b9", "east", "south", "west", "north",
	)
	if got := WaitingTiles(noTing, nil); len(got) != 0 {
		t.Errorf("散牌不应听牌, got %v", TileSymbols(got))
	}
}
