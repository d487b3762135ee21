package mahjong

import (
	"testing"
)

func TestParseTile(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		want    Tile
		wantErr bool
	}{
		{name: "一万", symbol: "w1", want: 0},
		{name: "九万", symbol: "w9", want: 8},
		{name: "一条", symbol: "t1", want: 9},
		{name: "九条", symbol: "t9", want: 17},
		{name: "一筒", symbol: "b1", want: 18},
		{name: "九筒", symbol: "b9", want: 26},
		{name: "东风", symbol: "east", want: TileEast},
		{name: "白板", symbol: "white", want: TileWhite},
		{name: "点数越界", symbol: "w0", wantErr: true},
		{name: "花色非法", symbol: "x5", wantErr: true},
		{name: "空串", symbol: "", wantErr: true},
		{name: "过长", symbol: "w12", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTile(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTile(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTile(%q) = %v, want %v", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestTileStringRoundTrip(t *testing.T) {
	// String与ParseTile必须互逆
	for _, tile := range AllTiles() {
		got, err := ParseTile(tile.String())
		if err != nil {
			t.Fatalf("ParseTile(%q) error: %v", tile.String(), err)
		}
		if got != tile {
			t.Errorf("往返不一致: %v -> %q -> %v", tile, tile.String(), got)
		}
	}
}

func TestTileClassification(t *testing.T) {
	tests := []struct {
		symbol   string
		suit     Suit
		rank     int
		honor    bool
		terminal bool
		dragon   bool
		wind     bool
	}{
		{"w1", SuitWan, 1, false, true, false, false},
		{"w5", SuitWan, 5, false, false, false, false},
		{"t9", SuitTiao, 9, false, true, false, false},
		{"b3", SuitTong, 3, false, false, false, false},
		{"east", SuitHonor, 0, true, false, false, true},
		{"north", SuitHonor, 0, true, false, false, true},
		{"red", SuitHonor, 0, true, false, true, false},
		{"white", SuitHonor, 0, true, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			tile := MustParseTile(tt.symbol)
			if tile.Suit() != tt.suit {
				t.Errorf("Suit() = %v, want %v", tile.Suit(), tt.suit)
			}
			if tile.Rank() != tt.rank {
				t.Errorf("Rank() = %v, want %v", tile.Rank(), tt.rank)
			}
			if tile.IsHonor() != tt.honor {
				t.Errorf("IsHonor() = %v, want %v", tile.IsHonor(), tt.honor)
			}
			if tile.IsTerminal() != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", tile.IsTerminal(), tt.terminal)
			}
			if tile.IsDragon() != tt.dragon {
				t.Errorf("IsDragon() = %v, want %v", tile.IsDragon(), tt.dragon)
			}
			if tile.IsWind() != tt.wind {
				t.Errorf("IsWind() = %v, want %v", tile.IsWind(), tt.wind)
			}
		})
	}
}

func TestSeatWindTile(t *testing.T) {
	want := []Tile{TileEast, TileSouth, TileWest, TileNorth}
	for seat := 0; seat < 4; seat++ {
		if got := SeatWindTile(seat); got != want[seat] {
			t.Errorf("SeatWindTile(%d) = %v, want %v", seat, got, want[seat])
		}
	}
	// 座位取模
	if got := SeatWindTile(5); got != TileSouth {
		t.Errorf("SeatWindTile(5) = %v, want %v", got, TileSouth)
	}
}

func TestNewTileCounts(t *testing.T) {
	tiles, err := ParseTiles([]string{"w1", "w1", "w1", "t5", "east"})
	if err != nil {
		t.Fatalf("ParseTiles error: %v", err)
	}
	counts, err := NewTileCounts(tiles)
	if err != nil {
		t.Fatalf("NewTileCounts error: %v", err)
	}
	if counts[MustParseTile("w1")] != 3 {
		t.Errorf("w1计数 = %d, want 3", counts[MustParseTile("w1")])
	}
	if counts[TileEast] != 1 {
		t.Errorf("east计数 = %d, want 1", counts[TileEast])
	}
	if counts.Total() != 5 {
		t.Errorf("Total() = %d, want 5", counts.Total())
	}

	// 非法索引
	if _, err := NewTileCounts([]Tile{Tile(34)}); err == nil {
		t.Error("非法索引应报错")
	}
}

func TestSortTiles(t *testing.T) {
	tiles, _ := ParseTiles([]string{"east", "b1", "w9", "t2", "w1"})
	SortTiles(tiles)
	want := []string{"w1", "w9", "t2", "b1", "east"}
	got := TileSymbols(tiles)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("排序结果 = %v, want %v", got, want)
		}
	}
}
