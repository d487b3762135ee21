package mahjong

import (
	"math/rand"
	"testing"
)

func TestAIChooseDiscardKeepsTing(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(7)))

	// 摸进north后打出即回到听b6/b9
	hand := mustParseMeld(
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8",
		"east", "east", "north",
	)
	if got := ai.ChooseDiscard(hand, nil, nil, nil); got != TileNorth {
		t.Errorf("听牌时应打出闲张north, got %v", got)
	}
}

func TestAIChooseDiscardReturnsHandTile(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(3)))

	// 散牌：只要求打出的牌确实在手中
	hand := mustParseMeld(
		"w1", "w4", "w7", "t2", "t5", "t8",
		"b3", "b6", "b9", "east", "south", "west", "north", "red",
	)
	pool := mustParseMeld("w5", "w5", "t3")
	got := ai.ChooseDiscard(hand, nil, pool, nil)
	found := false
	for _, tile := range hand {
		if tile == got {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("打出的牌%v不在手中", got)
	}
}

func TestAIChooseReactionHuAlways(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))
	acts := Actions{CanHu: true, CanGang: true, CanPeng: true}
	for i := 0; i < 20; i++ {
		action, _ := ai.ChooseReaction(nil, nil, 0, acts)
		if action != ActionHu {
			t.Fatal("可胡时必须选择胡")
		}
	}
}

func TestAIChooseReactionTingDeclinesPeng(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	// 听牌中（听b6/b9），东风可碰但碰了破听
	hand := mustParseMeld(
		"w1", "w1", "w1", "w2", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8",
		"east", "east",
	)
	acts := ResolveActions(hand, nil, TileEast, 0, 2)
	if !acts.CanPeng {
		t.Fatal("东风应可碰")
	}
	for i := 0; i < 20; i++ {
		action, _ := ai.ChooseReaction(hand, nil, TileEast, acts)
		if action != ActionPass {
			t.Fatal("听牌时应放弃碰")
		}
	}
}

func TestAIChooseReactionChiIntoTing(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	// 吃w5后打东风即听牌，应无条件接受
	hand := mustParseMeld(
		"w1", "w1", "w1", "w3", "w4",
		"t5", "t5", "t5", "b7", "b8", "b9",
		"east", "east",
	)
	tile := MustParseTile("w5")
	acts := ResolveActions(hand, nil, tile, 3, 0)
	if len(acts.ChiCombos) == 0 {
		t.Fatal("应有吃的组合")
	}
	action, combo := ai.ChooseReaction(hand, nil, tile, acts)
	if action != ActionChi {
		t.Fatalf("吃后成听应接受吃, got %v", action)
	}
	if combo == nil {
		t.Fatal("吃必须返回搭子")
	}
}

func TestAIProbabilisticGates(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(99)))

	// 自摸闸门约80%
	accepted := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		if ai.ShouldDeclareZimo() {
			accepted++
		}
	}
	rate := float64(accepted) / trials
	if rate < 0.7 || rate > 0.9 {
		t.Errorf("自摸接受率 = %.3f, 期望约0.8", rate)
	}
}
