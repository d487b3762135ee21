package models

// MahjongScore 积分/段位历史表：每局结算后每个真人玩家一条
type MahjongScore struct {
	BaseModel
	UserID uint   `gorm:"not null;index" json:"user_id"`
	RoomID string `gorm:"size:64;index" json:"room_id"`
	Round  int    `json:"round"`
	Delta  int    `json:"delta"`               // 本局积分变动
	Score  int    `json:"score"`               // 变动后的累计积分
	Rank   string `gorm:"size:20" json:"rank"` // 青铜/白银/黄金/铂金/钻石
}

// MahjongRound 牌局记录表：每局一条，含胜负与番型明细
type MahjongRound struct {
	BaseModel
	RoomID       string  `gorm:"size:64;index;not null" json:"room_id"`
	RoundNo      int     `gorm:"not null" json:"round_no"`
	DealerSeat   int     `json:"dealer_seat"`
	Drawn        bool    `json:"drawn"` // 流局
	WinnerSeat   int     `gorm:"default:-1" json:"winner_seat"`
	WinnerUserID uint    `gorm:"index;default:0" json:"winner_user_id"`
	Zimo         bool    `json:"zimo"`
	Fan          int     `json:"fan"`
	Payout       int64   `json:"payout"`
	Detail       JSONMap `gorm:"type:json" json:"detail"` // 番种、各座位变动
}
