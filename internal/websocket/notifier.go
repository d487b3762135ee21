package websocket

import (
	"encoding/json"
	"time"

	"github.com/wfunc/mahjong-game/internal/game"
	"go.uber.org/zap"
)

// GameNotifier 把牌局事件推给玩家的所有在线连接
// 实现 game.Notifier，发后不理：玩家不在线就丢弃
type GameNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

// NewGameNotifier 创建牌局事件推送器
func NewGameNotifier(hub *Hub, logger *zap.Logger) *GameNotifier {
	return &GameNotifier{hub: hub, logger: logger}
}

// Notify 推送一条牌局事件
func (n *GameNotifier) Notify(playerID uint, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("序列化牌局事件失败",
			zap.Error(err),
			zap.String("room_id", event.RoomID),
			zap.String("event", string(event.Type)))
		return
	}

	msg := &Message{
		Type:      MessageTypeGameEvent,
		UserID:    playerID,
		RoomID:    event.RoomID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	if err := n.hub.SendToUser(playerID, msg); err != nil {
		// 玩家掉线属于常态，只记debug
		n.logger.Debug("牌局事件未送达",
			zap.Uint("player_id", playerID),
			zap.String("room_id", event.RoomID),
			zap.String("event", string(event.Type)))
	}
}
