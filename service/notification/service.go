package notification

import (
	"time"

	"github.com/leandro-lugaresi/hub"
	"go.uber.org/zap"

	"github.com/trackpoint-app/realtime/service/counter"
	"github.com/trackpoint-app/realtime/service/ws"
)

const presenceBroadcastInterval = time.Second

// Service bridges domain events on the hub to realtime fan-out. Handlers
// run sequentially on the subscription channel, so events published to the
// same room go out in publish order.
type Service struct {
	hub      *hub.Hub
	logger   *zap.Logger
	ws       *ws.Streamer
	oc       *counter.OnlineCounter
	presence *presenceThrottle
}

// NewService creates and starts the fan-out service
func NewService(hub *hub.Hub, logger *zap.Logger, streamer *ws.Streamer, oc *counter.OnlineCounter) *Service {
	service := &Service{
		hub:    hub,
		logger: logger.Named("notification"),
		ws:     streamer,
		oc:     oc,
	}
	service.presence = newPresenceThrottle(presenceBroadcastInterval, service.broadcastOnlineCount)

	go func() {
		topics := make([]string, 0, len(handlerMap))
		for k := range handlerMap {
			topics = append(topics, k)
		}
		for msg := range hub.Subscribe(200, topics...).Receiver {
			if h, ok := handlerMap[msg.Topic()]; ok {
				h(service, msg)
			}
		}
	}()
	return service
}

func (ns *Service) broadcastOnlineCount() {
	ids := ns.oc.GetOnlineUserIDs()
	ns.ws.WriteMessage("users:online-count", map[string]interface{}{
		"count":   len(ids),
		"userIds": ids,
	}, ws.TargetAll())
}
