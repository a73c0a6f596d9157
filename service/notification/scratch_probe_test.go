package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trackpoint-app/realtime/model"
	"github.com/trackpoint-app/realtime/router/ctxkey"
	"github.com/trackpoint-app/realtime/service/counter"
	"github.com/trackpoint-app/realtime/service/typing"
	"github.com/trackpoint-app/realtime/service/ws"
)

func TestScratchDirectBroadcast(t *testing.T) {
	h := hub.New()
	oc := counter.NewOnlineCounter(h)
	tm := typing.NewManager(h, time.Minute)
	streamer := ws.NewStreamer(h, oc, tm, zap.NewNop())

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		uid, _ := uuid.FromString(r.URL.Query().Get("uid"))
		r = r.WithContext(context.WithValue(r.Context(), ctxkey.UserID, uid))
		streamer.ServeHTTP(rw, r)
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { _ = streamer.Close() })

	uid := uuid.Must(uuid.NewV4())
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?uid=" + uid.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	fmt.Println("handshake:", string(data))

	conversation := uuid.Must(uuid.NewV4())
	join, _ := testJSON.Marshal(map[string]interface{}{
		"type": "chat:join",
		"body": map[string]interface{}{"conversationId": conversation},
	})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, join))
	sync, _ := testJSON.Marshal(map[string]interface{}{"type": "get:online-count", "body": struct{}{}})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, sync))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	fmt.Println("sync:", string(data))

	streamer.Broadcast(model.ConversationRoom(conversation), "chat:message", map[string]interface{}{"text": "direct"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	fmt.Println("after direct broadcast:", string(data), "err:", err)
}
