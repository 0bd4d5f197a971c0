package api

import (
	"net/http"

	"github.com/coder/websocket"

	"github.com/onkernel/screencap/lib/logger"
)

// HandleLogsSocket streams status lines to a websocket client: first the
// backlog, then every new line as a text message.
func (s *ApiService) HandleLogsSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		log.Error("failed to accept logs websocket", "err", err)
		return
	}
	defer conn.CloseNow()

	// the client only listens; CloseRead cancels ctx once it goes away
	ctx := conn.CloseRead(r.Context())

	backlog, lines := s.status.Follow(ctx)
	for _, line := range backlog {
		if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case line, ok := <-lines:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
				log.Info("logs websocket write failed", "err", err)
				return
			}
		}
	}
}
