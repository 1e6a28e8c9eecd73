package gateway

import (
	"context"

	"github.com/warp-contracts/vault/src/utils/logger"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Streams committed events over a websocket.
// Optional ?account= narrows the stream to events involving the account.
// Slow clients miss events instead of holding back the engine.
func (self *Server) onEvents(c *gin.Context) {
	filter := vault.NoAccount
	if address := c.Query("account"); address != "" {
		var err error
		filter, err = vault.ParseAccount(address)
		if err != nil {
			self.fail(c, err)
			return
		}
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: self.Config.IsDevelopment,
	})
	if err != nil {
		logger.LOG(c).WithError(err).Debug("Failed to accept websocket")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	report := &self.monitor.GetReport().Gateway.State
	report.StreamClients.Inc()
	defer report.StreamClients.Dec()

	sub := self.engine.Hub().Subscribe()
	defer self.engine.Hub().Unsubscribe(sub)

	ctx, cancel := self.ctx(c)
	defer cancel()

	// Clients don't send anything, reading only handles close frames
	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "")
				return
			}
			if filter != vault.NoAccount && !event.Involves(filter) {
				continue
			}

			err = self.write(ctx, conn, event)
			if err != nil {
				logger.LOG(c).WithError(err).Debug("Stream closed")
				return
			}
			report.StreamedEvents.Inc()
		}
	}
}

func (self *Server) write(ctx context.Context, conn *websocket.Conn, event *vault.Event) error {
	ctx, cancel := context.WithTimeout(ctx, self.Config.Gateway.ServerRequestTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, event)
}
