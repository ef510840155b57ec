package websocket

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/errors"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/progress"
	ws "codeberg.org/citelens/server/internal/websocket"
)

type OriginChecker func(r *http.Request) bool

// handles WebSocket connections streaming the progress of one analysis run.
// Finished reports get their terminal event and are closed straight away.
func WebSocketHandler(hub *ws.Hub, store ReportGetter, checkOrigin OriginChecker) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(c *gin.Context) {
		reportID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		// use timeout context for the lookup to prevent hanging
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		report, err := store.Get(ctx, reportID)
		if stderrors.Is(err, reports.ErrNotFound) {
			errors.ReportNotFound(c)
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to get report", err)
			return
		}

		// check connection limits before accepting new connection
		ipAddress := c.ClientIP()
		if canAccept, reason := hub.CanAcceptConnection(ipAddress); !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			errors.InternalError(c, "failed to generate client ID", err)
			return
		}

		// upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"report_id", reportID,
				"ip", ipAddress,
			)

			return
		}

		if finished(report) {
			sendFinal(conn, report)
			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		client := ws.NewClient(clientID, reportID, ipAddress, conn, hub)
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"report_id", reportID,
			"ip", ipAddress,
		)
	}
}

func finished(r *reports.Report) bool {
	return r.Status == reports.StatusCompleted || r.Status == reports.StatusFailed
}

// writes the terminal event of a finished report and closes the connection
func sendFinal(conn *websocket.Conn, r *reports.Report) {
	defer conn.Close() //nolint:errcheck,gosec // G104: defer cleanup

	event := progress.Event{
		Type:      progress.TypeCompleted,
		ReportID:  r.ID,
		Timestamp: r.UpdatedAt,
	}

	if r.Status == reports.StatusFailed {
		event.Type = progress.TypeFailed
		event.Error = r.Error
	}

	msg, err := ws.NewMessage(ws.TypeProgress, r.ID, event)
	if err != nil {
		logger.ErrorErr(err, "failed to create progress message", "report_id", r.ID)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second)) //nolint:errcheck,gosec // G104: best-effort
	if err := conn.WriteJSON(msg); err != nil {
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "analysis finished")
	conn.WriteMessage(websocket.CloseMessage, closeMsg) //nolint:errcheck,gosec // G104: best-effort
}
