package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"microgrid-dispatch/internal/api/models"
	"microgrid-dispatch/internal/logger"
	"microgrid-dispatch/internal/sim"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream handles GET /api/v1/simulations/:id/stream. It upgrades to a
// websocket and replays the stored day one hour per tick. The client may send
// {"type":"set_mode","mode":"baseline"} or {"type":"reset"} at any time.
func (h *SimulationHandler) Stream(c *gin.Context) {
	e, ok := h.lookup(c)
	if !ok {
		return
	}
	var q models.StreamQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	mode, err := parseMode(q.Mode)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_MODE", err)
		return
	}
	stepper, err := sim.NewLiveStepper(e.Comparison, mode)
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	interval := h.streamInterval
	if q.IntervalMs > 0 {
		interval = time.Duration(q.IntervalMs) * time.Millisecond
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	cmds := make(chan models.StreamCommand, 8)
	done := make(chan struct{})
	go readCommands(conn, cmds, done, h.log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case cmd := <-cmds:
			if err := applyCommand(stepper, cmd); err != nil {
				if writeJSON(conn, models.StreamMessage{Type: "error", Error: err.Error()}) != nil {
					return
				}
			}
		case <-ticker.C:
			f, ok := stepper.Next()
			if !ok {
				totals := stepper.Totals()
				msg := models.StreamMessage{Type: "done", Mode: stepper.Mode().String(), Totals: &totals}
				if writeJSON(conn, msg) == nil {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
				}
				return
			}
			if err := writeJSON(conn, models.StreamMessage{Type: "hour", Mode: stepper.Mode().String(), Hour: &f}); err != nil {
				h.log.Debugf("stream %s closed: %v", e.ID, err)
				return
			}
		}
	}
}

func readCommands(conn *websocket.Conn, cmds chan<- models.StreamCommand, done chan<- struct{}, log logger.Logger) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("websocket read error: %v", err)
			}
			return
		}
		var cmd models.StreamCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			log.Debugf("invalid stream command: %v", err)
			continue
		}
		select {
		case cmds <- cmd:
		default:
			log.Warnf("stream command dropped: %s", cmd.Type)
		}
	}
}

func applyCommand(s *sim.LiveStepper, cmd models.StreamCommand) error {
	switch cmd.Type {
	case "set_mode":
		mode, err := parseMode(cmd.Mode)
		if err != nil {
			return err
		}
		return s.SetMode(mode)
	case "reset":
		s.Reset()
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func writeJSON(conn *websocket.Conn, msg models.StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
