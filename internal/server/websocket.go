package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/skylift/skylift/internal/core/flight"
	"github.com/skylift/skylift/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Frame is one websocket message: a full state snapshot of the streamed
// episode after one transition.
type Frame struct {
	EpisodeID string       `json:"episodeId"`
	Step      int          `json:"step"`
	Thrust    float64      `json:"thrust"`
	State     flight.State `json:"state"`
	Reward    float64      `json:"reward"`
	Done      bool         `json:"done"`
}

// handleStream flies one fresh episode per connection and streams every
// transition. Each connection owns its own environment instance, so
// concurrent viewers never share state.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Err(err))
		return
	}
	defer func() { _ = conn.Close() }()

	env, err := flight.New(s.envCfg)
	if err != nil {
		s.log.Error("cannot build demo environment", log.Err(err))
		return
	}

	episodeID := uuid.NewString()
	logger := s.log.With(log.String("episode", episodeID))
	logger.Debug("episode stream opened", log.String("remote", conn.RemoteAddr().String()))
	if s.rec != nil {
		s.rec.Inc("server.streams")
	}

	var ticker *time.Ticker
	if s.cfg.FrameInterval > 0 {
		ticker = time.NewTicker(s.cfg.FrameInterval)
		defer ticker.Stop()
	}

	ctx := r.Context()
	obs := env.Reset()

	for step := 0; step < s.cfg.MaxEpisodeSteps; step++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}

		thrust := s.cfg.DemoThrust
		if s.act != nil {
			thrust = s.act(obs)
		}

		next, reward, done, _, err := env.Step(thrust)
		if err != nil {
			logger.Error("episode step failed", log.Err(err))
			return
		}
		obs = next

		frame := Frame{
			EpisodeID: episodeID,
			Step:      step,
			Thrust:    thrust,
			State:     env.State(),
			Reward:    reward,
			Done:      done,
		}
		if err := conn.WriteJSON(frame); err != nil {
			logger.Debug("viewer disconnected", log.Err(err))
			return
		}
		if done {
			break
		}
	}

	logger.Debug("episode stream finished")
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "episode complete"))
}
