package stream

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/time/rate"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/sim"
)

// BodyFrame is the wire form of one body in a frame.
type BodyFrame struct {
	ID    dynamo.BodyID `json:"id"`
	Pos   [3]float64    `json:"pos"`
	Vel   [3]float64    `json:"vel"`
	Phase float64       `json:"phase,omitempty"`
}

// FramePayload is broadcast after every tick.
type FramePayload struct {
	Time     string      `json:"time"`
	Elapsed  float64     `json:"elapsed"`
	Speed    float64     `json:"speed"`
	Paused   bool        `json:"paused"`
	Restored []string    `json:"restored,omitempty"`
	Bodies   []BodyFrame `json:"bodies"`
}

// Runner ticks a simulation at a fixed frame rate and broadcasts each
// frame. Speed is simulated seconds per wall second; negative runs time
// backwards.
type Runner struct {
	sim     *sim.Simulation
	hub     *Hub
	limiter *rate.Limiter
	fps     int
	speed   float64
	paused  bool
	logger  *slog.Logger

	restored []dynamo.BodyID // set by the tick observer
}

func NewRunner(s *sim.Simulation, hub *Hub, fps int, speed float64, logger *slog.Logger) *Runner {
	if fps <= 0 {
		fps = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		sim:     s,
		hub:     hub,
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		fps:     fps,
		speed:   speed,
		logger:  logger,
	}
	s.AddObserver(sim.ObserverFunc(func(f sim.Frame) {
		r.restored = append(r.restored, f.Restored...)
	}))
	return r
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		r.drainCommands()
		r.Step()
	}
}

// Step advances one frame and broadcasts it.
func (r *Runner) Step() FramePayload {
	dt := 0.0
	if !r.paused {
		dt = r.speed / float64(r.fps)
	}

	r.restored = r.restored[:0]
	snaps := r.sim.Tick(dt)

	payload := FramePayload{
		Time:    r.sim.Now().String(),
		Elapsed: r.sim.Elapsed(),
		Speed:   r.speed,
		Paused:  r.paused,
		Bodies:  make([]BodyFrame, 0, len(snaps)),
	}
	for _, id := range r.restored {
		payload.Restored = append(payload.Restored, string(id))
	}
	for _, b := range r.sim.Bodies() {
		snap, ok := snaps[b.ID]
		if !ok {
			continue
		}
		p, v := snap.State.Pos, snap.State.Vel
		payload.Bodies = append(payload.Bodies, BodyFrame{
			ID:    b.ID,
			Pos:   [3]float64{p.X, p.Y, p.Z},
			Vel:   [3]float64{v.X, v.Y, v.Z},
			Phase: snap.Phase,
		})
	}

	if r.hub != nil {
		if err := r.hub.Broadcast(Message{Type: "frame", Payload: payload}); err != nil {
			r.logger.Error("encode frame", "err", err)
		}
	}
	return payload
}

func (r *Runner) drainCommands() {
	if r.hub == nil {
		return
	}
	for {
		select {
		case cmd := <-r.hub.Commands():
			r.Apply(cmd)
		default:
			return
		}
	}
}

// Apply handles one control command.
func (r *Runner) Apply(cmd Command) {
	switch cmd.Type {
	case "pause":
		r.paused = true
	case "resume":
		r.paused = false
	case "toggle":
		r.paused = !r.paused
	case "speed":
		if math.IsNaN(cmd.Value) || math.IsInf(cmd.Value, 0) {
			return
		}
		r.speed = cmd.Value
	case "rewind":
		r.speed = -r.speed
	default:
		r.logger.Debug("unknown command", "type", cmd.Type)
		return
	}
	r.logger.Info("stream command applied", "type", cmd.Type, "speed", r.speed, "paused", r.paused)
}

func (r *Runner) Speed() float64 { return r.speed }
func (r *Runner) Paused() bool   { return r.paused }
