// Package automation runs scripted sequences of operations against a
// simulation: ticks, body insertions and removals, and epoch changes.
package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/sim"
)

// Scenario is a scripted sequence of steps.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step performs exactly one action.
type Step struct {
	Tick      float64        `yaml:"tick,omitempty"` // seconds to advance
	Dt        float64        `yaml:"dt,omitempty"`   // tick length; defaults to the whole span
	Add       *catalog.Entry `yaml:"add,omitempty"`
	AddPreset dynamo.BodyID  `yaml:"add_preset,omitempty"`
	Remove    dynamo.BodyID  `yaml:"remove,omitempty"`
	SetEpoch  string         `yaml:"set_epoch,omitempty"`
}

// Action names the step's operation.
func (s Step) Action() string {
	switch {
	case s.Tick != 0:
		return "tick"
	case s.Add != nil:
		return "add"
	case s.AddPreset != "":
		return "add_preset"
	case s.Remove != "":
		return "remove"
	case s.SetEpoch != "":
		return "set_epoch"
	}
	return ""
}

func (s Step) validate() error {
	n := 0
	for _, set := range []bool{s.Tick != 0, s.Add != nil, s.AddPreset != "", s.Remove != "", s.SetEpoch != ""} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("step must have exactly one action, has %d", n)
	}
	if math.IsNaN(s.Tick) || math.IsInf(s.Tick, 0) || math.IsNaN(s.Dt) || math.IsInf(s.Dt, 0) {
		return errors.New("tick and dt must be finite")
	}
	return nil
}

// Validate checks every step up front.
func (sc *Scenario) Validate() error {
	var errs []error
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

func Decode(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return &sc, nil
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// StepResult records what one step did.
type StepResult struct {
	Index   int
	Action  string
	Body    dynamo.BodyID
	Elapsed float64
	Now     epoch.Epoch
	Bodies  int
	Err     error
}

// Run executes the steps in order against s. A failing add or remove is
// recorded in its result and the scenario continues; cancellation stops
// it.
func Run(ctx context.Context, s *sim.Simulation, sc *Scenario, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(sc.Steps))

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := StepResult{Index: i + 1, Action: st.Action()}
		switch res.Action {
		case "tick":
			if err := tick(ctx, s, st.Tick, st.Dt); err != nil {
				return results, err
			}
		case "add":
			res.Body = st.Add.ID
			_, res.Err = s.AddBody(*st.Add)
		case "add_preset":
			e, ok := catalog.PresetBody(st.AddPreset)
			if !ok {
				res.Body, res.Err = st.AddPreset, dynamo.ForBody(st.AddPreset, dynamo.ErrUnknownBody)
				break
			}
			res.Body = e.ID
			_, res.Err = s.AddBody(e)
		case "remove":
			res.Body, res.Err = st.Remove, s.RemoveBody(st.Remove)
		case "set_epoch":
			at, err := epoch.Parse(st.SetEpoch)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			s.SetEpoch(at)
		}

		res.Elapsed, res.Now, res.Bodies = s.Elapsed(), s.Now(), len(s.Bodies())
		if res.Err != nil {
			logger.Warn("scenario step failed", "step", res.Index, "action", res.Action, "body", res.Body, "err", res.Err)
		} else {
			logger.Debug("scenario step", "step", res.Index, "action", res.Action, "bodies", res.Bodies)
		}
		results = append(results, res)
	}
	return results, nil
}

func tick(ctx context.Context, s *sim.Simulation, span, dt float64) error {
	step := math.Abs(dt)
	if step == 0 {
		step = math.Abs(span)
	}
	sign := math.Copysign(1, span)
	for remaining := math.Abs(span); remaining > 0; {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := math.Min(step, remaining)
		s.Tick(sign * h)
		remaining -= h
	}
	return nil
}
