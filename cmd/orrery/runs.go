package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/analysis"
	"github.com/san-kum/orrery/internal/automation"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/integrators"
	"github.com/san-kum/orrery/internal/kepler"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/sim"
	"github.com/san-kum/orrery/internal/storage"
)

// tickFor advances s by total seconds in ticks of at most |step|, in the
// direction of step.
func tickFor(ctx context.Context, s *sim.Simulation, total, step float64) error {
	remaining := math.Abs(total)
	step = math.Abs(step)
	sign := 1.0
	if total < 0 {
		sign = -1
	}
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := math.Min(step, remaining)
		s.Tick(sign * h)
		remaining -= h
	}
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if dt == 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("dt must be finite and non-zero, got %g", dt)
	}

	s, cat, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}

	rec := storage.NewRecorder(every)
	rec.Seed(s.Elapsed(), s.Bodies())
	s.AddObserver(rec)

	var tracked []metrics.Metric
	for _, b := range s.Bodies() {
		if d, ok := metrics.EnergyDriftFor(s, b.ID); ok {
			tracked = append(tracked, d)
		}
	}
	tracked = append(tracked, metrics.NewStability())
	for _, p := range pairs {
		a, b, ok := strings.Cut(p, ":")
		if !ok {
			return fmt.Errorf("approach pair %q: want a:b", p)
		}
		tracked = append(tracked, metrics.NewApproach(dynamo.BodyID(a), dynamo.BodyID(b)))
	}
	for _, m := range tracked {
		s.AddObserver(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	total := days * 86400
	if dt < 0 {
		total = -total
	}
	fmt.Printf("running %s for %.2f days (dt=%gs, %s)...\n", cat.Name, days, dt, cfg.Integrator)
	start := time.Now()
	if err := tickFor(ctx, s, total, dt); err != nil {
		logger.Warn("run interrupted, saving partial trajectory", "elapsed", s.Elapsed())
	}
	wall := time.Since(start)

	meta := storage.RunMetadata{
		Catalog:    cat.Name,
		Epoch:      s.Epoch().String(),
		Integrator: cfg.Integrator,
		Precision:  cfg.Precision,
		MaxStep:    cfg.MaxStep,
		Dt:         dt,
		Duration:   s.Elapsed(),
		Metrics:    make(map[string]float64),
	}
	for id, rerr := range s.Rejected() {
		if meta.Rejected == nil {
			meta.Rejected = make(map[string]string)
		}
		meta.Rejected[string(id)] = rerr.Error()
	}
	for _, m := range tracked {
		meta.Metrics[m.Name()] = m.Value()
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(meta, rec)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", wall)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", rec.Frames())
	fmt.Println("\nmetrics:")
	for _, m := range tracked {
		fmt.Printf("  %-28s %.6e\n", m.Name(), m.Value())
	}
	return nil
}

// parseMember reads "method" or "method:bits".
func parseMember(arg string, base sim.Config) (sim.Config, error) {
	name, bits, hasBits := strings.Cut(arg, ":")
	method, err := integrators.ParseMethod(name)
	if err != nil {
		return sim.Config{}, err
	}
	c := base
	c.Integrator = method
	c.Precision = 0
	if hasBits {
		n, err := strconv.ParseUint(bits, 10, 32)
		if err != nil {
			return sim.Config{}, fmt.Errorf("precision %q: %w", bits, err)
		}
		c.Precision = uint(n)
	}
	return c, nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	at, err := cfg.StartEpoch()
	if err != nil {
		return err
	}

	configs := make([]sim.Config, len(args))
	for i, arg := range args {
		if configs[i], err = parseMember(arg, cfg.SimConfig()); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("comparing %d configurations on %s over %.2f days (dt=%gs)\n\n", len(configs), cat.Name, days, dt)
	out, err := sim.NewEnsemble(cat, at, configs, sim.WithLogger(logger)).Run(ctx, days*86400, dt)
	if err != nil {
		return err
	}

	ref := out[0].States
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONFIG\tMAX DEVIATION (m)\tWORST BODY\tRESTORED\tWALL")
	for i, o := range out {
		worst, dev := dynamo.BodyID("-"), 0.0
		for id, st := range o.States {
			r, ok := ref[id]
			if !ok {
				continue
			}
			if d := r3.Norm(r3.Sub(st.Pos, r.Pos)); d > dev {
				worst, dev = id, d
			}
		}
		fmt.Fprintf(w, "%s\t%.4e\t%s\t%d\t%v\n", args[i], dev, worst, o.Restored, o.Wall.Round(time.Millisecond))
	}
	return w.Flush()
}

func showElements(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	s, _, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}
	if days != 0 {
		if err := tickFor(context.Background(), s, days*86400, dt); err != nil {
			return err
		}
	}

	id := dynamo.BodyID(args[0])
	el, err := s.Elements(id)
	if err != nil {
		return err
	}
	period := "-"
	if _, mu, err := s.Relative(id); err == nil {
		if p, err := kepler.Period(mu, el.SemiMajorAxis); err == nil {
			period = fmt.Sprintf("%.4f d", p/86400)
		}
	}

	fmt.Printf("%s at %s (wrt %s)\n\n", id, s.Now(), el.Wrt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "semi-major axis\t%.9f AU\t(%.6e m)\n", el.SemiMajorAxis/dynamo.AU, el.SemiMajorAxis)
	fmt.Fprintf(w, "eccentricity\t%.9f\n", el.Eccentricity)
	fmt.Fprintf(w, "inclination\t%.6f°\n", el.Inclination)
	fmt.Fprintf(w, "ascending node\t%.6f°\n", el.Node)
	fmt.Fprintf(w, "arg. periapsis\t%.6f°\n", el.Periapsis)
	fmt.Fprintf(w, "mean anomaly\t%.6f°\n", el.MeanAnomaly)
	fmt.Fprintf(w, "period\t%s\n", period)
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATALOG\tTIME\tSPAN\tDT\tINTEG\tFRAMES")
	for _, run := range runs {
		integ := run.Integrator
		if run.Precision > 0 {
			integ = fmt.Sprintf("%s:%d", integ, run.Precision)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fd\t%gs\t%s\t%d\n",
			run.ID,
			run.Catalog,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration/86400,
			run.Dt,
			integ,
			run.Frames,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	runID, body := args[0], dynamo.BodyID(args[1])

	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	track, err := st.LoadTrack(runID, body)
	if err != nil {
		return err
	}
	if len(track) == 0 {
		return fmt.Errorf("no samples for %s", body)
	}

	var origin []storage.Sample
	if plotWrt != "" && dynamo.BodyID(plotWrt) != body {
		origin, _ = st.LoadTrack(runID, dynamo.BodyID(plotWrt))
	}

	data := make([]float64, len(track))
	times := make([]float64, len(track))
	for i, s := range track {
		times[i] = s.Time
		pos := s.State.Pos
		if i < len(origin) {
			pos = r3.Sub(pos, origin[i].State.Pos)
		}
		data[i] = r3.Norm(pos) / dynamo.AU
	}

	caption := fmt.Sprintf("%s distance (AU) over %.1f days", body, meta.Duration/86400)
	if len(origin) > 0 {
		caption = fmt.Sprintf("%s distance from %s (AU) over %.1f days", body, plotWrt, meta.Duration/86400)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("catalog: %s\n", meta.Catalog)
	fmt.Printf("samples: %d\n\n", len(data))
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	))

	if step, ok := analysis.UniformStep(times); ok {
		if p, err := analysis.DominantPeriod(data, math.Abs(step)); err == nil {
			fmt.Printf("\ndominant period: %.4f d\n", p/86400)
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	if output != "" {
		if err := st.ExportJSONFile(output, args[0]); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", args[0], output)
		return nil
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	if err := storage.New(cfg.DataDir).ExportSVGFile(args[1], args[0], svgSize); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	s, cat, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s on %s\n", sc.Name, cat.Name)
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	results, err := automation.Run(ctx, s, sc, logger)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tACTION\tBODY\tNOW\tBODIES\tRESULT")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", r.Index, r.Action, r.Body, r.Now, r.Bodies, status)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}
