package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/sim"
	"github.com/san-kum/orrery/internal/stream"
	"github.com/san-kum/orrery/internal/viz"
)

var (
	configFile string
	profile    string
	v          = config.NewViper()

	// run, compare, elements
	days   float64
	dt     float64
	every  int
	pairs  []string
	output string

	// plot
	plotWrt string

	// export-svg
	svgSize int

	// live
	theme string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "orrery",
		Short:         "orbital kinematics engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml)")
	pf.StringVar(&profile, "profile", "", "settings profile, applied over config and flags")
	pf.String("catalog", "", "catalog file (yaml or toml)")
	pf.String("preset", config.DefaultPreset, "built-in catalog when no file is given")
	pf.String("epoch", "", "start epoch (RFC 3339 or JD2451545.0); default is the catalog epoch")
	pf.Float64("max-step", config.DefaultMaxStep, "largest integration sub-step in seconds")
	pf.Uint("precision", 0, "float mantissa bits; 0 means float64")
	pf.String("integrator", "euler", "euler or leapfrog")
	pf.String("data", config.DefaultDataDir, "run directory")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "text", "text or json")

	for key, flag := range map[string]string{
		"catalog":    "catalog",
		"preset":     "preset",
		"epoch":      "epoch",
		"max_step":   "max-step",
		"precision":  "precision",
		"integrator": "integrator",
		"data_dir":   "data",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		v.BindPFlag(key, pf.Lookup(flag))
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "resolve the catalog and print initial states",
		Args:  cobra.NoArgs,
		RunE:  resolveCatalog,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and record the trajectory",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&days, "days", 365.25, "simulated duration in days")
	runCmd.Flags().Float64Var(&dt, "dt", 3600, "tick length in seconds (negative runs backwards)")
	runCmd.Flags().IntVar(&every, "every", 24, "record one frame in every n ticks")
	runCmd.Flags().StringSliceVar(&pairs, "approach", nil, "body pairs to track closest approach for, as a:b")

	compareCmd := &cobra.Command{
		Use:   "compare [method[:bits]]...",
		Short: "run the catalog under several integrators in parallel",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&days, "days", 365.25, "simulated duration in days")
	compareCmd.Flags().Float64Var(&dt, "dt", 3600, "tick length in seconds")

	elementsCmd := &cobra.Command{
		Use:   "elements [body]",
		Short: "osculating elements of a body after running",
		Args:  cobra.ExactArgs(1),
		RunE:  showElements,
	}
	elementsCmd.Flags().Float64Var(&days, "days", 0, "simulated duration in days")
	elementsCmd.Flags().Float64Var(&dt, "dt", 3600, "tick length in seconds")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "watch the simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "colour theme: "+strings.Join(viz.ThemeNames(), ", "))
	liveCmd.Flags().Float64("speed", config.DefaultSpeed, "simulated seconds per wall second")
	liveCmd.Flags().Int("fps", config.DefaultFPS, "frames per second")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation over websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().String("listen", config.DefaultListen, "listen address")
	serveCmd.Flags().Float64("speed", config.DefaultSpeed, "simulated seconds per wall second")
	serveCmd.Flags().Int("fps", config.DefaultFPS, "frames per second")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [body]",
		Short: "plot a body's distance over a recorded run",
		Args:  cobra.ExactArgs(2),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotWrt, "wrt", "sun", "measure distance from this body")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [path]",
		Short: "draw a recorded run as a top-down SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image width and height in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tBODIES")
			for _, name := range catalog.ListPresets() {
				ids := catalog.Preset(name).IDs()
				names := make([]string, len(ids))
				for i, id := range ids {
					names[i] = string(id)
				}
				fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(names, ", "))
			}
			return w.Flush()
		},
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "list settings profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListProfiles() {
				fmt.Println(p)
			}
		},
	}

	saveCatalogCmd := &cobra.Command{
		Use:   "save-catalog [path]",
		Short: "write the active catalog to a yaml or toml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			return catalog.Save(args[0], cat)
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of ticks, insertions and removals",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(resolveCmd, runCmd, scenarioCmd, compareCmd, elementsCmd, liveCmd, serveCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, profilesCmd, saveCatalogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the layered configuration and builds the logger.
func setup() (*config.Config, *slog.Logger, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return nil, nil, err
	}
	if profile != "" {
		if !config.ApplyProfile(cfg, profile) {
			return nil, nil, fmt.Errorf("unknown profile %q (available: %v)", profile, config.ListProfiles())
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog != "" {
		return catalog.Load(cfg.Catalog)
	}
	cat := catalog.Preset(cfg.Preset)
	if cat == nil {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", cfg.Preset, catalog.ListPresets())
	}
	return cat, nil
}

// newSimulation resolves the configured catalog into a ready simulation.
func newSimulation(cfg *config.Config, logger *slog.Logger, opts ...sim.Option) (*sim.Simulation, *catalog.Catalog, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	at, err := cfg.StartEpoch()
	if err != nil {
		return nil, nil, err
	}

	s, err := sim.New(cfg.SimConfig(), append([]sim.Option{sim.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.Resolve(cat, at); err != nil {
		return nil, nil, err
	}
	for id, rerr := range s.Rejected() {
		logger.Warn("body not simulated", "body", id, "err", rerr)
	}
	return s, cat, nil
}

func resolveCatalog(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	s, cat, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("catalog: %s\nepoch:   %s\n\n", cat.Name, s.Now())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tWRT\tR (AU)\tV (km/s)\tX (m)\tY (m)\tZ (m)")
	for _, b := range s.Bodies() {
		r, vel := "-", "-"
		if rel, _, err := s.Relative(b.ID); err == nil && b.Wrt != "" {
			r = fmt.Sprintf("%.6f", rel.Radius()/dynamo.AU)
			vel = fmt.Sprintf("%.4f", rel.Speed()/1000)
		}
		p := b.State.Pos
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6e\t%.6e\t%.6e\n", b.ID, b.Wrt, r, vel, p.X, p.Y, p.Z)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if rejected := s.Rejected(); len(rejected) > 0 {
		fmt.Println("\nrejected:")
		for _, id := range cat.IDs() {
			if rerr, ok := rejected[id]; ok {
				fmt.Printf("  %s: %v\n", id, rerr)
			}
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, map[string]string{"speed": "speed", "fps": "fps"})
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	// the terminal belongs to the view
	logger := logging.Discard()
	opts := viz.Options{Speed: cfg.Speed, FPS: cfg.FPS, Theme: theme}

	if len(args) == 1 {
		cfg.Catalog, cfg.Preset = "", args[0]
	} else if cfg.Catalog == "" && configFile == "" && !cmd.Flags().Changed("preset") {
		return viz.RunPicker(func(name string) (*sim.Simulation, error) {
			c := *cfg
			c.Preset = name
			s, _, err := newSimulation(&c, logger)
			return s, err
		}, opts)
	}

	s, cat, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}
	opts.Title = cat.Name
	return viz.Run(s, opts)
}

func serve(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, map[string]string{"listen": "listen", "speed": "speed", "fps": "fps"})
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	s, _, err := newSimulation(cfg, logger, sim.WithStats(collector))
	if err != nil {
		return err
	}

	hub := stream.NewHub(logger, collector.ClientsConnected)
	runner := stream.NewRunner(s, hub, cfg.FPS, cfg.Speed, logger)
	srv := stream.NewServer(cfg.Listen, s, hub, runner, collector.Handler(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if configFile != "" {
		go func() {
			err := config.Watch(ctx, configFile, func(c *config.Config) {
				logger.Info("config reloaded", "speed", c.Speed)
				hub.Submit(stream.Command{Type: "speed", Value: c.Speed})
			}, func(err error) {
				logger.Warn("config reload failed", "err", err)
			})
			if err != nil {
				logger.Error("config watch stopped", "err", err)
			}
		}()
	}

	return srv.Serve(ctx)
}

// bindFlags routes the command's own flags through the layered config.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}
