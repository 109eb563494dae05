// Command harvestsim runs the two-team drone harvesting contest.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/ttacon/chalk"

	"github.com/talgya/drone-harvest/internal/api"
	"github.com/talgya/drone-harvest/internal/config"
	"github.com/talgya/drone-harvest/internal/engine"
	"github.com/talgya/drone-harvest/internal/entropy"
	"github.com/talgya/drone-harvest/internal/persistence"
	"github.com/talgya/drone-harvest/internal/world"
)

// Reporting cadences in simulated time units.
const (
	reportEvery = 10.0
	ledgerEvery = 1.0
)

func main() {
	configPath := flag.String("config", "", "YAML config file; defaults apply when empty")
	ticks := flag.Uint64("ticks", 0, "run this many ticks unpaced and exit; 0 runs until interrupted")
	autostart := flag.Bool("autostart", true, "start the contest at once instead of waiting for POST /api/v1/start")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	tty := isTerminal()
	setupLogging(*verbose, tty)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("configuration rejected", "error", err)
		os.Exit(1)
	}

	// ── Arena ─────────────────────────────────────────────────────────
	arena, err := cfg.BuildArena()
	if err != nil {
		slog.Error("failed to build arena", "error", err)
		os.Exit(1)
	}
	slog.Info("arena ready",
		"seed", cfg.Seed,
		"radius", cfg.ArenaRadius,
		"obstacles", len(arena.Obstacles()),
		"bases", len(arena.Bases()),
	)

	coord, err := engine.NewCoordinator(cfg, arena)
	if err != nil {
		slog.Error("failed to create coordinator", "error", err)
		os.Exit(1)
	}

	// ── Run ledger ────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.LedgerPath != "" {
		if dir := filepath.Dir(cfg.LedgerPath); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		db, err = persistence.Open(cfg.LedgerPath)
		if err != nil {
			slog.Error("failed to open ledger", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if _, err := db.StartRun(cfg); err != nil {
			slog.Error("failed to start ledger run", "error", err)
			os.Exit(1)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(time.Duration(cfg.TimeStep * float64(time.Second)))
	eng.OnTick = coord.Tick
	eng.Every("report", engine.TicksFor(reportEvery, cfg.TimeStep), func(tick uint64) {
		snap := coord.Snapshot()
		slog.Info("contest status",
			"sim_time", engine.SimTime(tick, cfg.TimeStep),
			"red", snap.Delivered[world.TeamRed],
			"blue", snap.Delivered[world.TeamBlue],
			"collected", snap.Collected,
			"available", snap.Available,
			"busy", snap.Busy,
		)
	})
	if db != nil {
		eng.Every("ledger", engine.TicksFor(ledgerEvery, cfg.TimeStep), func(tick uint64) {
			flushLedger(db, coord, false)
		})
	}

	if *autostart {
		if err := coord.Start(); err != nil {
			slog.Error("failed to start contest", "error", err)
			os.Exit(1)
		}
	}

	if *ticks > 0 {
		runHeadless(eng, *ticks, tty)
	} else {
		runPaced(cfg, coord, eng, db)
	}

	if db != nil {
		flushLedger(db, coord, true)
	}
	printSummary(coord.Snapshot(), cfg.TimeStep, tty)
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// setupLogging picks a text handler on a terminal and JSON otherwise.
func setupLogging(verbose, tty bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if tty {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig layers defaults, the optional file and HARVEST_* variables,
// draws a seed when none is set, then validates.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = entropy.Seed(entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY")))
	}
	return cfg, cfg.Validate()
}

// progressChunk is the number of ticks between progress bar updates.
const progressChunk = 100

// runHeadless advances the given number of ticks unpaced, with a progress
// bar on a terminal.
func runHeadless(eng *engine.Engine, ticks uint64, tty bool) {
	if !tty {
		eng.Advance(ticks)
		return
	}

	bar := pb.New(int(ticks))
	bar.Output = os.Stderr
	bar.SetWidth(80)
	bar.Start()
	for done := uint64(0); done < ticks; {
		n := min(progressChunk, ticks-done)
		eng.Advance(n)
		done += n
		bar.Add(int(n))
	}
	bar.Finish()
}

// runPaced serves the API and runs in wall-clock time until a signal.
func runPaced(cfg config.Config, coord *engine.Coordinator, eng *engine.Engine, db *persistence.DB) {
	if cfg.APIPort > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("HARVEST_ADMIN_KEY not set; admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Coord:    coord,
			Eng:      eng,
			DB:       db,
			Port:     cfg.APIPort,
			AdminKey: cfg.AdminKey,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Println("Starting contest... (Ctrl+C to stop)")
	eng.Run()
}

// flushLedger writes pending events and a score line. The final flush
// also closes the run.
func flushLedger(db *persistence.DB, coord *engine.Coordinator, final bool) {
	if err := db.SaveEvents(coord.TakeEvents()); err != nil {
		slog.Error("ledger event flush failed", "error", err)
	}

	snap := coord.Snapshot()
	t := persistence.Tally{
		Tick:      snap.Tick,
		Red:       snap.Delivered[world.TeamRed],
		Blue:      snap.Delivered[world.TeamBlue],
		Collected: snap.Collected,
	}
	save := db.SaveTally
	if final {
		save = db.FinishRun
	}
	if err := save(t); err != nil {
		slog.Error("ledger tally failed", "error", err, "final", final)
	}
}

func printSummary(snap engine.Snapshot, step float64, tty bool) {
	red, blue := snap.Delivered[world.TeamRed], snap.Delivered[world.TeamBlue]
	fmt.Printf("\nContest over after %s ticks (%s simulated).\n",
		humanize.Comma(int64(snap.Tick)), engine.SimTime(snap.Tick, step))
	fmt.Printf("Red delivered %s, blue delivered %s, %s collected in total.\n",
		humanize.Comma(int64(red)), humanize.Comma(int64(blue)), humanize.Comma(int64(snap.Collected)))
	verdict, color := "Draw.", chalk.Yellow
	switch {
	case red > blue:
		verdict, color = "Red wins.", chalk.Red
	case blue > red:
		verdict, color = "Blue wins.", chalk.Blue
	}
	if tty {
		verdict = color.Color(verdict)
	}
	fmt.Println(verdict)
}
