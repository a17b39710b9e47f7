// Command gym-agent runs a random-policy agent against a robot environment,
// remote or simulated. It is the Go analogue of a manual control script: a
// quick way to exercise the full step/reset loop and watch telemetry without
// a learning algorithm in the way.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/roverlab/robogym/gym"
	"github.com/roverlab/robogym/internal/monitor"
	"github.com/roverlab/robogym/internal/telemetry"
)

var (
	server      = flag.String("server", "http://localhost:7909", "Robot bridge base URL")
	experiment  = flag.String("experiment", "", "Experiment name (required)")
	resume      = flag.Bool("resume", false, "Resume an already-registered experiment")
	channelMode = flag.String("channel", "depth", "Observation channel: depth, rgb, or rgbd")
	episodes    = flag.Int("episodes", 10, "Number of episodes to run")
	depthClip   = flag.Float64("depth-clip", 0, "Clip+normalize depth to this max (0 = raw metres)")
	simulated   = flag.Bool("sim", false, "Use a local simulator instead of the remote rig")
	simCmd      = flag.String("sim-cmd", "", "Command to launch the simulator (space separated)")
	dbFile      = flag.String("db", "", "Telemetry SQLite file (empty = no recording)")
	monitorAddr = flag.String("monitor", "", "Serve the telemetry dashboard at this address")
	renderDir   = flag.String("render-dir", "", "Write observation snapshots to this directory")
	renderEvery = flag.Int("render-every", 0, "Render every N steps (0 = never)")
	seed        = flag.Int64("seed", 0, "Random seed (0 = nondeterministic)")
)

// seedValue resolves the -seed flag: zero means "pick one", anything else is
// used verbatim for reproducible runs.
func seedValue(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

func main() {
	flag.Parse()

	if *experiment == "" {
		log.Fatal("missing required -experiment flag")
	}
	channel, err := gym.ParseChannel(*channelMode)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := gym.Config{
		ExperimentName: *experiment,
		Resume:         *resume,
		Channel:        channel,
		ServerURL:      *server,
		Simulated:      *simulated,
		DepthClip:      *depthClip,
		RenderDir:      *renderDir,
	}
	if *simCmd != "" {
		cfg.SimCommand = strings.Fields(*simCmd)
	}

	var store *telemetry.Store
	if *dbFile != "" {
		store, err = telemetry.Open(*dbFile)
		if err != nil {
			log.Fatalf("opening telemetry db: %v", err)
		}
		defer store.Close()
		cfg.Recorder = store
	}

	if *monitorAddr != "" {
		if store == nil {
			log.Fatal("-monitor requires -db")
		}
		ws := monitor.NewWebServer(store, *experiment)
		go func() {
			log.Printf("telemetry dashboard listening on %s", *monitorAddr)
			if err := ws.ListenAndServe(*monitorAddr); err != nil {
				log.Printf("dashboard stopped: %v", err)
			}
		}()
	}

	env, err := gym.New(ctx, cfg)
	if err != nil {
		log.Fatalf("environment construction failed: %v", err)
	}
	defer env.Close()

	rng := rand.New(rand.NewSource(seedValue(*seed)))

	for ep := 1; ep <= *episodes; ep++ {
		if ctx.Err() != nil {
			break
		}
		if _, err := env.Reset(ctx); err != nil {
			log.Fatalf("reset failed: %v", err)
		}

		var ret float64
		step := 0
		for {
			if ctx.Err() != nil {
				log.Printf("interrupted mid-episode")
				return
			}

			action := gym.Action(rng.Intn(gym.NumActions))
			result, err := env.Step(ctx, action)
			if err != nil {
				log.Fatalf("step failed: %v", err)
			}
			step++
			ret += result.Reward

			if *renderEvery > 0 && step%*renderEvery == 0 {
				if err := env.Render("human"); err != nil {
					log.Printf("render failed: %v", err)
				}
			}
			if result.Done {
				break
			}
		}
		log.Printf("episode %d finished: %d steps, return %.3f", ep, step, ret)
	}

	if store != nil {
		stats, err := store.ExperimentStats(*experiment)
		if err == nil && stats.Episodes > 0 {
			log.Printf("experiment %q: %d episodes, mean return %.3f (std %.3f), best %.3f",
				*experiment, stats.Episodes, stats.MeanReturn, stats.StdReturn, stats.BestReturn)
		}
	}
}
