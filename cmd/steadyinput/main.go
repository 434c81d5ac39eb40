// Command steadyinput replays a recorded pointer trace through the
// stabilization engine, persists the session to SQLite and prints a
// summary of what the engine observed and did.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/GrupoUS/steadyinput/internal/activation"
	"github.com/GrupoUS/steadyinput/internal/config"
	"github.com/GrupoUS/steadyinput/internal/db"
	"github.com/GrupoUS/steadyinput/internal/engine"
	"github.com/GrupoUS/steadyinput/internal/targets"
	"github.com/GrupoUS/steadyinput/internal/trace"
	"github.com/GrupoUS/steadyinput/internal/tremor"
	"github.com/GrupoUS/steadyinput/internal/version"
)

var (
	tracePath    = flag.String("trace", "", "Pointer trace file (JSONL) to replay")
	dbPath       = flag.String("db", "steadyinput.db", "Session database path")
	settingsPath = flag.String("settings", "", "Optional settings override file (JSON)")
	healthcare   = flag.Bool("healthcare", false, "Enable healthcare-mode classification policy")
	note         = flag.String("note", "", "Session note stored with the recording")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("steadyinput %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *tracePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	settings.HealthcareMode = *healthcare
	store := config.NewStore(settings)

	events, err := trace.ReadFile(*tracePath)
	if err != nil {
		log.Fatalf("failed to read trace: %v", err)
	}
	if len(events) == 0 {
		log.Fatalf("trace %s contains no events", *tracePath)
	}

	sessionDB, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open session db: %v", err)
	}
	defer sessionDB.Close()

	sessionID, err := sessionDB.CreateSession(time.Now(), *note)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}

	eng := engine.New(store, engine.WithManualTicks())
	defer eng.Close()

	// A replay has no host UI, so stand in one demo target covering
	// the trace centroid region; real hosts register their own.
	registerDemoTargets(eng, events)

	lastRev := store.Revision()
	eng.OnActivate(func(ev activation.Event) {
		if err := sessionDB.RecordActivation(sessionID, ev); err != nil {
			log.Printf("record activation: %v", err)
		}
	})
	eng.OnTremor(func(atMs int64, p *tremor.Pattern) {
		if err := sessionDB.RecordPattern(sessionID, atMs, p); err != nil {
			log.Printf("record pattern: %v", err)
		}
		if p != nil && p.HasTremor && store.Revision() != lastRev {
			lastRev = store.Revision()
			if err := sessionDB.RecordAutoApply(sessionID, atMs, p.Classification, p.Recommended); err != nil {
				log.Printf("record auto-apply: %v", err)
			}
		}
	})

	// Replay in event time, firing the analysis and sweep cadence the
	// live engine would run on the wall clock.
	last := trace.Replay(eng, events,
		trace.Cadence{EveryMs: engine.AnalysisInterval.Milliseconds(), Fn: func(nowMs int64) { eng.RunAnalysisAt(nowMs) }},
		trace.Cadence{EveryMs: engine.SweepInterval.Milliseconds(), Fn: func(nowMs int64) { eng.SweepTargets() }},
	)
	// Final tick so short traces still produce a classification row.
	eng.RunAnalysisAt(last)

	summary, err := sessionDB.Summarize(sessionID)
	if err != nil {
		log.Fatalf("failed to summarize session: %v", err)
	}
	final := store.Snapshot()
	fmt.Printf("session %s\n", summary.SessionID)
	fmt.Printf("  events replayed:    %d\n", len(events))
	fmt.Printf("  analysis ticks:     %d (%d with sufficient data, %d tremor-positive)\n",
		summary.AnalysisTicks, summary.SufficientTicks, summary.TremorTicks)
	fmt.Printf("  activations:        %d\n", summary.Activations)
	fmt.Printf("  auto-applied tiers: %d\n", summary.AutoApplies)
	fmt.Printf("  final settings:     sensitivity=%d window=%dms dwell=%dms enabled=%v\n",
		final.Sensitivity, final.WindowMs, final.DwellMs, final.Enabled)
}

// registerDemoTargets places a single dwell target over the bounding
// box centre of the trace so activations are observable during replay.
func registerDemoTargets(eng *engine.Engine, events []trace.Event) {
	minX, minY := events[0].X, events[0].Y
	maxX, maxY := minX, minY
	for _, ev := range events {
		if ev.X < minX {
			minX = ev.X
		}
		if ev.X > maxX {
			maxX = ev.X
		}
		if ev.Y < minY {
			minY = ev.Y
		}
		if ev.Y > maxY {
			maxY = ev.Y
		}
	}
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	bounds := targets.Rect{X: cx - 40, Y: cy - 40, W: 80, H: 80}
	if err := eng.RegisterTarget("replay-centre", bounds, targets.Options{
		Priority: targets.PriorityNormal,
		Method:   targets.MethodDwell,
	}); err != nil {
		log.Printf("register demo target: %v", err)
	}
}
