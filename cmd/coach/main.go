package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/2beens/repcoach/internal/camera"
	"github.com/2beens/repcoach/internal/camera/webcam"
	"github.com/2beens/repcoach/internal/config"
	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/logging"
	"github.com/2beens/repcoach/internal/pose"
	"github.com/2beens/repcoach/internal/pose/remote"
	"github.com/2beens/repcoach/internal/pose/replay"
	"github.com/2beens/repcoach/internal/session"
	"github.com/2beens/repcoach/internal/telemetry/metrics"

	"github.com/cheggaaa/pb/v3"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const syntheticFramesPerPosition = 15

// coach runs a single workout in the terminal, either from a live webcam or
// from a landmark recording.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	planID := flag.String("plan", "", "plan or move id to perform")
	level := flag.String("level", "", "suggest a plan for this fitness level when -plan is empty")
	replayPath := flag.String("replay", "", "landmark recording (JSON) to play instead of the webcam")
	synthetic := flag.Bool("synthetic", false, "play a generated recording of the first move instead of the webcam")
	bmr := flag.Float64("bmr", 0, "basal metabolic rate for the calorie estimate (0 uses the fallback)")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %s\n", err)
		os.Exit(1)
	}

	flush := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "coach-cli",
	})
	defer flush()

	catalog, err := exercises.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = exercises.LoadCatalog(cfg.CatalogPath)
	}
	if err != nil {
		log.Fatalf("load catalog: %s", err)
	}

	plan, err := pickPlan(catalog, *planID, *level)
	if err != nil {
		log.Fatalf("pick plan: %s", err)
	}

	cam, loader, err := videoInput(cfg, plan, *replayPath, *synthetic)
	if err != nil {
		log.Fatalf("video input: %s", err)
	}

	metricsManager := metrics.NewManager("repcoach", "coach_cli", prometheus.NewRegistry())
	detector := pose.NewAdapter(loader, cfg.AdapterConfig(), metricsManager)
	defer func() {
		if err := detector.Close(); err != nil {
			log.Errorf("close detector: %s", err)
		}
	}()

	bar := pb.StartNew(plan.TotalSets())
	bar.Set("prefix", plan.Name+" ")

	runner := session.NewRunner(session.RunnerParams{
		UserID:          "local",
		Plan:            plan,
		Config:          cfg.SessionConfig(*bmr),
		EvaluatorConfig: cfg.EvaluatorConfig(),
		Camera:          camera.NewExclusive("coach-cli", cam),
		Detector:        detector,
		Metrics:         metricsManager,
		OnState: func(snap session.Snapshot) {
			bar.SetCurrent(int64(snap.State.SetsFinished))
			bar.Set("suffix", fmt.Sprintf(" %s | %s", snap.MoveName, progressLine(snap)))
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go readCommands(ctx, runner)

	if err := runner.Start(ctx); err != nil {
		log.Fatalf("start session: %s", err)
	}
	fmt.Println("commands: [p]ause, [r]esume, [f]inish set, [q]uit")

	summary, err := runner.Run(ctx)
	bar.Finish()
	switch {
	case errors.Is(err, session.ErrAbandoned):
		fmt.Println("workout abandoned")
		return
	case errors.Is(err, context.Canceled):
		fmt.Println("interrupted")
		return
	case err != nil && summary == nil:
		log.Fatalf("session: %s", err)
	case err != nil:
		log.Errorf("session finished with errors: %s", err)
	}

	printSummary(summary)
}

func pickPlan(catalog *exercises.Catalog, planID, level string) (exercises.Plan, error) {
	if planID != "" {
		return catalog.PlanOrMove(planID)
	}

	difficulty := exercises.Beginner
	if level != "" {
		d, err := exercises.ParseDifficulty(level)
		if err != nil {
			return exercises.Plan{}, err
		}
		difficulty = d
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	suggestions := exercises.QuickStart(catalog, difficulty, 1, rnd)
	if len(suggestions) == 0 {
		return exercises.Plan{}, fmt.Errorf("no plans for level %s", difficulty)
	}
	return suggestions[0], nil
}

func videoInput(cfg *config.Config, plan exercises.Plan, replayPath string, synthetic bool) (camera.Camera, pose.EngineLoader, error) {
	var rec *replay.Recording
	switch {
	case replayPath != "":
		r, err := replay.Load(replayPath)
		if err != nil {
			return nil, nil, err
		}
		rec = r
	case synthetic:
		r, err := syntheticRecording(cfg, plan)
		if err != nil {
			return nil, nil, err
		}
		rec = r
	}
	if rec != nil {
		log.Debugf("playing recording with %d frames", rec.Len())
		return camera.NewReplay(rec), replay.Loader(rec), nil
	}

	cam, err := webcam.New()
	if err != nil {
		return nil, nil, err
	}
	return cam, remote.Loader(cfg.PoseEngineURL, cfg.PoseEngineTimeout), nil
}

// syntheticRecording performs the first set of the plan's first move.
func syntheticRecording(cfg *config.Config, plan exercises.Plan) (*replay.Recording, error) {
	item := plan.Sequence()[0]
	rule := item.Move.Tracking
	joints, ok := rule.ControlJoints()
	if !ok {
		return nil, fmt.Errorf("move %s has no tracked joints", item.MoveID)
	}

	if item.Move.IsHold() {
		angle := rule.Down
		if rule.HoldPhase == exercises.HoldUp {
			angle = rule.Up
		}
		// one frame per detection, plus the countdown and some slack
		frames := (item.Target() + cfg.InitialCountdown + 2) * cfg.RefreshRateHz
		return replay.Sweep(joints, replay.Repeat([]float64{angle}, frames)), nil
	}

	var angles []float64
	for i := 0; i < item.Target(); i++ {
		angles = append(angles, rule.Up, rule.Down)
	}
	angles = append(angles, rule.Up)
	return replay.Sweep(joints, replay.Repeat(angles, syntheticFramesPerPosition)), nil
}

func readCommands(ctx context.Context, runner *session.Runner) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "p", "pause":
			err = runner.Pause(ctx)
		case "r", "resume":
			err = runner.Resume(ctx)
		case "f", "finish":
			err = runner.FinishSet(ctx)
		case "q", "quit":
			err = runner.Abandon(ctx)
		default:
			continue
		}
		if err != nil {
			return
		}
	}
}

func progressLine(snap session.Snapshot) string {
	line := phaseLine(snap)
	if snap.VideoEnded && !snap.State.Phase.Terminal() {
		line += " | recording ended, [f]inish set or [q]uit"
	}
	return line
}

func phaseLine(snap session.Snapshot) string {
	s := snap.State
	switch s.Phase {
	case session.PhaseCountdown:
		return fmt.Sprintf("starting in %d", s.Countdown)
	case session.PhaseResting:
		return fmt.Sprintf("rest %ds", s.Countdown)
	case session.PhaseExercising, session.PhasePaused:
		current := s.Reps
		if s.HoldSeconds > 0 {
			current = s.HoldSeconds
		}
		line := fmt.Sprintf("set %d/%d %d/%d %s", s.Set, snap.TotalSets, current, snap.Target, snap.Feedback)
		if s.Phase == session.PhasePaused {
			line += " (paused)"
		}
		return line
	default:
		return string(s.Phase)
	}
}

func printSummary(summary *session.Summary) {
	fmt.Printf("\n%s done: %d reps, %d kcal, %ds\n", summary.PlanName, summary.Reps, summary.Calories, summary.DurationSeconds)
	for _, entry := range summary.Breakdown {
		fmt.Printf("  %-20s %s\n", entry.MoveName, entry.Result)
	}
}
