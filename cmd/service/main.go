package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/repcoach/internal"
	"github.com/2beens/repcoach/internal/camera"
	"github.com/2beens/repcoach/internal/camera/webcam"
	"github.com/2beens/repcoach/internal/config"
	"github.com/2beens/repcoach/internal/logging"
	"github.com/2beens/repcoach/internal/pose"
	"github.com/2beens/repcoach/internal/pose/remote"
	"github.com/2beens/repcoach/internal/pose/replay"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	replayPath := flag.String("replay", "", "serve sessions from a landmark recording instead of the webcam")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	flush := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "repcoach-service",
	})
	defer flush()

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	redisPassword := os.Getenv("REPCOACH_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use REPCOACH_REDIS_PASS")
	}

	dbPassword := os.Getenv("REPCOACH_DB_PASS")
	if dbPassword == "" && cfg.IsProduction() {
		log.Warnln("postgres password not set. use REPCOACH_DB_PASS")
	}

	demoPassword := os.Getenv("REPCOACH_DEMO_PASSWORD")
	if demoPassword == "" {
		log.Debugln("demo user disabled, set REPCOACH_DEMO_PASSWORD to enable it")
	}

	if otelServiceName := os.Getenv("OTEL_SERVICE_NAME"); otelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	cam, engineLoader, err := videoInput(cfg, *replayPath)
	if err != nil {
		log.Fatalf("video input: %s", err)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			RedisPassword:           redisPassword,
			DBPassword:              dbPassword,
			HoneycombTracingEnabled: honeycombEnabled,
			Camera:                  cam,
			EngineLoader:            engineLoader,
			DemoPassword:            demoPassword,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

func videoInput(cfg *config.Config, replayPath string) (camera.Camera, pose.EngineLoader, error) {
	if replayPath != "" {
		rec, err := replay.Load(replayPath)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("serving sessions from recording %s (%d frames)", replayPath, rec.Len())
		return camera.NewReplay(rec), replay.Loader(rec), nil
	}

	cam, err := webcam.New()
	if err != nil {
		return nil, nil, err
	}
	return cam, remote.Loader(cfg.PoseEngineURL, cfg.PoseEngineTimeout), nil
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}
