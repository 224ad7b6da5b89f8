package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/repcoach/internal/auth"
	"github.com/2beens/repcoach/internal/camera"
	"github.com/2beens/repcoach/internal/coach"
	"github.com/2beens/repcoach/internal/config"
	"github.com/2beens/repcoach/internal/db"
	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/faceauth"
	"github.com/2beens/repcoach/internal/history"
	"github.com/2beens/repcoach/internal/live"
	"github.com/2beens/repcoach/internal/middleware"
	"github.com/2beens/repcoach/internal/pose"
	"github.com/2beens/repcoach/internal/profile"
	"github.com/2beens/repcoach/internal/session"
	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
	"github.com/2beens/repcoach/pkg"
)

const loginSessionsCleanupPeriod = 8 * time.Hour

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	catalog      *exercises.Catalog
	loginChecker *auth.LoginChecker
	authService  *auth.Service
	profiles     *profile.Service
	historyRepo  *history.Repo
	liveHub      *live.Hub
	coach        *coach.Manager
	detector     *pose.Adapter

	// the demo account gets a fake step counter
	demoUserID   string
	demoActivity *profile.SyntheticActivity

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()

	cancel context.CancelFunc
	done   chan struct{}
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	DBPassword              string
	HoneycombTracingEnabled bool
	// Camera and EngineLoader are the device the coach sessions run on.
	Camera       camera.Camera
	EngineLoader pose.EngineLoader
	DemoPassword string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDB,
		User:           cfg.PostgresUser,
		Password:       params.DBPassword,
		MaxConns:       cfg.PostgresMaxConns,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDB},
	)
	promRegistry := metrics.NewRegistry("repcoach", params.VersionInfo, pgxpoolCollector)
	metricsManager := metrics.NewManager("repcoach", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb, err := db.NewRedisClient(ctx, db.NewRedisClientParams{
		Host:           cfg.RedisHost,
		Port:           cfg.RedisPort,
		Password:       params.RedisPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("new redis client: %w", err)
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "repcoach")
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	historyRepo := history.NewRepo(dbPool)
	if err := historyRepo.Migrate(ctx); err != nil {
		log.Errorf("history migrate: %s", err)
	}

	authService := auth.NewAuthService(cfg.LoginSessionTTL, rdb)
	verifier := faceauth.NewVerifier(
		faceauth.NewHTTPComparer(cfg.FaceCompareURL, cfg.FaceCompareTimeout),
		cfg.FaceAcceptConfidence,
	)
	profileStore := profile.NewCachedStore(profile.NewRedisStore(rdb), 0)
	profiles := profile.NewService(profileStore, authService, verifier, metricsManager)

	var demoUserID string
	if params.DemoPassword != "" {
		demo, err := profiles.EnsureDemoUser(ctx, params.DemoPassword)
		if err != nil {
			log.Errorf("ensure demo user: %s", err)
		} else {
			demoUserID = demo.ID
		}
	}

	liveHub := live.NewHub(rdb, metricsManager)
	detector := pose.NewAdapter(params.EngineLoader, cfg.AdapterConfig(), metricsManager)

	s := &Server{
		versionInfo:    params.VersionInfo,
		config:         cfg,
		dbPool:         dbPool,
		redisClient:    rdb,
		catalog:        catalog,
		loginChecker:   auth.NewLoginChecker(cfg.LoginSessionTTL, rdb),
		authService:    authService,
		profiles:       profiles,
		historyRepo:    historyRepo,
		liveHub:        liveHub,
		detector:       detector,
		demoUserID:     demoUserID,
		demoActivity:   profile.NewSyntheticActivity(profileStore, time.Now().UnixNano(), profile.DefaultSyntheticInterval),
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}
	s.coach = coach.NewManager(coach.ManagerParams{
		Catalog:         catalog,
		Camera:          camera.NewExclusive("coach", params.Camera),
		Detector:        detector,
		Profiles:        profiles,
		Sink:            session.MultiSink{profiles, history.NewRecorder(historyRepo)},
		Config:          cfg.SessionConfig(0),
		EvaluatorConfig: cfg.EvaluatorConfig(),
		Metrics:         metricsManager,
		Observers:       []session.StateHandler{liveHub.OnState},
	})

	return s, nil
}

func loadCatalog(path string) (*exercises.Catalog, error) {
	if path == "" {
		return exercises.DefaultCatalog()
	}
	catalog, err := exercises.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return catalog, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
	}).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	exercises.NewHandler(s.catalog, nil).SetupRoutes(r)

	var reqRateLimiter middleware.RequestRateLimiter
	if s.redisClient != nil {
		reqRateLimiter = redis_rate.NewLimiter(s.redisClient)
	}
	profile.NewHandler(s.profiles).SetupRoutes(r, reqRateLimiter, s.config.LoginAttemptsPerMin, s.metricsManager)

	history.NewHandler(s.historyRepo).SetupRoutes(r)
	coach.NewHandler(s.coach).SetupRoutes(r)
	live.NewHandler(s.liveHub, s.config.AllowedOrigins).SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "PATCH", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins...))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

// Serve starts the API and metrics servers and the background loops. It
// returns once they are listening.
func (s *Server) Serve(ctx context.Context, host string, port int) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:     router,
		Addr:        ipAndPort,
		ReadTimeout: time.Minute,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metrics.Handler(s.promRegistry))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	go func() {
		defer close(s.done)
		if err := s.liveHub.Run(ctx); err != nil {
			log.Errorf("live hub stopped: %s", err)
		}
	}()

	go s.cleanupLoginSessions(ctx)
	if s.demoUserID != "" {
		go s.demoActivity.Run(ctx, s.demoUserID)
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) cleanupLoginSessions(ctx context.Context) {
	ticker := time.NewTicker(loginSessionsCleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := s.authService.ScanAndClean(ctx, now)
			log.Debugf("login sessions cleanup: %d removed", removed)
		}
	}
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	// running sessions are abandoned; the camera is released before exit
	s.coach.Shutdown()
	if err := s.detector.Close(); err != nil {
		log.Errorf("close pose detector: %s", err)
	}

	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}
