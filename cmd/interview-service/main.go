package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mockinterview/internal/ai"
	"mockinterview/internal/common/cache"
	"mockinterview/internal/common/db"
	"mockinterview/internal/common/http/health"
	commonmw "mockinterview/internal/common/http/middleware"
	"mockinterview/internal/common/mq"
	"mockinterview/internal/common/storage"
	compilerclient "mockinterview/internal/compiler/client"
	compilercontroller "mockinterview/internal/compiler/controller"
	compilerservice "mockinterview/internal/compiler/service"
	interviewcontroller "mockinterview/internal/interview/controller"
	interviewrepo "mockinterview/internal/interview/repository"
	interviewservice "mockinterview/internal/interview/service"
	resumecontroller "mockinterview/internal/resume/controller"
	resumerepo "mockinterview/internal/resume/repository"
	resumeservice "mockinterview/internal/resume/service"
	usercontroller "mockinterview/internal/user/controller"
	userrepo "mockinterview/internal/user/repository"
	userservice "mockinterview/internal/user/service"
	voicecontroller "mockinterview/internal/voice/controller"
	voiceservice "mockinterview/internal/voice/service"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/interview_service.yaml"

type controllers struct {
	auth       *usercontroller.AuthController
	compiler   *compilercontroller.CompilerController
	resume     *resumecontroller.ResumeController
	analyzer   *resumecontroller.AnalyzerController
	interview  *interviewcontroller.InterviewController
	voice      *voicecontroller.VoiceController
	authSvc    *userservice.AuthService
	limiter    *commonmw.RateLimiter
	healthDeps map[string]health.Pinger
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	ctx := context.Background()

	mysqlDB, err := db.OpenMySQL(ctx, appCfg.Database)
	if err != nil {
		logger.Error(ctx, "init database failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mysqlDB.Close()
	}()
	dbProvider := db.NewStaticProvider(mysqlDB)

	redisCache, err := cache.DialRedis(ctx, appCfg.Redis)
	if err != nil {
		logger.Error(ctx, "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	objStorage, err := buildObjectStorage(ctx, appCfg.MinIO)
	if err != nil {
		logger.Error(ctx, "init object storage failed", zap.Error(err))
		return
	}
	resumeStorage := objStorage
	if appCfg.Resume.Compress {
		compressed, err := storage.NewCompressedStorage(objStorage)
		if err != nil {
			logger.Error(ctx, "init resume compression failed", zap.Error(err))
			return
		}
		resumeStorage = compressed
	}

	executor, err := buildExecutor(appCfg.Compiler)
	if err != nil {
		logger.Error(ctx, "init code executor failed", zap.Error(err))
		return
	}

	var queue mq.MessageQueue
	if appCfg.Resume.AsyncAnalysis {
		queue, err = buildQueue(appCfg.Kafka)
		if err != nil {
			logger.Error(ctx, "init message queue failed", zap.Error(err))
			return
		}
		defer func() {
			_ = queue.Close()
		}()
	}

	aiSvc := ai.NewService(ai.NewClient(appCfg.AI))
	if !aiSvc.Enabled() {
		logger.Warn(ctx, "openai key not configured, using placeholder questions and feedback")
	}

	users := userrepo.NewUserRepositoryWithTTL(dbProvider, redisCache, appCfg.Auth.UserCacheTTL, 0)
	blacklist := userrepo.NewTokenBlacklistRepository(
		userrepo.NewLRUCache[bool](appCfg.Auth.BlacklistLRU, time.Minute), redisCache, 0, time.Minute)
	authSvc := userservice.NewAuthService(users, blacklist, redisCache, userservice.AuthServiceConfig{
		JWTSecret:      []byte(appCfg.Auth.JWTSecret),
		JWTIssuer:      appCfg.Auth.JWTIssuer,
		AccessTokenTTL: appCfg.Auth.AccessTokenTTL,
		LoginFailTTL:   appCfg.Auth.LoginFailTTL,
		LoginFailLimit: appCfg.Auth.LoginFailLimit,
	})

	compilerSvc := compilerservice.NewCompilerService(executor, compilerservice.Config{
		MaxAttempts:    appCfg.Compiler.MaxAttempts,
		Backoff:        appCfg.Compiler.Backoff,
		RequestTimeout: appCfg.Compiler.RequestTimeout,
		BatchTimeout:   appCfg.Compiler.BatchTimeout,
	})

	resumeSvc := resumeservice.NewResumeService(resumerepo.NewResumeRepository(dbProvider), resumeStorage, resumeservice.ResumeServiceConfig{
		MaxFileSize:       appCfg.Resume.MaxFileSize,
		AllowedExtensions: appCfg.Resume.AllowedExtensions,
		KeyPrefix:         appCfg.Resume.KeyPrefix,
	})
	var producer mq.Producer
	if queue != nil {
		producer = queue
	}
	analyzerSvc := resumeservice.NewAnalyzerService(aiSvc, resumerepo.NewAnalysisRepository(dbProvider), producer, resumeservice.AnalyzerConfig{
		Async:        queue != nil,
		Topic:        appCfg.Resume.AnalysisTopic,
		HistoryLimit: appCfg.Resume.HistoryLimit,
	})
	if queue != nil {
		if err := analyzerSvc.Subscribe(ctx, queue, appCfg.Kafka.ConsumerGroup); err != nil {
			logger.Error(ctx, "subscribe analysis jobs failed", zap.Error(err))
			return
		}
		if err := queue.Start(); err != nil {
			logger.Error(ctx, "start analysis consumer failed", zap.Error(err))
			return
		}
	}

	interviewSvc := interviewservice.NewInterviewService(
		dbProvider,
		interviewrepo.NewInterviewRepository(dbProvider),
		interviewrepo.NewQuestionRepository(dbProvider),
		interviewrepo.NewAnswerRepository(dbProvider),
		aiSvc,
		resumeSvc,
		authSvc,
		objStorage,
		interviewservice.Config{
			ReportPrefix:   appCfg.Interview.ReportPrefix,
			ArchiveReports: appCfg.Interview.ArchiveReports,
		},
	)
	voiceSvc := voiceservice.NewVoiceService(interviewSvc, aiSvc)

	healthDeps := map[string]health.Pinger{"db": mysqlDB, "redis": redisCache}
	if queue != nil {
		healthDeps["mq"] = queue
	}
	handlers := controllers{
		auth:       usercontroller.NewAuthController(authSvc),
		compiler:   compilercontroller.NewCompilerController(compilerSvc),
		resume:     resumecontroller.NewResumeController(resumeSvc),
		analyzer:   resumecontroller.NewAnalyzerController(analyzerSvc),
		interview:  interviewcontroller.NewInterviewController(interviewSvc),
		voice:      voicecontroller.NewVoiceController(voiceSvc),
		authSvc:    authSvc,
		limiter:    commonmw.NewRateLimiter(redisCache, appCfg.RateLimit.Execute.Window, appCfg.RateLimit.RedisTimeout),
		healthDeps: healthDeps,
	}

	httpServer := buildHTTPServer(appCfg, handlers)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(ctx, "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "interview http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("compiler_provider", appCfg.Compiler.Provider),
			zap.Bool("async_analysis", queue != nil),
		)
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
	if queue != nil {
		_ = queue.Stop()
	}
}

func buildObjectStorage(ctx context.Context, cfg storage.MinIOConfig) (storage.ObjectStorage, error) {
	if cfg.Endpoint == "" {
		logger.Warn(ctx, "minio endpoint not configured, keeping objects in memory")
		return storage.NewMemoryStorage(), nil
	}
	minioStorage, err := storage.NewMinIOStorage(cfg)
	if err != nil {
		return nil, err
	}
	if err := minioStorage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return minioStorage, nil
}

func buildExecutor(cfg CompilerConfig) (compilerservice.Executor, error) {
	switch cfg.Provider {
	case providerJudge0:
		return compilerclient.NewJudge0Client(cfg.Judge0)
	default:
		return compilerclient.NewCodapiClient(cfg.Codapi)
	}
}

func buildQueue(cfg KafkaConfig) (mq.MessageQueue, error) {
	if len(cfg.Brokers) == 0 {
		logger.Warn(context.Background(), "kafka brokers not configured, analysis jobs run in-process")
		return mq.NewMemoryQueue(cfg.MemoryBuffer), nil
	}
	return mq.NewKafkaQueue(cfg.KafkaConfig)
}

func buildHTTPServer(cfg *AppConfig, h controllers) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(commonmw.CORSMiddleware(cfg.CORS))
	router.Use(commonmw.RequestLogger())

	router.GET("/health", health.Handler(h.healthDeps, 0))

	requireAuth := commonmw.AuthMiddleware(h.authSvc, false)
	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", h.auth.Register)
	auth.POST("/login", h.auth.Login)
	auth.POST("/logout", requireAuth, h.auth.Logout)
	auth.GET("/me", requireAuth, h.auth.Me)

	executeLimit := commonmw.RateLimitMiddleware(h.limiter, "compiler", cfg.RateLimit.Execute, pkgerrors.ExecutionTooFrequent)
	compiler := api.Group("/compiler", requireAuth)
	compiler.GET("/languages", h.compiler.Languages)
	compiler.POST("/execute", executeLimit, h.compiler.Execute)
	compiler.POST("/test", executeLimit, h.compiler.Test)

	resume := api.Group("/resume", requireAuth)
	resume.POST("/upload", h.resume.Upload)
	resume.GET("/list", h.resume.List)

	analyzer := api.Group("/resume-analyzer", requireAuth)
	analyzer.POST("/analyze", h.analyzer.Analyze)
	analyzer.GET("/history", h.analyzer.History)

	interview := api.Group("/interview", requireAuth)
	interview.POST("/start", h.interview.Start)
	interview.POST("/start-with-resume", h.interview.StartWithResume)
	interview.GET("/history", h.interview.History)
	interview.POST("/:id/answer", h.interview.Answer)
	interview.POST("/:id/finish", h.interview.Finish)
	interview.GET("/:id", h.interview.Detail)
	interview.GET("/:id/download-pdf", h.interview.DownloadPDF)

	voice := api.Group("/voice-interview")
	voice.GET("/ws", commonmw.AuthMiddleware(h.authSvc, true), h.voice.Stream)
	voice.POST("/process", requireAuth, h.voice.Process)
	voice.POST("/chat", requireAuth, h.voice.Chat)
	voice.GET("/:questionId/text", requireAuth, h.voice.QuestionText)

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
