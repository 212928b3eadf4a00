package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/nft-studio-backend/config"
	httpapi "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth"
	authmw "github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/batches"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/generation"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	nfthttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/http"
	nftrepo "github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/repository"
	nftservice "github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/service"
	projecthttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/http"
	projectrepo "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/repository"
	projectservice "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/storage/objectstore"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/sweeper"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

const serviceName = "nft-studio-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to open project database")
	}
	defer pool.Close()

	sqlDB, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to open nft database")
	}
	defer sqlDB.Close()

	health := map[string]httpapi.Pinger{
		"postgres": httpapi.PingFunc(pool.Ping),
		"redis":    nil,
		"storage":  nil,
	}

	// Batch progress lives in redis; without it batches run untracked and
	// the batch routes are not registered.
	var runs batches.Store
	var runReader nfthttp.RunStore
	redisClient, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis unavailable, batch progress disabled")
	} else {
		defer redisClient.Close()
		repo := batches.NewRepository(redisClient)
		runs, runReader = repo, repo
		health["redis"] = httpapi.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var reader assets.ObjectReader
	var writer assets.ObjectWriter
	if cfg.Storage.Bucket != "" {
		store, err := objectstore.NewS3Store(ctx, &cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to init object store")
		}
		reader, writer = store, store
		health["storage"] = httpapi.PingFunc(func(ctx context.Context) error {
			_, err := store.Get(ctx, ".health")
			if errors.Is(err, objectstore.ErrObjectNotFound) {
				return nil
			}
			return err
		})
	}
	resolver := assets.NewResolver(reader, assets.Options{})
	sink := assets.NewSink(writer)

	var analyzer generation.LayerAnalyzer
	var generator generation.ImageGenerator = generation.Unavailable{}
	if cfg.AI.APIKey != "" {
		gemini, err := generation.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.ImageModel, cfg.AI.TextModel, cfg.Imaging.CanvasSize)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to init gemini client")
		}
		analyzer = gemini
		generator = generation.RateLimited(gemini, cfg.AI.RequestsPerMinute)
	} else {
		logger.Log.Warn().Msg("GEMINI_API_KEY not set, image generation disabled")
	}

	extract := imaging.DefaultExtractOptions()
	if bg, err := imaging.ParseHexColor(cfg.Imaging.BackgroundHex); err == nil {
		extract.Background = bg
	} else {
		logger.Log.Warn().Err(err).Str("value", cfg.Imaging.BackgroundHex).Msg("invalid SPRITE_BACKGROUND, using default")
	}
	extract.Tolerance = cfg.Imaging.Tolerance
	extract.MinRegionPixels = cfg.Imaging.MinRegionPixels
	extract.Stride = cfg.Imaging.ScanStride
	extract.Padding = cfg.Imaging.Padding

	policy, err := projectservice.ParseBatchPolicy(cfg.Batch.PartialPolicy)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid batch policy")
	}

	projectRepo := projectrepo.NewProjectRepository(pool)
	nftRepo := nftrepo.NewNFTRepository(sqlDB)

	projectSvc := projectservice.NewProjectService(projectRepo, analyzer, generator, sink, projectservice.Options{
		CanvasSize: cfg.Imaging.CanvasSize,
		Extract:    extract,
		Policy:     policy,
		Workers:    cfg.Batch.Workers,
	})
	assembler := nftservice.NewAssembler(projectRepo, nftRepo, resolver, sink, runs, nftservice.Options{
		Workers:     cfg.Batch.Workers,
		MaxVariants: cfg.Batch.MaxVariants,
	})

	var authMW gin.HandlerFunc
	if cfg.Firebase.Enabled {
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to init firebase")
		}
		authMW = authmw.FirebaseAuthMiddleware(client)
	} else {
		logger.Log.Warn().Msg("firebase disabled, requests act as X-User-Id or the demo user")
		authMW = auth.OptionalUser()
	}

	limiter := middleware.NewIPRateLimiter(cfg.AI.RequestsPerMinute*2, 5)
	go limiter.Run(ctx)

	sweep := sweeper.NewScheduler(projectRepo, cfg.Batch.StaleAfter, "")
	if err := sweep.Start(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to start sweeper")
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         health,
		Auth:           authMW,
		GenerateLimit:  limiter,
		Projects:       projecthttp.New(projectSvc),
		NFTs:           nfthttp.New(assembler, runReader, "/api/v1"),
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Generation and batch streams hold responses open well past the
		// usual write deadline.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("env", cfg.App.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("server forced to shutdown")
	}

	sweep.Stop()
	stop()

	done := make(chan struct{})
	go func() {
		assembler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Log.Warn().Msg("background batches still running at exit")
	}

	logger.Log.Info().Msg("server exited")
}
