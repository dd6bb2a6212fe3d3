package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/oriolus/dwell/internal/api"
	"github.com/oriolus/dwell/internal/cache"
	"github.com/oriolus/dwell/internal/config"
	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/dispatch"
	"github.com/oriolus/dwell/internal/events"
	"github.com/oriolus/dwell/internal/handler"
	"github.com/oriolus/dwell/internal/jobs"
	"github.com/oriolus/dwell/internal/repository"
	"github.com/oriolus/dwell/internal/service"
)

func main() {
	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	db := database.GetDB()

	currentCache := cache.NewCurrentPlaceCache(cfg.RedisAddr, cfg.RedisPassword, 24*time.Hour)
	defer currentCache.Close()

	hub := events.NewHub()
	go hub.Run()

	placeRepo := repository.NewPlaceRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	tagRepo := repository.NewTagRepository(db)
	triggerRepo := repository.NewTriggerRepository(db)
	listRepo := repository.NewListRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	routineRepo := repository.NewRoutineRepository(db)

	dispatcher := dispatch.NewLogDispatcher()
	tracker := service.NewVisitTracker(
		db,
		placeRepo,
		visitRepo,
		locationRepo,
		triggerRepo,
		dispatcher,
		hub,
		currentCache,
		cfg.MaxAccuracyM,
	)

	cacheTTL := time.Duration(cfg.CacheTTLMin) * time.Minute
	locationService := service.NewLocationService(locationRepo, tracker)
	placeService := service.NewPlaceService(placeRepo, visitRepo, routineRepo, currentCache, tracker, cfg.DefaultRadiusM)
	discoveryService := service.NewPlaceDiscoveryService(
		locationRepo,
		placeRepo,
		suggestionRepo,
		cfg.DiscoveryDays,
		cfg.DiscoveryMinVisits,
		cfg.ClusterRadiusM,
		time.Duration(cfg.OccurrenceGapMin)*time.Minute,
		cacheTTL,
	)
	routineService := service.NewRoutineService(
		visitRepo,
		placeRepo,
		routineRepo,
		cfg.RoutineDays,
		cfg.RoutineMinOccurrence,
		cfg.RoutineMinConfidence,
		cacheTTL,
	)
	tagService := service.NewTagService(tagRepo, placeRepo)
	triggerService := service.NewTriggerService(triggerRepo, placeRepo)
	listService := service.NewListService(listRepo, placeRepo)

	if lat, lon, ok := cfg.ParseHomeLocation(); ok {
		if err := placeService.EnsureHomePlace(cfg.DefaultUser, lat, lon); err != nil {
			log.Printf("Failed to seed home place: %v", err)
		}
	}

	runner := jobs.NewRunner(db)
	runner.Register(jobs.NewDiscoveryJob(db, discoveryService, cfg.DiscoveryDays))
	runner.Register(jobs.NewRoutineJob(db, routineService, cfg.RoutineDays))
	runner.Register(jobs.NewRetentionJob(db, locationRepo, cfg.FixRetentionDays))

	scheduler := service.NewSchedulerService(
		runner,
		time.Duration(cfg.DiscoveryRefreshMin)*time.Minute,
		time.Duration(cfg.RoutineRefreshMin)*time.Minute,
		time.Duration(cfg.RetentionSweepMin)*time.Minute,
	)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}

	router := api.NewRouter(api.Handlers{
		Places:    handler.NewPlaceHandler(placeService, tagService),
		Locations: handler.NewLocationHandler(locationService),
		Discovery: handler.NewDiscoveryHandler(discoveryService),
		Routines:  handler.NewRoutineHandler(routineService),
		Tags:      handler.NewTagHandler(tagService),
		Triggers:  handler.NewTriggerHandler(triggerService),
		Lists:     handler.NewListHandler(listService),
		Jobs:      handler.NewJobHandler(runner),
	}, hub, cfg.DefaultUser)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-ID"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           corsHandler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	scheduler.Stop()
	hub.Stop()

	log.Println("Server stopped cleanly")
}
