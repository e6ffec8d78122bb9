package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/cache"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/db"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/email"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/storage"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	if err := db.EnsureIndexes(context.Background(), mongoDb); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	imageStorage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	emailSender := email.NewSMTPSender(cfg)

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()
	dispatcher := tasks.NewDispatcher(taskClient)

	locker := cache.NewRedisLocker(redisClient)

	accountService := services.NewAccountService(mongoDb, cfg)
	listingService := services.NewListingService(mongoDb, cfg, imageStorage, dispatcher)
	availabilityService := services.NewAvailabilityService(mongoDb, listingService)
	bookingService := services.NewBookingService(mongoDb, cfg, listingService, accountService, availabilityService, imageStorage, locker, dispatcher)
	reportService := services.NewReportService(bookingService, listingService)

	var wg sync.WaitGroup
	var apiSrv *http.Server
	var taskSrv *asynq.Server

	fmt.Printf("Starting %s in '%s' mode...\n", cfg.AppName, cfg.RunMode)

	apiMode := func() {
		router := api.SetupRouter(cfg, api.Services{
			Accounts: accountService,
			Listings: listingService,
			Bookings: bookingService,
			Reports:  reportService,
		})
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	bgMode := func() {
		processor := tasks.NewTaskProcessor(cfg, emailSender, imageStorage)
		srv, mux := tasks.SetupServer(redisClient, processor)
		taskSrv = srv
		if err := taskSrv.Start(mux); err != nil {
			log.Fatalf("Failed to start task server: %v", err)
		}
		fmt.Println("Background task server started.")
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode: %s", cfg.RunMode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	fmt.Println("Server gracefully stopped")
}
