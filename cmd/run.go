package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"vivolive/config"
	"vivolive/database"
	"vivolive/events"
	"vivolive/repository"
	"vivolive/server"
	"vivolive/service"
)

const (
	bagSweepInterval   = time.Minute
	comboPruneInterval = 5 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting vivolive server...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	// First boot on an empty schema gets a default catalog
	if err := database.SeedCatalogs(ctx, db); err != nil {
		return fmt.Errorf("failed to seed catalogs: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	settingsService := service.NewSettingsService(uowFactory)
	userService := service.NewUserService(uowFactory)
	roomService := service.NewRoomService(uowFactory, settingsService)
	comboTracker := service.NewComboTracker()
	giftService := service.NewGiftService(uowFactory, settingsService, comboTracker)
	gameService := service.NewGameService(uowFactory, settingsService)
	luckyBagService := service.NewLuckyBagService(uowFactory)
	adminService := service.NewAdminService(uowFactory)
	log.Println("Services initialized successfully")

	// Initialize websocket hub and wire it to the event bus
	hub := server.NewHub()
	hub.Subscribe(eventBus)
	go hub.Run(ctx)

	// Background workers: lucky bag refunds and combo table pruning
	go runBagSweeper(ctx, luckyBagService)
	go runComboPruner(ctx, comboTracker)

	handlers := &server.Handlers{
		Users:    userService,
		Rooms:    roomService,
		Gifts:    giftService,
		Games:    gameService,
		Bags:     luckyBagService,
		Settings: settingsService,
		Admin:    adminService,
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.NewRouter(cfg, handlers, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s in %s mode...", cfg.ListenAddr, cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down http server: %v", err)
	}

	log.Println("Shutdown completed")
	return nil
}

// runBagSweeper refunds expired lucky bags on a fixed interval.
func runBagSweeper(ctx context.Context, bags service.LuckyBagService) {
	ticker := time.NewTicker(bagSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			refunded, err := bags.ExpireOverdue(ctx, now)
			if err != nil {
				log.Printf("Lucky bag sweep failed: %v", err)
				continue
			}
			if refunded > 0 {
				log.Printf("Refunded %d expired lucky bags", refunded)
			}
		case <-ctx.Done():
			return
		}
	}
}

// runComboPruner drops expired combo entries so the table stays bounded.
func runComboPruner(ctx context.Context, combos *service.ComboTracker) {
	ticker := time.NewTicker(comboPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			combos.Prune()
		case <-ctx.Done():
			return
		}
	}
}
