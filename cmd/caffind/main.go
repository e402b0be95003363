package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/caffind/caffind/internal/api/http"
	"github.com/caffind/caffind/internal/chat"
	"github.com/caffind/caffind/internal/config"
	"github.com/caffind/caffind/internal/geocode"
	"github.com/caffind/caffind/internal/httpx"
	"github.com/caffind/caffind/internal/identity"
	"github.com/caffind/caffind/internal/poi"
	"github.com/caffind/caffind/internal/refresh"
	"github.com/caffind/caffind/internal/route"
	"github.com/caffind/caffind/internal/scheduler"
	"github.com/caffind/caffind/internal/store"
	"github.com/caffind/caffind/internal/translate"
	"github.com/caffind/caffind/internal/weather"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Provider clients, each behind its own circuit breaker.
	overpass := poi.NewOverpassClient(httpx.New("overpass", httpClient, httpx.DefaultBackoff()), cfg.OverpassURL, cfg.SearchRadiusM)
	openweather := weather.NewOpenWeatherClient(httpx.New("openweather", httpClient, httpx.DefaultBackoff()), "", cfg.OpenWeatherAPIKey)
	osrm := route.NewOSRMClient(httpx.New("osrm", httpClient, httpx.DefaultBackoff()), cfg.OSRMURL)
	translator := translate.NewClient(httpx.New("translator", httpClient, httpx.DefaultBackoff()), cfg.TranslatorURL, cfg.TranslatorTargetLang)
	chatClient := chat.NewClient(httpx.New("chat", httpClient, httpx.DefaultBackoff()), cfg.ChatURL)

	// Nominatim first; Google only when a key is configured.
	geocoders := []geocode.Provider{
		geocode.NewNominatimClient(httpx.New("nominatim", httpClient, httpx.DefaultBackoff()), cfg.NominatimURL),
	}
	if cfg.GoogleAPIKey != "" {
		geocoders = append(geocoders, geocode.NewGoogleClient(cfg.GoogleAPIKey))
	}
	geocoder := geocode.NewChain(geocoders...)

	// Identity provider boundary and session registry.
	identityClient := identity.NewClient(httpClient, cfg.IdentityURL, cfg.IdentityAPIKey)
	sessions := identity.NewRegistry([]byte(cfg.SessionSigningKey))
	sessions.Subscribe(func(user *identity.User) {
		if user == nil {
			log.Println("INFO: session ended")
			return
		}
		log.Printf("INFO: session established for %s", user.Email)
	})

	// In-memory snapshot store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Core orchestrator and the initial refresh at the default center.
	orch := refresh.New(overpass, openweather, memStore, cfg.FetchTimeout)
	orch.Refresh(cfg.DefaultCenter)

	// Scheduler that keeps the current center's snapshot fresh.
	sched := scheduler.New(orch, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "caffind",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "caffind",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Orchestrator:   orch,
		Shops:          overpass,
		Weather:        openweather,
		Geocoder:       geocoder,
		Router:         osrm,
		Translator:     translator,
		Chat:           chatClient,
		Identity:       identityClient,
		Sessions:       sessions,
		Store:          memStore,
		GeocodeTimeout: cfg.GeocodeTimeout,
	})

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
