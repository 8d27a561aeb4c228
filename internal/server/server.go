package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/bmaxza/tender-assistant/config"
	"github.com/bmaxza/tender-assistant/internal/chat"
	"github.com/bmaxza/tender-assistant/internal/corpus"
	"github.com/bmaxza/tender-assistant/internal/matcher"
	"github.com/bmaxza/tender-assistant/models"
	"github.com/bmaxza/tender-assistant/profile"
	"github.com/bmaxza/tender-assistant/provider"
	"github.com/bmaxza/tender-assistant/session/inmemory"
	"github.com/bmaxza/tender-assistant/tenders"
	"github.com/bmaxza/tender-assistant/tenders/tenderapi"
)

// preferredCategoryWeight is the boost each preferred-category token earns.
const preferredCategoryWeight = 1.5

// Run assembles the assistant and serves HTTP until the listener fails.
func Run(cfg *appconfig.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	// Initialize shared dependencies (top-level DI)
	corpusStore := corpus.NewStore()

	profiles := profile.NewClient(cfg.Profiles.Endpoint, cfg.Profiles.Timeout)
	sessions := inmemory.NewStore(inmemory.Options{
		TTL:        cfg.Sessions.TTL,
		MaxContext: cfg.Sessions.MaxContext,
		Profiles: func(userID string) models.Profile {
			p, err := profiles.Lookup(context.Background(), userID)
			if err != nil {
				baseLogger.Printf("profile lookup for %s: %v", userID, err)
			}
			return p
		},
		Weights: PreferenceWeights,
	})

	phrasing, err := provider.NewProvider(cfg.Phrasing)
	if err != nil {
		return fmt.Errorf("init phrasing provider: %w", err)
	}

	assistant := chat.NewAssistant(corpusStore, sessions, phrasing)

	feed := tenderapi.NewClient(cfg.Tenders.Endpoint, cfg.Tenders.APIKey, cfg.Tenders.PageSize, cfg.Tenders.Timeout)
	retriever := tenders.NewRetriever(feed)

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Redis.Host, cfg.Redis.Port, err)
		}
	}

	sched := &Scheduler{
		Corpus:     corpusStore,
		Retriever:  retriever,
		Sessions:   sessions,
		Rdb:        rdb,
		Tenders:    cfg.Tenders,
		SweepEvery: cfg.Sessions.SweepInterval,
		Stop:       make(chan struct{}),
	}
	sched.Start()
	defer close(sched.Stop)

	h := &Handler{Assistant: assistant, Corpus: corpusStore, Sessions: sessions}
	h.Register(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if addr == "" {
		addr = cfg.General.Listen
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":8000"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// PreferenceWeights maps each token of the user's preferred categories to a
// fixed additive boost.
func PreferenceWeights(p models.Profile) map[string]float64 {
	weights := make(map[string]float64)
	for _, cat := range p.PreferredCategories {
		for _, tok := range matcher.Tokenize(cat) {
			weights[tok] = preferredCategoryWeight
		}
	}
	return weights
}
