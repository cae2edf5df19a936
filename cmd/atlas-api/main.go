// README: Entry point; loads config, wires adapters and planner, starts HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"atlas/internal/adapters"
	"atlas/internal/ai"
	"atlas/internal/config"
	httptransport "atlas/internal/http"
	"atlas/internal/infra"
	"atlas/internal/modules/intent"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/orchestrate"
	"atlas/internal/modules/refine"
	"atlas/internal/modules/resolve"
	"atlas/internal/modules/scoring"
	"atlas/internal/planner"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := infra.NewLogger(os.Getenv("ATLAS_ENV") != "production")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	loc, err := time.LoadLocation(cfg.Region.Timezone)
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	weatherCache := adapters.NewCache(redisClient, "weather", cfg.Adapter.CacheTTL)
	crowdCache := adapters.NewCache(redisClient, "crowd", cfg.Adapter.CacheTTL)
	poiCache := adapters.NewCache(redisClient, "poi", cfg.Adapter.CacheTTL)

	reg := orchestrate.Registry{
		Weather: adapters.NewWeatherAdapter(cfg.Services.WeatherURL, cfg.Region.City, cfg.Adapter, weatherCache, logger),
		Crowd:   adapters.NewCrowdAdapter(cfg.Services.CrowdURL, cfg.Region.City, cfg.Adapter, crowdCache, logger),
		Traffic: adapters.NewTrafficAdapter(cfg.Services.TrafficURL, cfg.Region.City, cfg.Adapter, logger),
	}

	var suggester resolve.Suggester
	if cfg.Maps.APIKey != "" {
		poiAdapter, err := adapters.NewPOIAdapter(cfg.Maps.APIKey, cfg.Region.City, cfg.Adapter, poiCache, logger)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		navAdapter, err := adapters.NewNavigationAdapter(cfg.Maps.APIKey, cfg.Adapter, logger)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		reg.POI = poiAdapter
		reg.Navigation = navAdapter
		suggester = poiAdapter
	} else {
		logger.Warn("MAPS_API_KEY not set, running on built-in demo places")
		static := &adapters.StaticPOI{Candidates: adapters.DemoCandidates()}
		reg.POI = static
		reg.Navigation = &adapters.StaticNavigation{}
		suggester = static
	}

	var narrator ai.Narrator
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiNarrator(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer gemini.Close()
		narrator = gemini
	}

	extractor, err := intent.NewService(cfg.Budget)
	if err != nil {
		log.Fatalf("intent taxonomy: %v", err)
	}

	pl := planner.New(planner.Deps{
		Extractor: extractor,
		Resolver:  resolve.NewService(suggester, logger),
		Orch:      orchestrate.NewService(reg, cfg.Region.City, cfg.Region.Hint, cfg.Adapter.RunDeadline, logger),
		Scorer:    scoring.NewService(cfg.Scoring),
		Assembler: itinerary.NewAssembler(cfg.Assembler, loc),
		Narrator:  narrator,
		Store:     planner.NewStore(dbPool),
		Assembly:  cfg.Assembler,
		Region:    cfg.Region,
		Logger:    logger,
	})
	pl.AttachRefiner(refine.NewService(extractor, pl.Run, cfg.Refine.MaxIterations, logger))

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Plans:   pl,
		Refiner: pl,
		Logger:  logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
