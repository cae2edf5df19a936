// README: Offline demo; plans a sample trip on the static adapters and prints JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"atlas/internal/adapters"
	"atlas/internal/config"
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
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(true)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	loc, err := time.LoadLocation(cfg.Region.Timezone)
	if err != nil {
		log.Fatal(err)
	}

	static := &adapters.StaticPOI{Candidates: adapters.DemoCandidates()}
	reg := orchestrate.Registry{
		Weather: &adapters.StaticWeather{Report: adapters.WeatherReport{
			Condition: "多云", TemperatureC: 22, PrecipitationPr: 0.2,
			Recommendation: "适合户外活动",
		}},
		Crowd: &adapters.StaticCrowd{
			ByLocation: map[string]adapters.CrowdInfo{
				"外滩": {Level: adapters.CrowdHigh, BestTimeWindow: "上午9-11点", PeakHours: []string{"晚上7-9点"}},
			},
			Default: adapters.CrowdInfo{Level: adapters.CrowdMedium, BestTimeWindow: "上午9-11点或下午3-5点"},
		},
		Traffic: &adapters.StaticTraffic{Info: adapters.TrafficInfo{
			CongestionLevel: "畅通", Advisory: "建议乘坐地铁出行", BestRoute: "地铁",
		}},
		POI:        static,
		Navigation: &adapters.StaticNavigation{Leg: 25 * time.Minute},
	}

	extractor, err := intent.NewService(cfg.Budget)
	if err != nil {
		log.Fatal(err)
	}

	pl := planner.New(planner.Deps{
		Extractor: extractor,
		Resolver:  resolve.NewService(static, logger),
		Orch:      orchestrate.NewService(reg, cfg.Region.City, cfg.Region.Hint, cfg.Adapter.RunDeadline, logger),
		Scorer:    scoring.NewService(cfg.Scoring),
		Assembler: itinerary.NewAssembler(cfg.Assembler, loc),
		Assembly:  cfg.Assembler,
		Region:    cfg.Region,
		Logger:    logger,
	})
	refiner := refine.NewService(extractor, pl.Run, cfg.Refine.MaxIterations, logger)

	ctx := context.Background()

	plan, err := pl.Plan(ctx, planner.Request{
		Text: "带女朋友去外滩和豫园玩2天，想要浪漫一点，不想人多",
	})
	if err != nil {
		log.Fatal(err)
	}
	printPlan("初始方案", plan)

	refined, err := refiner.Refine(ctx, plan, "第二天想去点小众的地方", plan.Intent)
	if err != nil {
		log.Fatal(err)
	}
	printPlan("反馈后方案", refined)
}

func printPlan(title string, plan *itinerary.TravelPlan) {
	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("=== %s ===\n%s\n", title, out)
}
