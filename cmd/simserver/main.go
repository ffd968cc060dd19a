package main

import (
	"context"
	"flag"
	"fmt"
	stdLog "log"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/ashenforge/slimewar/pkg/engine"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to file")
	configFile = flag.String("config", "config.json", "path to the simulation config file")
	schemaFile = flag.String("schema", "config_schema.json", "path to the config json schema")
	metricsAddr = flag.String("metrics-addr", ":2112", "address to serve /metrics on")
	frames      = flag.Int("frames", 0, "stop after this many ticks (0 runs until a winner is decided)")
)

func buildLogger(cfg *engine.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if strings.ToLower(cfg.LogFormat) == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zapCfg.Build()
}

// demoScene stands in for the scene file a real deployment would load
// from disk; the engine's scene type is deliberately plain data so a
// driver can build it however its own layout format demands.
func demoScene() *engine.Scene {
	return &engine.Scene{
		Teams: []engine.TeamSpec{
			{Name: "crimson", AllianceID: 0},
			{Name: "azure", AllianceID: 1},
		},
		Bases: []engine.SceneBase{
			{TeamID: 0, Shape: engine.ShapeY, Origin: engine.Cell{Row: 40, Col: 40}, Scale: 1.5},
			{TeamID: 1, Shape: engine.ShapeN, Origin: engine.Cell{Row: 200, Col: 260}, Scale: 1.5},
		},
		Seed: 1,
	}
}

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			stdLog.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			stdLog.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := engine.LoadConfig(*configFile, *schemaFile)
	if err != nil {
		stdLog.Fatalf("failed to load config: %v", err)
	}
	if *frames > 0 {
		cfg.TotalFrames = *frames
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		stdLog.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	metrics := engine.NewMetrics(registry)

	sim, err := engine.NewSimulation(demoScene(), cfg, logger, metrics)
	if err != nil {
		logger.Fatal("failed to construct simulation", zap.Error(err))
	}

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		logger.Info("serving metrics", zap.String("addr", *metricsAddr))
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Limit(cfg.FPS), 1)

	fmt.Printf("running simulation at %.0f ticks/sec\n", cfg.FPS)
	for {
		if err := limiter.Wait(ctx); err != nil {
			logger.Fatal("rate limiter wait failed", zap.Error(err))
		}
		snap, err := sim.Step(ctx)
		if err != nil {
			logger.Fatal("step failed", zap.Error(err))
		}
		if snap.Winner.Decided {
			logger.Info("match decided",
				zap.Uint64("tick", snap.Tick),
				zap.Uint8("winner", snap.Winner.TeamID),
				zap.String("reason", snap.Winner.Reason),
			)
			break
		}
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			stdLog.Fatal("could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			stdLog.Fatal("could not write memory profile: ", err)
		}
	}
}
