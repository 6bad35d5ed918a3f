package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sevens-lite/apps/server/internal/bus"
	"sevens-lite/apps/server/internal/config"
	"sevens-lite/apps/server/internal/gateway"
	"sevens-lite/apps/server/internal/lobby"
	"sevens-lite/apps/server/internal/logging"
	"sevens-lite/apps/server/internal/metrics"
	"sevens-lite/apps/server/internal/table"
	"sevens-lite/sevens/npc"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config and environment)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("info", true, nil)
		bootLogger := logging.Component("server")
		bootLogger.Fatal().Err(err).Msg("Failed to load config")
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Console, nil)
	logger := logging.Component("server")

	registry := npc.NewDefaultRegistry()
	if cfg.NPC.Personas != "" {
		if err := registry.LoadFromFile(cfg.NPC.Personas); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.NPC.Personas).Msg("Failed to load personas")
		}
	}
	npcOpts := cfg.NPCOptions()
	npcLogger := logging.Component("npc::manager")
	npcOpts.Logger = &npcLogger
	npcManager := npc.NewManager(registry, npcOpts)

	var hooks []table.RoundEndHook
	if cfg.Nats.URL != "" {
		nc, err := bus.Connect(cfg.Nats.URL, "sevens-server")
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Close()
		hooks = append(hooks, bus.NewRoundPublisher(nc, cfg.Nats.Subject).OnRoundEnd)
		logger.Info().Str("url", cfg.Nats.URL).Str("subject", cfg.Nats.Subject).Msg("Publishing rounds to NATS")
	}

	lby := lobby.New(cfg.TableConfig(), npcManager, hooks...)
	gw := gateway.New(lby, cfg.GatewayOptions())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go lby.Run(ctx, cfg.Lobby.SweepInterval, cfg.Lobby.IdleTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Int("maxSeats", cfg.Table.MaxSeats).
			Int("personas", registry.Count()).
			Msg("Starting WebSocket server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown")
	}
	gw.CloseAll()
	lby.Close()
}
