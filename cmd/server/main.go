package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/game/loot"
	"runegate.gg/internal/game/realm"
	"runegate.gg/internal/game/tuning"
	"runegate.gg/internal/persistence/auditlog"
	"runegate.gg/internal/persistence/chardb"
	"runegate.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		realmID    = flag.String("realm", "realm_1", "realm id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		lootSeed   = flag.Int64("loot_seed", 0, "loot rng seed (0 = time-based)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	realmDir := filepath.Join(*dataDir, "realms", *realmID)
	_ = os.MkdirAll(realmDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	charDB, err := chardb.Open(filepath.Join(realmDir, "characters.db"), tune.CharDBQueue)
	if err != nil {
		logger.Fatalf("open chardb: %v", err)
	}
	defer charDB.Close()

	lootStore, err := loot.OpenBolt(filepath.Join(realmDir, "loot.db"))
	if err != nil {
		logger.Fatalf("open loot store: %v", err)
	}
	defer lootStore.Close()

	auditLog := auditlog.New(realmDir)
	defer auditLog.Close()

	reg := prometheus.NewRegistry()
	metrics := realm.NewMetrics(reg)

	r, err := realm.New(realm.RealmConfig{
		ID:         *realmID,
		TickRateHz: tune.TickRateHz,
		InboxSize:  tune.InboxSize,
	}, cats,
		realm.WithGiftStore(charDB),
		realm.WithLootStore(lootStore),
		realm.WithAuditLogger(auditLog),
		realm.WithMetrics(metrics),
		realm.WithLogger(logger),
		realm.WithLootSeed(*lootSeed),
	)
	if err != nil {
		logger.Fatalf("realm: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := r.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("realm stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/v1/ws", ws.NewServer(r, ws.Config{
		ReadDeadline:  time.Duration(tune.WSReadDeadlineSec) * time.Second,
		WriteDeadline: time.Duration(tune.WSWriteDeadlineSec) * time.Second,
		OutQueue:      tune.OutboundQueue,
	}, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("realm %s listening on %s", *realmID, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
