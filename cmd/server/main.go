package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	persistlog "transitcraft.sim/internal/persistence/log"
	"transitcraft.sim/internal/persistence/savedb"
	"transitcraft.sim/internal/persistence/snapshot"
	"transitcraft.sim/internal/sim/catalogs"
	"transitcraft.sim/internal/sim/tuning"
	"transitcraft.sim/internal/sim/world"
	"transitcraft.sim/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "configs", "catalog directory")
		tuningPath = flag.String("tuning", "configs/tuning.yaml", "tuning file")
		dataDir    = flag.String("data", "data", "persistent data directory")
		worldID    = flag.String("world", "city-1", "world id")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "world seed")
		resume     = flag.String("resume", "", "save slot to resume from")
		autosave   = flag.Duration("autosave", 10*time.Minute, "autosave interval (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.LUTC)

	cat, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("catalogs: %v", err)
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Printf("tuning: %v (using defaults)", err)
		tune = tuning.Defaults()
	}

	saves, err := savedb.Open(filepath.Join(*dataDir, "saves.db"))
	if err != nil {
		logger.Fatalf("savedb: %v", err)
	}
	defer saves.Close()

	var w *world.World
	if *resume != "" {
		snap, err := saves.Load(*resume)
		if err != nil {
			logger.Fatalf("resume: %v", err)
		}
		w = world.Resume(snap, cat, tune)
		logger.Printf("resumed world %s from slot %q (%d hours played)",
			snap.WorldID, *resume, snap.HoursRun)
	} else {
		w = world.New(world.WorldConfig{ID: *worldID, Seed: *seed}, cat, tune)
		logger.Printf("new world %s seed=%d", *worldID, *seed)
	}

	worldDir := filepath.Join(*dataDir, w.ID())
	hourLog := persistlog.NewHourLogger(worldDir)
	defer hourLog.Close()
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer auditLog.Close()

	w.OnHour(func(e world.HourLogEntry) {
		if err := hourLog.WriteHour(e); err != nil {
			logger.Printf("hour log: %v", err)
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The world outlives the signal context: it has to keep serving reads
	// until the final save below has exported its state.
	worldCtx, stopWorld := context.WithCancel(context.Background())
	defer stopWorld()
	go w.Run(worldCtx)

	if *autosave > 0 {
		go autosaveLoop(ctx, w, saves, *autosave, logger)
	}

	wsServer := ws.NewServer(w, logger, auditLog)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/state", func(rw http.ResponseWriter, r *http.Request) {
		var out any
		if err := w.View(r.Context(), func(w *world.World) {
			out = w.StateSummary()
		}); err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(out)
	})
	mux.HandleFunc("/save", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(rw, "POST only", http.StatusMethodNotAllowed)
			return
		}
		slot := r.URL.Query().Get("slot")
		if slot == "" {
			slot = "manual"
		}
		if err := saveWorld(r.Context(), w, saves, slot); err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/saves", func(rw http.ResponseWriter, _ *http.Request) {
		slots, err := saves.List()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(slots)
	})

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http: %v", err)
	}

	// Final save on the way out, then stop the world loop.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	if err := saveWorld(saveCtx, w, saves, "auto"); err != nil {
		logger.Printf("final save: %v", err)
	} else {
		logger.Printf("world saved to slot \"auto\"")
	}
	stopWorld()
}

func autosaveLoop(ctx context.Context, w *world.World, saves *savedb.SaveDB, every time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := saveWorld(ctx, w, saves, "auto"); err != nil {
				logger.Printf("autosave: %v", err)
			}
		}
	}
}

func saveWorld(ctx context.Context, w *world.World, saves *savedb.SaveDB, slot string) error {
	// Export on the world goroutine, write to sqlite off it.
	var snap *snapshot.V1
	var balance, satisfaction float64
	if err := w.View(ctx, func(w *world.World) {
		snap = w.Export()
		balance = w.Balance()
		satisfaction = w.Satisfaction()
	}); err != nil {
		return err
	}
	return saves.Save(slot, snap, balance, satisfaction)
}
