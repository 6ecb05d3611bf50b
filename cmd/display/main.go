package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"led-display/internal/broadcast"
	"led-display/internal/config"
	database "led-display/internal/db"
	"led-display/internal/display"
	"led-display/internal/engine"
	"led-display/internal/models"
	"led-display/internal/store"
)

// The display is a passive context: it never edits, it only pulls. The
// rotation renders whatever the engine's working document says, broadcasts
// give low-latency pickup, and the periodic resync guarantees convergence
// even when every broadcast is missed.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("📺 Starting Display (passive context)...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	var gdb *gorm.DB
	if cfg.Store.Provider == "db" || cfg.Store.Provider == "" {
		db := database.New(cfg)
		db.AutoMigrate()
		gdb = db.DB
	}

	snapStore, err := store.New(cfg, gdb)
	if err != nil {
		log.Fatalf("❌ Store init failed: %v", err)
	}

	engine.RegisterMetrics()

	// 3. Initial load must complete before anything renders.
	eng := engine.NewEngine(snapStore, nil)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := eng.LoadInitial(initCtx); err != nil {
		log.Printf("⚠️ Initial load degraded to defaults: %v", err)
	}
	cancelInit()

	rot := display.NewRotator()
	rot.SetSlides(eng.Snapshot())
	eng.OnChange(func(snap *models.Snapshot) {
		log.Printf("🔄 Document updated (%d slides), refreshing rotation", len(snap.Slides))
		rot.SetSlides(snap)
	})

	// 4. Broadcast channel: low-latency shortcut, not the source of truth.
	caster, err := broadcast.NewFileChannel(
		cfg.Broadcast.Dir,
		cfg.Broadcast.Channel,
		time.Duration(cfg.Broadcast.WatchIntervalMS)*time.Millisecond,
		time.Duration(cfg.Broadcast.ClearAfterMS)*time.Millisecond,
	)
	if err != nil {
		log.Fatalf("❌ Broadcast channel init failed: %v", err)
	}

	resync := func(broadcast.Envelope) {
		syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := eng.SyncFromStore(syncCtx); err != nil {
			log.Printf("⚠️ Broadcast-triggered sync failed: %v", err)
		}
	}
	caster.Subscribe(broadcast.EventSlides, resync)
	caster.Subscribe(broadcast.EventSettings, resync)
	caster.Subscribe(broadcast.EventAPIData, resync)
	caster.Subscribe(broadcast.EventForceReload, func(env broadcast.Envelope) {
		log.Printf("♻️ Force-reload signal from %s, discarding in-memory state", env.Source)
		reloadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := eng.ForceReload(reloadCtx); err != nil {
			log.Printf("⚠️ Reload degraded to defaults: %v", err)
		}
	})

	// 5. Durable fallback path
	eng.StartPeriodicSync(time.Duration(cfg.Sync.ResyncSeconds) * time.Second)

	// 6. Status endpoint for the physical display driver
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"status": "ok", "state": eng.State()})
		})
		http.HandleFunc("/current", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			slide, ok := rot.Current()
			if !ok {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			json.NewEncoder(w).Encode(slide)
		})
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Status server error: %v", err)
		}
	}()

	// 7. Teardown clears all timers.
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("🛑 Display shutting down")
		eng.Stop()
		caster.Close()
		cancel()
	}()

	// 8. Rotation loop (blocking)
	rot.Run(ctx, func(s models.Slide) {
		log.Printf("📺 Now showing [%s] %q for %.0fs", s.Type, s.Name, s.Duration)
	})
}
