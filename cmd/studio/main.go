package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"led-display/internal/api"
	"led-display/internal/broadcast"
	"led-display/internal/config"
	database "led-display/internal/db"
	"led-display/internal/engine"
	"led-display/internal/feeds"
	"led-display/internal/models"
	"led-display/internal/store"
)

// The studio is the editor context: it owns the admin API, the debounced
// writer, and the external feed poller.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("🎛️ Starting Display Studio (editor context)...")

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

	// 3. Metrics
	engine.RegisterMetrics()
	feeds.RegisterMetrics()
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 4. Sync engine: establish the working document before serving anything
	guard := engine.NewEditGuard(time.Duration(cfg.Sync.EditHoldSeconds) * time.Second)
	eng := engine.NewEngine(snapStore, guard)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := eng.LoadInitial(initCtx); err != nil {
		log.Printf("⚠️ Initial load degraded to defaults: %v", err)
	}
	cancelInit()

	// 5. Cross-context channel
	caster, err := broadcast.NewFileChannel(
		cfg.Broadcast.Dir,
		cfg.Broadcast.Channel,
		time.Duration(cfg.Broadcast.WatchIntervalMS)*time.Millisecond,
		time.Duration(cfg.Broadcast.ClearAfterMS)*time.Millisecond,
	)
	if err != nil {
		log.Fatalf("❌ Broadcast channel init failed: %v", err)
	}

	// 6. Debounced writer: persisted writes fan out as slide broadcasts;
	// failed writes roll the optimistic document back.
	writer := engine.NewWriter(
		snapStore,
		time.Duration(cfg.Sync.CriticalDelayMS)*time.Millisecond,
		time.Duration(cfg.Sync.QuietWindowSeconds)*time.Second,
	)
	writer.SetBaseline(eng.Snapshot())
	writer.OnSaved(func(snap *models.Snapshot, hash string) {
		eng.MarkPersisted(snap)
		env := broadcast.NewEnvelope(broadcast.EventSlides, map[string]any{"hash": hash}, broadcast.SourceEditor)
		if err := caster.Publish(env); err != nil {
			log.Printf("⚠️ Slide broadcast failed: %v", err)
		}
	})
	writer.OnError(func(err error) {
		log.Printf("❌ Persist failed, reverting optimistic state: %v", err)
		eng.RevertToPersisted()
	})

	// 7. External feeds
	poller := feeds.NewPoller(
		time.Duration(cfg.Feeds.PollMinutes)*time.Minute,
		feeds.NewEmployeeFeed(cfg.Feeds.EmployeesURL, cfg.Feeds.Token, cfg.Feeds.EmployeesEnabled),
		feeds.NewTeamsFeed(cfg.Feeds.TeamsURL, cfg.Feeds.Token, cfg.Feeds.TeamsEnabled),
	)
	poller.OnData(func(data map[string]any) {
		if guard.Active() {
			log.Println("✋ Edit in progress, deferring feed merge to next cycle")
			return
		}
		var changed bool
		snap := eng.Apply(func(s *models.Snapshot) {
			changed = feeds.ApplyFeedData(s, data)
		})
		if !changed {
			return
		}
		log.Println("🔄 Feed data changed, updating dependent slides")
		writer.ScheduleWrite(snap, false)
		env := broadcast.NewEnvelope(broadcast.EventAPIData, map[string]any{"feeds": keysOf(data)}, broadcast.SourceFeed)
		if err := caster.Publish(env); err != nil {
			log.Printf("⚠️ Feed broadcast failed: %v", err)
		}
	})
	poller.Start()

	// 8. Remote edits from other contexts still converge through the store.
	caster.Subscribe(broadcast.EventSlides, func(env broadcast.Envelope) {
		syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := eng.SyncFromStore(syncCtx); err != nil {
			log.Printf("⚠️ Broadcast-triggered sync failed: %v", err)
		}
	})
	eng.StartPeriodicSync(time.Duration(cfg.Sync.ResyncSeconds) * time.Second)

	// 9. Teardown: cancel timers and flush the pending write best-effort.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("🛑 Shutting down, flushing pending writes...")
		poller.Stop()
		eng.Stop()
		if err := writer.Close(); err != nil {
			log.Printf("⚠️ Final flush failed: %v", err)
		}
		caster.Close()
		os.Exit(0)
	}()

	// 10. Start Server
	srv := api.New(cfg, eng, writer, guard, poller, caster)
	log.Printf("🚀 Studio API starting on %s", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
