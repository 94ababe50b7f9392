package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"card-battle-server/api"
	"card-battle-server/catalog"
	"card-battle-server/config"
	"card-battle-server/loghandler"
	"card-battle-server/registry"
	"card-battle-server/session"
	"card-battle-server/storage"
	"card-battle-server/ws"
)

const reaperInterval = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found; using environment variables.")
	}

	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, slog.LevelInfo)))

	cfg := config.Load()
	log.Printf("Configuration: DeckSize=%d, RoundLimit=%d, WSPort=%d, SnapshotMinIntervalMS=%d, WaitingIdleTimeoutSec=%d",
		cfg.DeckSize, cfg.RoundLimit, cfg.WSPort, cfg.SnapshotMinIntervalMS, cfg.WaitingIdleTimeoutSec)

	// Card catalog: built-in set unless a cards file is configured.
	cat := catalog.Default()
	if cfg.CardsFile != "" {
		loaded, err := catalog.LoadFile(cfg.CardsFile)
		if err != nil {
			log.Fatalf("loading card catalog from %s: %v", cfg.CardsFile, err)
		}
		cat = loaded
	}
	log.Printf("Card catalog: %d cards", cat.Size())

	ctx := context.Background()

	// Durable session mirror. Optional: without DATABASE_URL the server
	// runs memory-only and forfeits crash history.
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connecting to session store: %v", err)
	}
	if store == nil {
		log.Print("Storage: DATABASE_URL not set; session mirroring disabled.")
	}
	var outbox *storage.Outbox
	if store != nil {
		outbox = storage.NewOutbox(store)
		go outbox.Run()
		defer outbox.Stop()
		defer store.Close()
	}

	reg := registry.New(cfg, cat)
	reg.Configure = func(s *session.Session) {
		s.OnMutated = func(sessionID, status string, snapshot []byte) {
			outbox.Enqueue(sessionID, status, snapshot)
		}
		s.OnEnded = func(sum session.EndSummary) {
			go func() {
				wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := store.InsertBattleResult(wctx, sum); err != nil {
					slog.Warn("recording battle result failed", "tag", "storage",
						"session", sum.SessionID, "err", err)
				}
			}()
		}
	}
	go reg.RunReaper(reaperInterval)

	hub := ws.NewHub(cfg, reg)
	go hub.Run(ctx)

	http.HandleFunc("/ws", hub.ServeWS)

	apiHandler := api.NewHandler(cfg, reg, hub)
	http.HandleFunc("/healthz", apiHandler.Health)

	addr := fmt.Sprintf(":%d", cfg.WSPort)
	log.Printf("Card Battle server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
