package main

import (
	"context"
	"log"

	"github.com/yixuan-h/pagemate/internal/ai"
	"github.com/yixuan-h/pagemate/internal/bridge"
	"github.com/yixuan-h/pagemate/internal/chat"
	"github.com/yixuan-h/pagemate/internal/config"
	"github.com/yixuan-h/pagemate/internal/db"
	"github.com/yixuan-h/pagemate/internal/httpapi"
	"github.com/yixuan-h/pagemate/internal/httpapi/handlers"
	"github.com/yixuan-h/pagemate/internal/ingest"
	"github.com/yixuan-h/pagemate/internal/page"
	"github.com/yixuan-h/pagemate/internal/store/rabbitmq"
	"github.com/yixuan-h/pagemate/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}

	kv := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionsKey)
	defer kv.Close()

	gdb := db.Connect(cfg.DBPath)
	jobs := chat.NewJobRepo(gdb)

	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit: %v", err)
	}
	defer rabbit.Close()

	br := bridge.New()
	provider := page.NewProvider(br, br, br)
	remote := ai.NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)

	store := chat.NewStore(kv)
	ctrl := chat.NewController(store, remote, provider)
	if err := ctrl.Open(context.Background()); err != nil {
		log.Fatalf("restore sessions: %v", err)
	}

	h := handlers.NewHandler(cfg, ctrl, ingest.New(), br, jobs, rabbit)
	r := httpapi.NewRouter(h)

	log.Printf("api listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
