package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"murphy/internal/config"
	"murphy/internal/gateway"
	"murphy/internal/parser"
	"murphy/internal/prompt"
	"murphy/internal/retrieval"
	"murphy/internal/server"
	"murphy/internal/session"
	"murphy/internal/store"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	gw := gateway.NewClient(gateway.Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		EmbedModel: cfg.EmbeddingModel,
		BaseURL:    cfg.BaseURL,
		JSONMode:   cfg.ResponseMode == "structured",
		Timeout:    cfg.Timeout(),
	})

	deps := session.Deps{
		Gateway:   gw,
		Parser:    parser.New(cfg.ParserMode()),
		Builder:   prompt.NewBuilder(cfg.ParserMode()),
		Store:     st,
		Retriever: buildRetriever(cfg, gw),
		LogDB:     st.DB(),
	}

	srv := server.New(session.NewManager(deps), st, os.Getenv("MURPHY_DEBUG") != "")

	go func() {
		if err := srv.Run(cfg.ListenAddr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[MAIN] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[MAIN] shutdown: %v", err)
	}
}

// #endregion main

// #region wiring

func buildRetriever(cfg config.Config, gw *gateway.Client) retrieval.Retriever {
	rcfg := retrieval.DefaultConfig()
	rcfg.MinScore = float32(cfg.Retrieval.MinScore)
	rcfg.TopK = cfg.Retrieval.TopK

	switch cfg.Retrieval.Mode {
	case "off":
		return nil
	case "vector":
		r, err := retrieval.NewVectorRetriever(gw, rcfg)
		if err != nil {
			log.Printf("[MAIN] vector retrieval unavailable, using keyword: %v", err)
			return retrieval.NewKeywordRetriever(rcfg)
		}
		return r
	default:
		return retrieval.NewKeywordRetriever(rcfg)
	}
}

// #endregion wiring
