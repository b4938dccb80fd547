package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lncharge/internal/config"
	"lncharge/internal/db"
	"lncharge/internal/models"
	"lncharge/internal/node"
	"lncharge/internal/store"
	"lncharge/internal/waitreg"
	"lncharge/internal/webhooks"
	"lncharge/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	st := store.New(pool)
	rest := node.NewRESTClient(cfg.Node.RESTURL, cfg.NodeTimeout())

	streamEndpoint := cfg.Node.StreamURL
	if streamEndpoint == "" {
		streamEndpoint = node.DefaultStreamEndpoint(cfg.Node.RESTURL)
	}

	w := &worker.Worker{
		Store:             st,
		Node:              rest,
		Invoices:          waitreg.New[*models.Invoice](),
		Offers:            waitreg.New[*models.Offer](),
		Hooks:             webhooks.NewDispatcher(st, cfg.WebhookTimeout()),
		StreamEndpoint:    streamEndpoint,
		ReconcileTTL:      cfg.ReconcileTTL(),
		ReconcileInterval: cfg.ReconcileInterval(),
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	log.Printf("charged started (node=%s stream=%s)", cfg.Node.RESTURL, streamEndpoint)
	w.Run(ctx)
}
