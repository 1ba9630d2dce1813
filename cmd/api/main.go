package main

import (
	"context"
	"log"
	"os"
	_ "time/tzdata"

	"github.com/vadim/neo-social/internal/app"
	"github.com/vadim/neo-social/internal/config"
)

func main() {
	cfg := config.MustLoad()

	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	// Run application (blocks until shutdown)
	if err := application.Run(ctx); err != nil {
		log.Printf("application error: %v", err)
		os.Exit(1)
	}
}
