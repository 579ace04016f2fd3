package main

import (
	"context"
	"log"

	server "github.com/dmitrijs2005/messenger/internal/server"
	"github.com/dmitrijs2005/messenger/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	app.Run(ctx)
}
