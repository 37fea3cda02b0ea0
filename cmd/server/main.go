package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/keuthlie/internal/server"
	"github.com/dmitrijs2005/keuthlie/internal/server/config"
	"github.com/dmitrijs2005/keuthlie/internal/server/repositories/repomanager"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
