// Command server runs the cloudnotes HTTP API.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/cloudnotes/internal/server"
	"github.com/dmitrijs2005/cloudnotes/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("cloudnotes: %v", err)
	}

	app.Run(context.Background())
}
