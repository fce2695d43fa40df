package main

import (
	"context"
	"log"
	"os"

	"github.com/MrSnakeDoc/leasetrail/internal/app"
	"github.com/MrSnakeDoc/leasetrail/internal/config"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("❌ leasetrail: %v", err)
	}
	if err := app.New(cfg).Run(context.Background()); err != nil {
		log.Fatalf("❌ leasetrail failed: %v", err)
	}
}
