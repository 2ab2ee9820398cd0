package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidstream/backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := app.Run(ctx, os.Args[1:])
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
