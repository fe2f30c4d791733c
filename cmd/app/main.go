package main

import (
	"context"

	"tourbook/config"
	"tourbook/di"
	"tourbook/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	app := di.InitializeApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.Reaper.Start(ctx)

	app.HTTP.Serve()
}
