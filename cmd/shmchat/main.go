package main

import (
	"context"

	"github.com/joho/godotenv"

	"shmchat/internal/cli"
	"shmchat/pkg/state/logger"
	"shmchat/pkg/state/shutdown"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	// cancel on SIGINT/SIGTERM so every Channel is detached on the way out
	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	err := cli.NewRootCmd().ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		cancel()
		shutdown.Abort("shmchat", err)
	}
}
