package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/sciencemap-backend/internal/app"
	"github.com/yungbote/sciencemap-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Printf("server exited: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	a, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	a.Start()
	if err := a.Run(ctx); err != nil {
		return err
	}
	a.Log.Info("Server stopped")
	return nil
}
