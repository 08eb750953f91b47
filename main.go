package main

import (
	"context"
	"log"

	"smartstock/app"
	"smartstock/config"
	"smartstock/routes"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	application := app.MustNew(cfg)
	defer application.Close()

	if err := app.BootstrapFirstAdmin(context.Background(), cfg.Bootstrap, application.Repo, application.Log); err != nil {
		application.Log.Fatal("bootstrap admin", zap.Error(err))
	}

	r := application.Router
	routes.RegisterRoutes(r, application)

	application.Log.Info("listening", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		application.Log.Error("server stopped", zap.Error(err))
	}
}
