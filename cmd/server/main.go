package main

import (
	"net/http"
	"path/filepath"

	"PromptKeeper/internal/config"
	"PromptKeeper/internal/handlers"
	"PromptKeeper/internal/middleware"
	"PromptKeeper/internal/repo"
	"PromptKeeper/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	middleware.SetLogger(sugar)
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	db, err := repo.InitDB(filepath.Join(cfg.StoreDir, "users.db"))
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}
	objects, err := repo.NewObjectRepository(filepath.Join(cfg.StoreDir, "objects"))
	if err != nil {
		sugar.Fatalw("failed to initialize object storage", "error", err)
	}

	userService := service.NewUserService(repo.NewUserRepository(db))
	h := handlers.NewHandler(userService, objects, sugar, cfg)

	addr := cfg.BaseURL
	sugar.Infow("Starting server",
		"addr", addr,
		"store_dir", cfg.StoreDir,
		"https", cfg.EnableHTTPS,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
