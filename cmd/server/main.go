package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"bouquet-builder-backend/internal/app"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	db, err := app.OpenDBFromEnv()
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	log.Info("DB connected")

	a, err := app.New(db, log)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}

	addr := ":3040"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	log.Infof("Server listening on %s", addr)
	if err := http.ListenAndServe(addr, a.Router()); err != nil {
		log.Fatal(err)
	}
}
