package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"orbitviz/adapters/db"
	"orbitviz/adapters/excel"
	"orbitviz/adapters/gonumplot"
	"orbitviz/adapters/jsondata"
	"orbitviz/app"
	"orbitviz/internal"
	"orbitviz/internal/api"
	"orbitviz/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)
	logger := internal.DefaultLogger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	xlsx := excel.NewDataReader(logger)
	readers := app.ReadersByExtension{".json": jsondata.Reader{}, ".xlsx": xlsx, ".xlsm": xlsx, ".csv": xlsx}
	service := app.NewDiagnosticsService(
		readers,
		gonumplot.NewRenderer(appConfig.Render),
		db.NewFitRunRepository(database),
		appConfig.Render,
		logger,
	)

	server := api.NewServer(service, appConfig.Server.MaxRenders, logger)
	if err := server.Run(ctx, ":"+appConfig.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
