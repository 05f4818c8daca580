package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jasonharmongit/JASONdata/internal/config"
	"github.com/jasonharmongit/JASONdata/internal/http"
	"go.uber.org/zap"
)

func main() {
	ctx, err := config.InitContext()
	if err != nil {
		log.Fatalf("Failed to initialize context: %v", err)
	}

	defer func() {
		if err := ctx.Logger.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	sqlDB, err := ctx.DB.DB()
	if err != nil {
		ctx.Logger.Fatal("Failed to get underlying SQL DB from GORM DB", zap.Error(err))
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			ctx.Logger.Fatal("Failed to close database connection", zap.Error(err))
		}
	}()

	service := http.NewHTTPService(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := service.Engine().Run(":" + port); err != nil {
		ctx.Logger.Fatal("Failed to start the server", zap.Error(err))
	}
}
