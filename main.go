package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aurex/database"
	"aurex/jobs"
	"aurex/pkg/logger"
	"aurex/providers/payments"
	_ "aurex/providers/slots"
	"aurex/routes"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment")
	}

	logger.Init()
	defer logger.Sync()

	database.Connect()
	services.Processor = payments.NewLavaTopFromEnv()

	host := os.Getenv("HOST")
	port := os.Getenv("PORT")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3000"
	}

	app := fiber.New()
	routes.Setup(app)
	jobs.Start()

	addr := fmt.Sprintf("%s:%s", host, port)
	logger.Info("server starting", "addr", addr)

	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal("failed to start server", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Fatal("forced shutdown", err)
	}
	logger.Info("server exited cleanly")
}
