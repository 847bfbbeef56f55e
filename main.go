package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"glucolog/internal/config"
	"glucolog/internal/database"
	"glucolog/internal/server"
	"glucolog/internal/services"
	"glucolog/pkg/rabbitmq"
)

const usage = `Usage: glucolog [flags] [serve|init-db]

Commands:
  serve     start the web server (default)
  init-db   create the database tables if absent and exit

Flags:
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	command, cfg, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}

	switch command {
	case "init-db":
		if err := initDB(cfg); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		fmt.Println("Database initialized.")
	case "serve":
		if err := serve(cfg); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}

// parseArgs resolves the command and the configuration from args and the environment.
func parseArgs(args []string, output io.Writer) (string, *config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	fs := pflag.NewFlagSet("glucolog", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}
	if err := config.BindFlags(v, fs); err != nil {
		return "", nil, err
	}
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}

	command := "serve"
	switch fs.NArg() {
	case 0:
	case 1:
		command = fs.Arg(0)
	default:
		return "", nil, fmt.Errorf("expected at most one command, got %v", fs.Args())
	}
	if command != "serve" && command != "init-db" {
		return "", nil, fmt.Errorf("unknown command %q", command)
	}

	return command, config.Load(v), nil
}

func initDB(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return database.InitSchema(db)
}

// newApp opens the database and builds the HTTP app. The caller owns the
// returned database handle.
func newApp(cfg *config.Config, publisher services.EventPublisher) (*fiber.App, *gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.SecretKey == "dev-secret-key" {
		log.Println("Warning: SECRET_KEY is the insecure development default")
	}
	return server.New(cfg, db, publisher, server.Options{}), db, nil
}

func serve(cfg *config.Config) error {
	// --- Optional RabbitMQ event publishing ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return err
		}
		defer mqClient.Close()
		publisher = mqClient

		if err := mqClient.ConsumeEvents(rabbitmq.LogEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	app, db, err := newApp(cfg, publisher)
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Printf("Starting server on %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}
