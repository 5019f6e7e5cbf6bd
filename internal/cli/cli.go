package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/mongo"

	"produtos-api/internal/cache"
	"produtos-api/internal/config"
	"produtos-api/internal/database"
	"produtos-api/internal/events"
	"produtos-api/internal/handlers"
	"produtos-api/internal/images"
	"produtos-api/internal/pkg/clock"
	"produtos-api/internal/repository"
	"produtos-api/internal/routes"
	"produtos-api/internal/services"
)

const disconnectTimeout = 5 * time.Second

// Run ejecuta la línea de comandos con los argumentos dados
func Run(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:   "produtos-api",
		Usage:  "Catálogo de produtos",
		Flags:  []cli.Flag{portFlag()},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Flags:  []cli.Flag{portFlag()},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create the MongoDB indexes",
				Action: migrate,
			},
		},
	}

	return cmd.Run(ctx, args)
}

func portFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "port",
		Usage: "HTTP port (overrides PORT)",
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := config.LoadConfig()
	if port := cmd.String("port"); port != "" {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.NewRealClock()

	repo, closeRepo, err := openRepository(ctx, cfg, clk)
	if err != nil {
		return err
	}
	defer closeRepo()

	processor, err := images.NewProcessor(images.Config{
		Dir:        cfg.UploadDir,
		PublicPath: cfg.PublicPath,
		MaxBytes:   cfg.MaxImageBytes,
	}, clk)
	if err != nil {
		return err
	}

	publisher := openPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Println("⚠️", err)
		}
	}()

	readCache := cache.New(cfg.CacheTTL, clk)
	readCache.StartCleanup(ctx)

	service := services.NewProductService(repo, processor, publisher, clk)
	handler := handlers.NewProductHandler(service, readCache, cfg.MaxImageBytes)
	router := routes.NewRouter(handler, routes.StaticConfig{PublicPath: cfg.PublicPath, Dir: cfg.UploadDir}, clk)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("🚀 Server running on port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("✅ Server stopped")
	return nil
}

func migrate(ctx context.Context, _ *cli.Command) error {
	cfg := config.LoadConfig()
	if cfg.MongoURI == "" {
		return errors.New("MONGO_URI is required to run migrations")
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer disconnect(client)

	if err := database.EnsureIndexes(ctx, client.Database(cfg.MongoDB).Collection(cfg.MongoCollection)); err != nil {
		return err
	}
	log.Println("✅ Migration complete")
	return nil
}

// openRepository usa MongoDB si MONGO_URI está definido; si no, un repositorio en memoria
func openRepository(ctx context.Context, cfg *config.Config, clk clock.Clock) (services.ProductRepository, func(), error) {
	if cfg.MongoURI == "" {
		log.Println("🧪 MONGO_URI not set, using in-memory repository")
		return repository.NewMemoryProductRepository(clk), func() {}, nil
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}

	collection := client.Database(cfg.MongoDB).Collection(cfg.MongoCollection)
	if err := database.EnsureIndexes(ctx, collection); err != nil {
		disconnect(client)
		return nil, nil, err
	}

	return repository.NewProductRepository(collection, clk), func() { disconnect(client) }, nil
}

func openPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.NoopPublisher{}
	}

	publisher, err := events.NewAMQPPublisher(events.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
	if err != nil {
		// los eventos son opcionales, la API sigue funcionando sin ellos
		log.Println("⚠️", err, "- events disabled")
		return events.NoopPublisher{}
	}
	return publisher
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Println("⚠️ Error disconnecting from MongoDB:", err)
	}
}
