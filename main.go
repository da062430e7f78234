package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordersvc/internal/catalog"
	"github.com/nikolayk812/ordersvc/internal/config"
	"github.com/nikolayk812/ordersvc/internal/event"
	"github.com/nikolayk812/ordersvc/internal/httpx"
	"github.com/nikolayk812/ordersvc/internal/payment"
	"github.com/nikolayk812/ordersvc/internal/repository"
	"github.com/nikolayk812/ordersvc/internal/service"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("orders service stopped")
	}
}

func run(logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.ApplySchema(ctx, pool); err != nil {
		return err
	}

	writer := config.NewKafkaWriter(cfg)
	defer writer.Close()

	orders := service.New(
		repository.NewOrder(pool),
		catalog.NewClient(cfg.CatalogURL, cfg.RemoteTimeout),
		payment.NewClient(cfg.PaymentURL, cfg.RemoteTimeout),
		event.NewPublisher(writer),
		logger,
	)

	handler := httpx.NewHandler(orders, logger)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpx.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("orders service listening")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
