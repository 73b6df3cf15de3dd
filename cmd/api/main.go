package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/config"
	"github.com/marcelsud/bookshelf-api/internal/auth"
	"github.com/marcelsud/bookshelf-api/internal/http/chi"
	"github.com/marcelsud/bookshelf-api/internal/storage"
	"github.com/marcelsud/bookshelf-api/metrics"
)

const TIMEOUT = 30 * time.Second

/* main is where the packages get wired together: config, storage,
 * service, authenticator, metrics and router. Imports only go down:
 * the app imports the business layer, which imports storage.
 * See https://eltonminetto.dev/post/2022-07-06-error-handling-cli-applications-golang/
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := httplog.NewLogger("bookshelf-api", httplog.Options{
		JSON:     cfg.LogJSON,
		LogLevel: cfg.LogLevel,
	})

	if cfg.JWTSecret == "" {
		logger.Error().Msg("JWT_SECRET is required to accept new books")
		return
	}
	authn, err := auth.NewJWT(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		logger.Error().Err(err).Msg("creating authenticator")
		return
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.StorageDriver).Msg("opening storage")
		return
	}
	defer store.Close(context.Background())

	var opts []book.Option
	if cfg.BooksStrictUpdate {
		opts = append(opts, book.WithStrictUpdate())
	}
	s := book.NewService(store, opts...)

	exporter, err := metrics.NewOTelExporter(store, nil)
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())

	r := chi.Handlers(ctx, s, authn, exporter,
		chi.WithLogger(logger),
		chi.WithPerPage(cfg.BooksPerPage),
		chi.WithTimeout(cfg.RequestTimeout()),
	)
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Str("driver", cfg.StorageDriver).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
		return
	}
	logger.Info().Msg("server stopped")
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}
