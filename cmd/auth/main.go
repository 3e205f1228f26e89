package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/AlibekovAA/credential-service/internal/auth/http"
	"github.com/AlibekovAA/credential-service/internal/common/bootstrap"
	commonhttp "github.com/AlibekovAA/credential-service/internal/common/http"
	srv "github.com/AlibekovAA/credential-service/internal/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}
	log := app.Log
	defer log.Close()

	handler := authhttp.NewHandler(app.AuthService, app.Config.RequestTimeout, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	rateLimiter := commonhttp.NewStrictRateLimiter(app.ClientIP)
	finalHandler := rateLimiter.Middleware(commonhttp.BuildBaseHandler("auth", log, mux))

	server := srv.New(srv.DefaultConfig(app.Config.HTTPPort), finalHandler, log)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: stopping background workers")
			cancel()
			rateLimiter.Stop()
			return nil
		},
		func(ctx context.Context) error {
			log.Infof("auth service: closing %s user store", app.Config.StoreDriver)
			return app.UserRepo.Close()
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, "auth", shutdownHooks)
}
