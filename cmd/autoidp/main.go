// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command autoidp is a login and consent provider for Hydra which approves
// every request as a single configured identity.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/autoidp/hydra"
	"github.com/hashicorp/autoidp/idp"
	"github.com/hashicorp/autoidp/internal/config"
	"github.com/hashicorp/autoidp/internal/metrics"
	"github.com/hashicorp/autoidp/internal/serve"
	sdkHttp "github.com/hashicorp/autoidp/sdk/http"
)

func main() {
	cfg, err := config.LoadIDP()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := config.Logger("autoidp", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger, listenTCP)
	stop()
	if err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func listenTCP(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func run(ctx context.Context, cfg *config.IDP, logger hclog.Logger, listen func(string) (net.Listener, error)) error {
	const op = "autoidp.run"
	httpClient, err := sdkHttp.NewClient(cfg.ProviderCA, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hc, err := hydra.NewClient(cfg.HydraAdminURL, hydra.WithHTTPClient(httpClient), hydra.WithLogger(logger.Named("hydra")))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	claims, err := cfg.Claims()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New("autoidp")
	r, err := idp.NewResolver(hc, idp.Identity{
		Subject:           cfg.Subject,
		Claims:            claims,
		Remember:          cfg.Remember,
		RememberFor:       cfg.RememberFor,
		AccessTokenClaims: cfg.AccessTokenClaims,
	}, idp.WithLogger(logger.Named("idp")), idp.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	h, err := idp.NewHandler(r, idp.WithLogger(logger.Named("idp")), idp.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	l, err := listen(cfg.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("approving every login and consent", "subject", cfg.Subject, "hydra_admin_url", cfg.HydraAdminURL)
	return serve.Serve(ctx, l, h, logger)
}
