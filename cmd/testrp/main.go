// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command testrp is a relying party for exercising the authorization code
// flow.  It registers a new client with Hydra on every start.
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
	"github.com/hashicorp/autoidp/internal/config"
	"github.com/hashicorp/autoidp/internal/metrics"
	"github.com/hashicorp/autoidp/internal/serve"
	"github.com/hashicorp/autoidp/rp"
	sdkHttp "github.com/hashicorp/autoidp/sdk/http"
)

func main() {
	cfg, err := config.LoadRP()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := config.Logger("testrp", cfg.LogLevel)

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

// run registers the client and only then starts listening, so the relying
// party never serves without a registered client.
func run(ctx context.Context, cfg *config.RP, logger hclog.Logger, listen func(string) (net.Listener, error)) error {
	const op = "testrp.run"
	httpClient, err := sdkHttp.NewClient(cfg.ProviderCA, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hc, err := hydra.NewClient(
		cfg.HydraAdminURL,
		hydra.WithPublicURL(cfg.HydraPublicURL),
		hydra.WithHTTPClient(httpClient),
		hydra.WithLogger(logger.Named("hydra")),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	locales, err := cfg.Locales()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New("testrp")
	rpCfg, err := rp.Register(ctx, hc, rp.RegistrationRequest{
		ClientName:  cfg.ClientName,
		Scopes:      cfg.Scopes(),
		RedirectURL: cfg.CallbackURL,
	}, rp.WithLogger(logger.Named("rp")), rp.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	h, err := rp.NewServer(rpCfg,
		rp.WithLogger(logger.Named("rp")),
		rp.WithMetrics(m),
		rp.WithHTTPClient(httpClient),
		rp.WithUILocales(locales...),
		rp.WithRequestTTL(cfg.StateTTL),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	l, err := listen(cfg.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("test client ready", "client_id", rpCfg.ClientID(), "callback_url", rpCfg.RedirectURL())
	return serve.Serve(ctx, l, h, logger)
}
