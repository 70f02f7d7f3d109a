// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"

	"github.com/hashicorp/autoidp/hydra"
	"github.com/hashicorp/autoidp/internal/metrics"
)

// DefaultRequestTTL is how long a flow may take between the index page and
// the callback.
const DefaultRequestTTL = 5 * time.Minute

// serverOptions is the set of available options for NewServer
type serverOptions struct {
	withLogger     hclog.Logger
	withMetrics    *metrics.Metrics
	withHTTPClient *http.Client
	withUILocales  []language.Tag
	withRequestTTL time.Duration
}

func serverDefaults() serverOptions {
	return serverOptions{
		withLogger:     hclog.NewNullLogger(),
		withRequestTTL: DefaultRequestTTL,
	}
}

func getServerOpts(opt ...Option) serverOptions {
	opts := serverDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

type server struct {
	config     *Config
	initiator  *Initiator
	exchanger  *Exchanger
	cache      *RequestCache
	requestTTL time.Duration
	logger     hclog.Logger
	metrics    *metrics.Metrics
}

// NewServer returns the relying party's http.Handler:
//
//	GET /          page linking to the provider's authorization endpoint
//	GET /callback  exchanges ?code for tokens and renders them
//	GET /healthz
//	GET /metrics   (only WithMetrics)
//
// Supported options:
//
//	WithLogger
//	WithMetrics
//	WithHTTPClient
//	WithUILocales
//	WithRequestTTL
func NewServer(c *Config, opt ...Option) (http.Handler, error) {
	const op = "rp.NewServer"
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getServerOpts(opt...)
	if opts.withRequestTTL <= 0 {
		return nil, fmt.Errorf("%s: request ttl not greater than zero: %w", op, ErrInvalidParameter)
	}
	initiator, err := NewInitiator(c, WithUILocales(opts.withUILocales...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	exchanger, err := NewExchanger(c, WithHTTPClient(opts.withHTTPClient))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s := &server{
		config:     c,
		initiator:  initiator,
		exchanger:  exchanger,
		cache:      NewRequestCache(),
		requestTTL: opts.withRequestTTL,
		logger:     opts.withLogger,
		metrics:    opts.withMetrics,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.index).Methods(http.MethodGet)
	router.HandleFunc("/callback", s.callback).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	if opts.withMetrics != nil {
		router.Handle("/metrics", opts.withMetrics.Handler()).Methods(http.MethodGet)
	}
	return router, nil
}

func (s *server) index(w http.ResponseWriter, req *http.Request) {
	r, err := NewRequest(s.requestTTL)
	if err != nil {
		s.metrics.Observe("authorize", err)
		s.logger.Error("unable to create request", "error", err)
		http.Error(w, "Unable to start login.", http.StatusInternalServerError)
		return
	}
	authURL, err := s.initiator.AuthURL(r)
	s.metrics.Observe("authorize", err)
	if err != nil {
		s.logger.Error("unable to create auth url", "error", err)
		http.Error(w, "Unable to start login.", http.StatusInternalServerError)
		return
	}
	s.cache.Add(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, indexData{ClientID: s.config.ClientID(), AuthURL: authURL}); err != nil {
		s.logger.Error("unable to render index", "error", err)
	}
}

func (s *server) callback(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	state := q.Get("state")

	if e := q.Get("error"); e != "" {
		// burn the flow's state; the flow has to start over either way
		_, _ = s.cache.Take(req.Context(), state)
		err := fmt.Errorf("%w: %s: %s", ErrAuthorizationDenied, e, q.Get("error_description"))
		s.logger.Warn("callback error from oidc provider", "error", err)
		http.Error(w, fmt.Sprintf("Error: No authorization code received: %s", err), http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "Error: No authorization code received.", http.StatusBadRequest)
		return
	}
	if _, err := s.cache.Take(req.Context(), state); err != nil {
		s.logger.Warn("callback with invalid state", "error", err)
		msg := "Error: Invalid or expired state."
		if errors.Is(err, ErrMissingParameter) {
			msg = "Error: No state received."
		}
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	t, err := s.exchanger.Exchange(req.Context(), code)
	s.metrics.Observe("exchange", err)
	if err != nil {
		s.logger.Error("token exchange failed", "error", err)
		http.Error(w, fmt.Sprintf("An error occurred: %s", exchangeDetail(err)), http.StatusInternalServerError)
		return
	}
	s.logger.Info("token exchange succeeded", "client_id", s.config.ClientID())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := successTmpl.Execute(w, successData{ClientID: s.config.ClientID(), Token: t}); err != nil {
		s.logger.Error("unable to render tokens", "error", err)
	}
}

// exchangeDetail is the user visible part of an exchange failure: the
// provider's error detail when there is one.
func exchangeDetail(err error) string {
	var upErr *hydra.UpstreamError
	switch {
	case errors.As(err, &upErr) && upErr.ErrorCode != "" && upErr.Description != "":
		return fmt.Sprintf("Token exchange failed: %s: %s", upErr.ErrorCode, upErr.Description)
	case errors.As(err, &upErr) && upErr.ErrorCode != "":
		return fmt.Sprintf("Token exchange failed: %s", upErr.ErrorCode)
	case errors.As(err, &upErr):
		return fmt.Sprintf("Token exchange failed: status %d: %s", upErr.StatusCode, upErr.Body)
	case errors.Is(err, hydra.ErrUpstreamUnavailable):
		return "Token exchange failed: provider unavailable"
	default:
		return "Token exchange failed"
	}
}
