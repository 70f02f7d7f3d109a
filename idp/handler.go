// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package idp

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

const (
	loginFailedMsg   = "Failed to process login."
	consentFailedMsg = "Failed to process consent."
)

// NewHandler returns the http.Handler for the resolver's endpoints:
//
//	GET /login?login_challenge=
//	GET /consent?consent_challenge=
//	GET /healthz
//	GET /metrics (only WithMetrics)
//
// Supported options:
//
//	WithLogger
//	WithMetrics
func NewHandler(r *Resolver, opt ...Option) (http.Handler, error) {
	const op = "idp.NewHandler"
	if r == nil {
		return nil, fmt.Errorf("%s: resolver is nil: %w", op, ErrNilParameter)
	}
	opts := getOpts(opt...)

	router := mux.NewRouter()
	router.HandleFunc("/login", loginHandler(r, opts)).Methods(http.MethodGet)
	router.HandleFunc("/consent", consentHandler(r, opts)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	if opts.withMetrics != nil {
		router.Handle("/metrics", opts.withMetrics.Handler()).Methods(http.MethodGet)
	}
	return router, nil
}

// loginHandler resolves the request's login_challenge and redirects the
// browser to the provider.  Any failure is a 500.
func loginHandler(r *Resolver, opts options) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		challenge := req.URL.Query().Get("login_challenge")
		opts.withLogger.Debug("received login challenge", "challenge", challenge)

		redirectTo, err := r.ResolveLogin(req.Context(), challenge)
		if err != nil {
			opts.withLogger.Error("failed to accept login request", "error", err)
			http.Error(w, loginFailedMsg, http.StatusInternalServerError)
			return
		}
		http.Redirect(w, req, redirectTo, http.StatusFound)
	}
}

// consentHandler resolves the request's consent_challenge and redirects the
// browser to the provider.  Any failure is a 500.
func consentHandler(r *Resolver, opts options) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		challenge := req.URL.Query().Get("consent_challenge")
		opts.withLogger.Debug("received consent challenge", "challenge", challenge)

		redirectTo, err := r.ResolveConsent(req.Context(), challenge)
		if err != nil {
			opts.withLogger.Error("failed to accept consent request", "error", err)
			http.Error(w, consentFailedMsg, http.StatusInternalServerError)
			return
		}
		http.Redirect(w, req, redirectTo, http.StatusFound)
	}
}
