// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hydra

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-uuid"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/autoidp/sdk/strutils"
)

// TestProvider is a local server that stands in for the provider's admin and
// public APIs, which makes writing tests much easier.  Like the real thing,
// it treats login challenges, consent challenges and authorization codes as
// single-use.
//
// Challenges can be seeded directly (AddLoginChallenge, AddConsentChallenge)
// or created by driving a browser through /oauth2/auth, in which case the
// provider redirects to the configured login and consent URLs (SetLoginURL,
// SetConsentURL) and finally to the client's redirect_uri with a code.
type TestProvider struct {
	httpServer *httptest.Server
	t          *testing.T

	mu          sync.Mutex
	loginURL    string
	consentURL  string
	challenges  map[string]*testChallenge
	flows       map[string]*testFlow
	clients     map[string]*OAuth2Client
	codes       map[string]*testCode
	failures    map[string]testFailure
	calls       map[string]int
	tokenReply  map[string]interface{}
	lastLogin   *AcceptLoginRequest
	lastConsent *AcceptConsentRequest
	lastClient  *OAuth2Client
	lastToken   url.Values
}

type challengeKind int

const (
	loginChallenge challengeKind = iota
	consentChallenge
)

type testChallenge struct {
	kind       challengeKind
	used       bool
	redirectTo string
	consent    *ConsentRequest
	flow       *testFlow
}

type testFlow struct {
	clientID    string
	redirectURI string
	state       string
	nonce       string
	scope       []string
	login       *AcceptLoginRequest
	consent     *AcceptConsentRequest
}

type testCode struct {
	used bool
	flow *testFlow
}

type testFailure struct {
	statusCode int
	body       string
}

// Test provider paths, usable with SetFailure and CallCount.
const (
	TestLoginAcceptPath   = loginAcceptPath
	TestConsentPath       = consentPath
	TestConsentAcceptPath = consentAcceptPath
	TestClientsPath       = clientsPath
	TestAuthPath          = authPath
	TestTokenPath         = tokenPath
)

// StartTestProvider creates a disposable TestProvider which is stopped when
// the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	p := &TestProvider{
		t:          t,
		challenges: map[string]*testChallenge{},
		flows:      map[string]*testFlow{},
		clients:    map[string]*OAuth2Client{},
		codes:      map[string]*testCode{},
		failures:   map[string]testFailure{},
		calls:      map[string]int{},
	}
	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.Start()
	t.Cleanup(p.httpServer.Close)
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the base URL of the test provider.  It serves both the admin
// and public APIs.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// Client returns a Client configured for the test provider.
func (p *TestProvider) Client(opt ...Option) *Client {
	p.t.Helper()
	c, err := NewClient(p.Addr(), append([]Option{WithPublicURL(p.Addr())}, opt...)...)
	require.NoError(p.t, err)
	return c
}

// SetLoginURL sets the login application's URL the provider redirects the
// browser to with a login_challenge.
func (p *TestProvider) SetLoginURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loginURL = u
}

// SetConsentURL sets the consent application's URL the provider redirects
// the browser to with a consent_challenge.
func (p *TestProvider) SetConsentURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consentURL = u
}

// AddLoginChallenge seeds a pending login challenge whose acceptance returns
// redirectTo.
func (p *TestProvider) AddLoginChallenge(challenge, redirectTo string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.challenges[challenge] = &testChallenge{kind: loginChallenge, redirectTo: redirectTo}
}

// AddConsentChallenge seeds a pending consent challenge.  cr is returned when
// the challenge is fetched and redirectTo when it's accepted.
func (p *TestProvider) AddConsentChallenge(challenge string, cr ConsentRequest, redirectTo string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cr.Challenge = challenge
	p.challenges[challenge] = &testChallenge{kind: consentChallenge, redirectTo: redirectTo, consent: &cr}
}

// SetClientCreds registers a client with the given credentials and redirect
// URIs, as if it had been created through the admin API.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string, redirectURIs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[clientID] = &OAuth2Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURIs: redirectURIs,
	}
}

// SetExpectedAuthCode seeds a single-use authorization code for clientID and
// redirectURI, which the token endpoint will exchange.
func (p *TestProvider) SetExpectedAuthCode(code, clientID, redirectURI string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes[code] = &testCode{flow: &testFlow{clientID: clientID, redirectURI: redirectURI}}
}

// SetTokenReply overrides the JSON body returned by a successful token
// exchange.
func (p *TestProvider) SetTokenReply(reply map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenReply = reply
}

// SetFailure makes every request to path fail with statusCode and body.  A
// statusCode of zero clears the failure.
func (p *TestProvider) SetFailure(path string, statusCode int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if statusCode == 0 {
		delete(p.failures, path)
		return
	}
	p.failures[path] = testFailure{statusCode: statusCode, body: body}
}

// CallCount returns the number of requests received for path.
func (p *TestProvider) CallCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[path]
}

// LastAcceptLogin returns the body of the last accept login request.
func (p *TestProvider) LastAcceptLogin() *AcceptLoginRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastLogin
}

// LastAcceptConsent returns the body of the last accept consent request.
func (p *TestProvider) LastAcceptConsent() *AcceptConsentRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastConsent
}

// LastCreateClient returns the body of the last create client request.
func (p *TestProvider) LastCreateClient() *OAuth2Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastClient
}

// LastTokenRequest returns the form of the last token request.
func (p *TestProvider) LastTokenRequest() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastToken
}

// LastAuthNonce returns the nonce sent with the last authorization request
// for state.
func (p *TestProvider) LastAuthNonce(state string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.flows {
		if f.state == state {
			return f.nonce
		}
	}
	return ""
}

func (p *TestProvider) newID(prefix string) string {
	p.t.Helper()
	id, err := uuid.GenerateUUID()
	require.NoError(p.t, err)
	return prefix + strings.ReplaceAll(id, "-", "")
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, statusCode int, out interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(out)
}

func (p *TestProvider) writeError(w http.ResponseWriter, statusCode int, errorCode, desc string) {
	p.writeJSON(w, statusCode, struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: desc,
	})
}

func (p *TestProvider) writeAuthError(w http.ResponseWriter, req *http.Request, redirectURI, state, errorCode, desc string) {
	if redirectURI == "" {
		p.writeError(w, http.StatusBadRequest, errorCode, desc)
		return
	}
	v := url.Values{"error": {errorCode}, "state": {state}}
	if desc != "" {
		v.Set("error_description", desc)
	}
	http.Redirect(w, req, redirectURI+"?"+v.Encode(), http.StatusFound)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[req.URL.Path]++
	if f, ok := p.failures[req.URL.Path]; ok {
		w.WriteHeader(f.statusCode)
		_, _ = w.Write([]byte(f.body))
		return
	}

	switch req.URL.Path {
	case loginAcceptPath:
		p.handleAcceptLogin(w, req)
	case consentPath:
		p.handleGetConsent(w, req)
	case consentAcceptPath:
		p.handleAcceptConsent(w, req)
	case clientsPath:
		p.handleCreateClient(w, req)
	case authPath:
		p.handleAuth(w, req)
	case tokenPath:
		p.handleToken(w, req)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// lookupChallenge returns the pending challenge or writes the error response
// the provider would send.
func (p *TestProvider) lookupChallenge(w http.ResponseWriter, challenge string, kind challengeKind) (*testChallenge, bool) {
	c, ok := p.challenges[challenge]
	switch {
	case challenge == "":
		p.writeError(w, http.StatusBadRequest, "invalid_request", "challenge is missing")
		return nil, false
	case !ok || c.kind != kind:
		p.writeError(w, http.StatusNotFound, "not_found", "unable to locate the requested resource")
		return nil, false
	case c.used:
		p.writeError(w, http.StatusGone, "request_was_handled", "the request has already been used")
		return nil, false
	}
	return c, true
}

func (p *TestProvider) handleAcceptLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	c, ok := p.lookupChallenge(w, req.URL.Query().Get("login_challenge"), loginChallenge)
	if !ok {
		return
	}
	var body AcceptLoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Subject == "" {
		p.writeError(w, http.StatusBadRequest, "invalid_request", "subject is required")
		return
	}
	p.lastLogin = &body
	c.used = true

	redirectTo := c.redirectTo
	if c.flow != nil {
		c.flow.login = &body
		redirectTo = p.Addr() + authPath + "?" + url.Values{"login_verifier": {req.URL.Query().Get("login_challenge")}}.Encode()
	}
	p.writeJSON(w, http.StatusOK, &CompletedRequest{RedirectTo: redirectTo})
}

func (p *TestProvider) handleGetConsent(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	c, ok := p.lookupChallenge(w, req.URL.Query().Get("consent_challenge"), consentChallenge)
	if !ok {
		return
	}
	p.writeJSON(w, http.StatusOK, c.consent)
}

func (p *TestProvider) handleAcceptConsent(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	challenge := req.URL.Query().Get("consent_challenge")
	c, ok := p.lookupChallenge(w, challenge, consentChallenge)
	if !ok {
		return
	}
	var body AcceptConsentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		p.writeError(w, http.StatusBadRequest, "invalid_request", "unable to decode body")
		return
	}
	for _, s := range body.GrantScope {
		if !strutils.StrListContains(c.consent.RequestedScope, s) {
			p.writeError(w, http.StatusBadRequest, "invalid_request", "scope "+s+" was not requested")
			return
		}
	}
	p.lastConsent = &body
	c.used = true

	redirectTo := c.redirectTo
	if c.flow != nil {
		c.flow.consent = &body
		redirectTo = p.Addr() + authPath + "?" + url.Values{"consent_verifier": {challenge}}.Encode()
	}
	p.writeJSON(w, http.StatusOK, &CompletedRequest{RedirectTo: redirectTo})
}

func (p *TestProvider) handleCreateClient(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body OAuth2Client
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		p.writeError(w, http.StatusBadRequest, "invalid_request", "unable to decode body")
		return
	}
	if len(body.RedirectURIs) == 0 {
		p.writeError(w, http.StatusBadRequest, "invalid_client_metadata", "redirect_uris is required")
		return
	}
	p.lastClient = &body
	created := body
	created.ClientID = p.newID("")
	created.ClientSecret = p.newID("")
	p.clients[created.ClientID] = &created
	p.writeJSON(w, http.StatusCreated, &created)
}

// handleAuth drives the browser through login, consent and back to the
// client.  Each visit advances the flow by one step.
func (p *TestProvider) handleAuth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	qv := req.URL.Query()
	switch {
	case qv.Get("login_verifier") != "":
		c, ok := p.challenges[qv.Get("login_verifier")]
		if !ok || c.flow == nil || c.flow.login == nil {
			p.writeError(w, http.StatusForbidden, "access_denied", "invalid login verifier")
			return
		}
		consent := p.newID("cc_")
		p.challenges[consent] = &testChallenge{
			kind: consentChallenge,
			flow: c.flow,
			consent: &ConsentRequest{
				Challenge:                    consent,
				RequestedScope:               c.flow.scope,
				RequestedAccessTokenAudience: []string{},
				Subject:                      c.flow.login.Subject,
				Client:                       &ConsentClient{ClientID: c.flow.clientID},
			},
		}
		http.Redirect(w, req, p.consentURL+"?"+url.Values{"consent_challenge": {consent}}.Encode(), http.StatusFound)

	case qv.Get("consent_verifier") != "":
		c, ok := p.challenges[qv.Get("consent_verifier")]
		if !ok || c.flow == nil || c.flow.consent == nil {
			p.writeError(w, http.StatusForbidden, "access_denied", "invalid consent verifier")
			return
		}
		code := p.newID("ac_")
		p.codes[code] = &testCode{flow: c.flow}
		v := url.Values{"code": {code}, "state": {c.flow.state}, "scope": {strings.Join(c.flow.consent.GrantScope, " ")}}
		http.Redirect(w, req, c.flow.redirectURI+"?"+v.Encode(), http.StatusFound)

	default:
		redirectURI := qv.Get("redirect_uri")
		state := qv.Get("state")
		client, ok := p.clients[qv.Get("client_id")]
		switch {
		case !ok:
			p.writeError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
			return
		case !strutils.StrListContains(client.RedirectURIs, redirectURI):
			p.writeError(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		case qv.Get("response_type") != "code":
			p.writeAuthError(w, req, redirectURI, state, "unsupported_response_type", "")
			return
		case len(state) < 8:
			p.writeAuthError(w, req, redirectURI, state, "invalid_state", "state is missing or does not have enough characters")
			return
		case !strutils.StrListContains(strings.Fields(qv.Get("scope")), "openid"):
			p.writeAuthError(w, req, redirectURI, state, "invalid_scope", "openid scope is required")
			return
		}
		login := p.newID("lc_")
		flow := &testFlow{
			clientID:    client.ClientID,
			redirectURI: redirectURI,
			state:       state,
			nonce:       qv.Get("nonce"),
			scope:       strings.Fields(qv.Get("scope")),
		}
		p.flows[login] = flow
		p.challenges[login] = &testChallenge{kind: loginChallenge, flow: flow}
		http.Redirect(w, req, p.loginURL+"?"+url.Values{"login_challenge": {login}}.Encode(), http.StatusFound)
	}
}

func (p *TestProvider) handleToken(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := req.ParseForm(); err != nil {
		p.writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse form")
		return
	}
	p.lastToken = req.PostForm

	client, ok := p.clients[req.PostForm.Get("client_id")]
	code, codeOK := p.codes[req.PostForm.Get("code")]
	switch {
	case req.PostForm.Get("grant_type") != "authorization_code":
		p.writeError(w, http.StatusBadRequest, "unsupported_grant_type", "bad grant_type")
		return
	case !ok || client.ClientSecret != req.PostForm.Get("client_secret"):
		p.writeError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	case !codeOK || code.used:
		p.writeError(w, http.StatusBadRequest, "invalid_grant", "the authorization code is invalid, expired or has been used")
		return
	case code.flow.clientID != client.ClientID:
		p.writeError(w, http.StatusBadRequest, "invalid_grant", "the authorization code was issued to another client")
		return
	case code.flow.redirectURI != req.PostForm.Get("redirect_uri"):
		p.writeError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri does not match the authorization request")
		return
	}
	code.used = true

	reply := p.tokenReply
	if reply == nil {
		reply = map[string]interface{}{
			"access_token":  p.newID("at_"),
			"id_token":      p.newID("it_"),
			"refresh_token": p.newID("rt_"),
			"token_type":    "bearer",
			"expires_in":    3600,
		}
	}
	p.writeJSON(w, http.StatusOK, reply)
}
