// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import "html/template"

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
  <head><title>OIDC Test App</title></head>
  <body>
    <h1 id="title">Test App (Client: {{.ClientID}})</h1>
    <p>This is a minimal client application to test the OIDC flow.</p>
    <a id="login" href="{{.AuthURL}}">Click here to Log In</a>
  </body>
</html>
`))

var successTmpl = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>OIDC Test App - Success</title>
    <style>
      body { font-family: sans-serif; line-height: 1.5; padding: 0 2em; }
      h1, h2 { border-bottom: 1px solid #ccc; padding-bottom: 5px; }
      pre { white-space: pre-wrap; word-wrap: break-word; background: #eee; padding: 10px; border-radius: 5px; }
      code { background: #eee; padding: 2px 4px; border-radius: 3px; }
    </style>
  </head>
  <body>
    <h1>Success!</h1>
    <p>Client ID: <code id="client_id">{{.ClientID}}</code></p>
    <h2>Access Token</h2>
    <pre id="access_token">{{.Token.AccessToken}}</pre>
    <h2>ID Token</h2>
    <pre id="id_token">{{.Token.IDToken}}</pre>
    {{- if .Token.RefreshToken}}
    <h2>Refresh Token</h2>
    <pre id="refresh_token">{{.Token.RefreshToken}}</pre>
    {{- end}}
    {{- if not .Token.Expiry.IsZero}}
    <p>Expires: <code id="expiry">{{.Token.Expiry.Format "2006-01-02T15:04:05Z07:00"}}</code></p>
    {{- end}}
    <hr>
    <a href="/">Start Over</a>
  </body>
</html>
`))

type indexData struct {
	ClientID string
	AuthURL  string
}

type successData struct {
	ClientID string
	Token    *Token
}
