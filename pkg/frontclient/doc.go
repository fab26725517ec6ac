// Package frontclient provides the primary entry point for constructing a
// Front API client that implements the front.Client interface.
//
// It layers configuration, HTTP transport and authentication on top of the
// request, error and pagination types defined in the front package. Resource
// wrappers receive the returned front.Client and issue calls through it.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/front-go/pkg/front"
//	  "github.com/fivetwenty-io/front-go/pkg/frontclient"
//	)
//
//	type Tag struct {
//	  ID   string `json:"id"`
//	  Name string `json:"name"`
//	}
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With an API key. An empty key falls back to FRONT_API_KEY.
//	  cli, err := frontclient.NewWithAPIKey(ctx, "api-token")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with OAuth. A 401 refreshes the token pair once and retries.
//	  cli, err = frontclient.New(ctx, &front.Config{
//	    OAuth: &front.OAuthConfig{
//	      ClientID:     "client-id",
//	      ClientSecret: "client-secret",
//	      AccessToken:  "access",
//	      RefreshToken: "refresh",
//	    },
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  tags := front.NewResource[Tag](cli, "/tags", "/tags/{id}")
//	  page, err := tags.List(ctx, front.NewQueryParams().WithLimit(50))
//	  if err != nil { log.Fatal(err) }
//
//	  for p, err := range page.Pages(ctx) {
//	    if err != nil { log.Fatal(err) }
//	    _ = p.Items
//	  }
//	}
//
// # Configuration from files and environment
//
// LoadConfig reads an optional YAML file and FRONT_* environment variables,
// after loading a .env file if one is present:
//
//	api_key: "..."
//	retry_max: 5
//	oauth:
//	  client_id: "..."
//	  client_secret: "..."
//	  refresh_token: "..."
//	  token_file: ~/.config/front/tokens.yml
//
// Nested keys map to variables with dots replaced by underscores, e.g.
// FRONT_OAUTH_REFRESH_TOKEN.
//
// # Token persistence
//
// OAuth token pairs rotate on every refresh. NewFileTokenPersister and
// DialNATSTokenPersister keep the current pair in a local file or a NATS
// JetStream key-value bucket so a restarted process, or a fleet of them,
// continues with the latest pair.
package frontclient
