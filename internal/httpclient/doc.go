// Package httpclient provides a shared HTTP client with retry and typed
// JSON helpers used by collaborators without dedicated Go SDKs.
//
// This is an internal package and is not part of the public API. The
// registry package's [registry.HTTPClient] builds its default
// [registry.Client] implementation on top of it.
//
// # Client
//
// The [Client] type wraps net/http.Client with automatic retry on 429/503
// status codes, exponential backoff with jitter (or the server's
// Retry-After header when present), and default headers (including bearer
// token authentication). Configuration uses the functional options
// pattern:
//
//	c := httpclient.New(
//	    httpclient.WithBaseURL("https://registry.superface.example/v2"),
//	    httpclient.WithBearerToken(apiKey),
//	    httpclient.WithRetries(3),
//	    httpclient.WithTimeout(30 * time.Second),
//	)
//
// # Typed JSON Requests
//
// The [DoJSON] generic function sends an HTTP request with a JSON body and
// decodes the JSON response into the specified type. It handles retries
// transparently:
//
//	type Response struct { Result string `json:"result"` }
//	resp, err := httpclient.DoJSON[Response](ctx, client, "POST", "/registry/bind", reqBody)
//
// # Error Handling
//
// API errors are returned as [*APIError] with the HTTP status code and
// response body. The client automatically parses JSON error bodies to
// extract human-readable error messages.
package httpclient
