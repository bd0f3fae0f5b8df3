// Package authfetch issues HTTP requests on behalf of a logged-in console user.
//
// A request passes through two stages:
//
//   - [HeaderTransport] attaches the session token and the JSON content headers.
//     Caller headers win on collisions.
//   - Interceptors observe failures. [Unauthorized] clears the session and
//     navigates to the login route on a 401, after which the original error is
//     still returned to the caller.
//
// Interceptors cannot swallow or replace an error; cleanup is layered on top of
// normal error propagation.
//
// Example:
//
//	req := authfetch.New(tokens, router, authfetch.WithBaseURL(base))
//	var out versionResponse
//	err := req.FetchJSON(ctx, "/admin/api/get-version", authfetch.Options{Method: http.MethodPost}, &out)
package authfetch
