// Package server provides HTTP routing, middleware, and the Spotify account link receiver.
//
// # Router
//
// [BasicRouter] implements [Router] on [http.ServeMux] method patterns. [Middleware] registered with
// [BasicRouter.Use] wraps every route registered afterwards, first added outermost.
//
// # Middleware
//
// [RequestID] tags each request, [Logging] writes one charmbracelet/log line per request, [Recover] turns
// panics into 500s, and [RateLimit] applies a per-key token bucket (golang.org/x/time/rate).
//
// # Link receiver
//
// [LinkHandler] is the secondary OAuth round trip. The login route stores the state and the primary user id
// in a short-lived cookie and redirects to Spotify; the callback checks the state, exchanges the code,
// reads the Spotify profile and hands a [linking.Grant] to the [Linker].
//
// [Server] runs the whole thing until its context is cancelled.
package server
