// Package services wraps the HTTP collaborators of the web client.
//
// # Backend API
//
// [APIService] calls the music backend (recently played, recommendations, analytics, collections). Requests are
// paced by a [rate.Limiter]. A 401 or 403 from the backend is reported as [shared.ErrUnauthorized] so pages can
// tell an expired link apart from an outage.
//
// # Auth service
//
// [AuthService] knows the secondary login and logout endpoints, which may be served by this process or by an
// external auth service.
//
// # Spotify
//
// [SpotifyService] runs the Spotify authorization code flow with [oauth2], refreshes access tokens, and reads the
// profile and play history of a linked account.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrUnauthorized] : backend or Spotify rejected the caller's token
//   - [shared.ErrAPIRequest] : HTTP request failed or returned an unexpected status
//   - [shared.ErrRefreshFailed] : Spotify refused a refresh token
package services
