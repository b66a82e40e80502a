// Package models defines the domain entities shared by the moodring web client.
//
// The package contains two categories of types:
//
// 1. Session entities, owned by the linking flow:
//   - [Identity] : the signed-in primary account snapshot
//   - [LinkedCredential] : a linked Spotify account's tokens, keyed by the primary identity id
//   - [CredentialState] : Active, Expired or Unlinked, derived from the stored fields
//
// 2. Backend payloads, decoded from the music API:
//   - [RecentlyPlayed] : Spotify play history
//   - [Recommendation] : a mood-matched track
//   - [Collection] : a mood playlist with sample songs
//   - [AnalyticsOverview] : listening statistics
//
// Credentials never outlive [MaxCredentialLifetime] from the moment they are written, whatever the provider grants.
package models
