// Package repositories implements the linked credential store.
//
// A [CredentialStore] is a document-style store keyed by the primary identity id with four primitives:
// Save, Get, Update and Invalidate. Records are never removed; Invalidate nulls both tokens and stamps
// deleted_at, and readers derive the lifecycle stage from the stored fields.
//
// Drivers:
//   - [CredentialRepository] : SQLite via database/sql, the default
//   - [RedisCredentialStore] : JSON documents under a key prefix
//   - [MemoryCredentialStore] : process-local map for tests and development
//
// Every driver rejects a write whose expiry is further than [models.MaxCredentialLifetime] from its write time.
package repositories
