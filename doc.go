// Package nexus implements the client-side authentication core of the B2B
// Commerce Nexus storefront: a session state controller, a role-aware route
// guard, and the boundary types for the managed session store that owns
// credential verification and persisted profile rows.
//
// Session lifecycle:
//   - The Controller is an explicitly constructed state owner. It performs a
//     single session check at startup, then consumes session-change events
//     from the store over a single-consumer channel. Each event replaces the
//     cached user record in one synchronous assignment, so readers never
//     observe a half-applied change.
//   - The cached user record is never the system of record. The store wins on
//     conflict; the cache is overwritten on the next session event.
//
// Route guarding:
//   - Guard decisions are pure functions of a controller snapshot plus a role
//     constraint. Anonymous visitors are redirected to sign-in carrying the
//     originally requested location; authenticated users with the wrong role
//     get an access-denied render instead of a redirect.
//
// Stores:
//   - provider/supabase talks to a hosted backend over REST and validates the
//     tokens it issues. The bun-backed store in this package serves tests and
//     single-binary deployments with the same event semantics.
package nexus
