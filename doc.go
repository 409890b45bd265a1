// Package auth implements token-based authentication and session
// lifecycle management on top of Redis.
//
// The Engine is the single entry point. It signs and verifies JWT
// access/refresh pairs, keeps a per-user session registry, maintains a
// revocation blacklist, rotates refresh tokens with reuse detection,
// and throttles failed logins per username and client address.
//
// Build one with the Builder:
//
//	engine, err := auth.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithUserStore(users).
//		Build()
//
// User records live outside this package; callers supply a UserStore.
// All Redis access is prefix-keyed and bounded by a per-call timeout so
// a slow store cannot stall request handling.
package auth
