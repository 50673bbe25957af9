// Package failover keeps each backend kind of the InstaIntelli API usable
// while its cloud-hosted instance is down.
//
// # Overview
//
// Every backend kind (relational, document, cache) is served by one Manager
// that owns up to two pools:
//   - Primary: the cloud-hosted instance, always preferred while healthy
//   - Fallback: a local instance used only while Primary is unhealthy
//
// A Manager is in one of three states:
//
//	UsingPrimary  ──(primary probe fails, fallback configured)──▶ UsingFallback
//	UsingFallback ──(primary probe succeeds)─────────────────────▶ UsingPrimary
//	Unusable: neither pool configured; every access fails
//
// # Health checks
//
// Primary is probed at most once per check interval (30s) per manager,
// either on access (the default) or from a background Monitor whose ticker
// sets the pace; Check itself is not throttled. Between two
// checks the active pool is handed out without any probe. A probe is bounded
// by its own timeout (5s) and does not inherit the caller's cancellation; any
// probe error counts as unhealthy and is logged, never returned.
//
// # Sessions
//
// Callers never hold a pool. They take a Session for one unit of work and
// release it when done, or use Do which releases on every exit path:
//
//	err := mgr.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
//		_, err := conn.ExecContext(ctx, "UPDATE users SET bio = $1 WHERE user_id = $2", bio, id)
//		return err
//	})
//
// Sessions stay bound to the pool they were taken from. A failover does not
// migrate in-flight sessions; their I/O errors reach the caller unchanged.
//
// # Status
//
// Status returns a snapshot of one manager and Aggregate combines several
// into the report served by the health endpoint:
//
//	report := failover.Aggregate(registry.Reporters()...)
//	if !report.Healthy() {
//		// at least one backend kind has no pool configured
//	}
package failover
