// Package store provides SQLite-backed state for collaborator macros.
//
// A Store holds four tables:
//   - cookies: first-party cookies read by COOKIE
//   - linker_params: forwarded linker parameters read by LINKER_PARAM
//   - sessions: per-vendor session state read and written by SESSION_*
//   - video_state: media element properties read by VIDEO_STATE
//
// Linker and video values are stored as JSON so numbers keep their type and
// are formatted as numbers when expanded.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
