// Package rotation implements credrotate's credential rotation engine: the
// set of strategies (one per credential kind), the eligibility policy shared
// by all of them, the abstraction over a secret store and over a cloud
// control plane, and the password/username generator that produces new
// credential material.
//
// # Architecture
//
// Each managed credential is described by a ResourceConfiguration and
// rotated by exactly one Strategy, looked up by its StrategyType tag in a
// Registry:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                  driver (out of scope)                   │
//	└───────────────────────────┬────────────────────────────────┘
//	                            │  Initialize / Rotate
//	┌───────────────────────────▼────────────────────────────────┐
//	│                    Strategy (per kind)                    │
//	│   manual · administrator · database-user · storage-key    │
//	└───────────┬─────────────────────────────────┬──────────────┘
//	            │                                 │
//	┌───────────▼───────────┐         ┌───────────▼──────────────┐
//	│      SecretStore       │         │       CloudClient        │
//	│  (Key Vault, memory)   │         │  (server details, keys)  │
//	└────────────────────────┘         └───────────────────────────┘
//
// # Shared control flow
//
// Every strategy is built on the same template: Initialize evaluates
// EvaluateInitializationCandidacy and, absent a skip verdict, delegates to
// the strategy's per-kind initialization routine; Rotate evaluates
// EvaluateRotationCandidacy and delegates to its per-kind rotation routine.
// The eligibility check, and with it OperationContext's Force flag, is
// applied in runOperation, not in a base type each strategy embeds. Each
// per-kind routine checks IsWhatIf itself, immediately before its first
// mutating call.
//
// # Security
//
// Strategies never log secret values directly; use logging.Secret to wrap
// any credential material that must appear in a log line. A rotation that
// mutates the backing resource but then fails to persist the secret store
// returns a verdict whose Notes explicitly says re-initialization is
// required — this is the one verdict that requires operator action, per the
// package's error handling design.
package rotation
