// Package confirm provides decision resolvers for the engine's side-effect
// confirmation gate. The in-memory resolver serves single-process
// deployments and tests; the Redis resolver lets an API instance resolve a
// decision awaited by another process.
package confirm
