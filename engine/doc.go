/*
Package engine is the workflow execution kernel: it turns a workflow graph
plus an initial input into an ordered, possibly-conditional sequence of node
executions and streams lifecycle events to a consumer.

# Core types

  - Workflow / Node / Edge — immutable in-memory graph for one run
  - Scheduler              — Kahn topological ordering + the per-node loop
  - ConditionGate          — OR-join edge eligibility and input selection
  - TemplateResolver       — {path} placeholder rendering over node config
  - Registry / Executor    — pluggable dispatch keyed by node type string
  - StreamingRunner        — bounded, drop-on-full, cancellable event stream
  - ConfirmGate            — pre-execution allow/deny pause for side effects

# Execution model

Nodes within one run execute strictly sequentially in topological order;
independent branches are not parallelized. Entry pseudo-types (start, input)
always run and receive the initial input; exit and default pseudo-types
return their first available input; everything else dispatches through the
executor registry. A cyclic graph fails before any node executes. Executor
failures abort the remaining schedule; condition and template errors never
do — conditions fail closed and unresolved placeholders stay verbatim.

The kernel holds no state between runs. Concurrent runs share only the
executor registry, which is safe for concurrent use.
*/
package engine
