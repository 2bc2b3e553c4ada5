package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"go.uber.org/zap"
)

// ConditionGate decides, per node, whether it is eligible to run and which
// upstream outputs feed it. A node with incoming edges is eligible if at
// least one edge is satisfied (OR-join); the selected inputs are the outputs
// of all satisfied edges, in edge order.
//
// Condition evaluation fails closed: any parse or evaluation error marks the
// edge unsatisfied and is logged, never propagated.
type ConditionGate struct {
	logger *zap.Logger
}

// NewConditionGate creates a condition gate. A nil logger falls back to a
// no-op logger.
func NewConditionGate(logger *zap.Logger) *ConditionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConditionGate{
		logger: logger.With(zap.String("component", "condition_gate")),
	}
}

// NodeInput is one selected upstream output, keyed by its source node.
type NodeInput struct {
	Source string
	Value  any
}

// GateResult is the gate's decision for a single node.
type GateResult struct {
	// Satisfied is true when at least one incoming edge is satisfied.
	Satisfied bool
	// Reason is set when Satisfied is false.
	Reason string
	// Conditions lists the evaluated incoming edge conditions, in edge order.
	Conditions []string
	// Inputs holds the outputs of all satisfied edges, in edge order.
	Inputs []NodeInput
}

// InputsBySource returns the selected inputs keyed by source node ID, the
// shape executors consume.
func (r GateResult) InputsBySource() map[string]any {
	m := make(map[string]any, len(r.Inputs))
	for _, in := range r.Inputs {
		m[in.Source] = in.Value
	}
	return m
}

// Evaluate applies the OR-join rule to a node's incoming edges. An edge is
// satisfied when its source has already produced an output and its condition
// (if any) evaluates truthy against that output.
func (g *ConditionGate) Evaluate(node *Node, incoming []Edge, outputs map[string]any, initialInput any, runContext map[string]any) GateResult {
	res := GateResult{
		Conditions: make([]string, 0, len(incoming)),
	}
	for _, edge := range incoming {
		res.Conditions = append(res.Conditions, edge.Condition)
		sourceOutput, produced := outputs[edge.Source]
		if !produced {
			continue
		}
		if g.edgeSatisfied(edge, sourceOutput, initialInput, runContext) {
			res.Satisfied = true
			res.Inputs = append(res.Inputs, NodeInput{Source: edge.Source, Value: sourceOutput})
		}
	}
	if !res.Satisfied {
		res.Reason = SkipReasonConditions
	}
	return res
}

func (g *ConditionGate) edgeSatisfied(edge Edge, sourceOutput, initialInput any, runContext map[string]any) bool {
	cond := strings.TrimSpace(edge.Condition)
	if cond == "" {
		return true
	}

	// Literal true/false conditions match the structured branch marker that
	// conditional-routing nodes attach to their own output.
	lower := strings.ToLower(cond)
	if lower == "true" || lower == "false" {
		if matched, ok := matchBranchMarker(lower, sourceOutput); ok {
			return matched
		}
	}

	ok, err := g.evalExpression(cond, buildConditionEnv(sourceOutput, initialInput, runContext))
	if err != nil {
		g.logger.Debug("condition evaluation failed, treating as unsatisfied",
			zap.String("edge_id", edge.ID),
			zap.String("condition", edge.Condition),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// matchBranchMarker compares a literal "true"/"false" condition against a
// branch marker in the source output: a "branch" field carrying the branch
// name, or a "result" field carrying a bool or number. The second return
// value reports whether a marker was found at all.
func matchBranchMarker(cond string, sourceOutput any) (matched, found bool) {
	m, ok := sourceOutput.(map[string]any)
	if !ok {
		return false, false
	}
	if branch, ok := m["branch"].(string); ok {
		return strings.EqualFold(branch, cond), true
	}
	switch result := m["result"].(type) {
	case bool:
		return result == (cond == "true"), true
	case float64:
		return (result != 0) == (cond == "true"), true
	case int:
		return (result != 0) == (cond == "true"), true
	case int64:
		return (result != 0) == (cond == "true"), true
	}
	return false, false
}

var (
	boolTrueRe  = regexp.MustCompile(`(?i)\btrue\b`)
	boolFalseRe = regexp.MustCompile(`(?i)\bfalse\b`)
)

// normalizeExpression rewrites common alternate syntaxes into the restricted
// expression dialect: strict equality operators, symbolic boolean operators,
// and mixed-case boolean literals. Quoted string literals pass through
// untouched so values like "True" keep their exact spelling.
func normalizeExpression(cond string) string {
	var b strings.Builder
	b.Grow(len(cond) + 8)
	start := 0
	for i := 0; i < len(cond); {
		c := cond[i]
		if c != '"' && c != '\'' {
			i++
			continue
		}
		b.WriteString(normalizeSegment(cond[start:i]))
		end := closingQuote(cond, i)
		b.WriteString(cond[i:end])
		start = end
		i = end
	}
	b.WriteString(normalizeSegment(cond[start:]))
	return b.String()
}

func normalizeSegment(s string) string {
	s = strings.ReplaceAll(s, "===", "==")
	s = strings.ReplaceAll(s, "!==", "!=")
	s = strings.ReplaceAll(s, "&&", " and ")
	s = strings.ReplaceAll(s, "||", " or ")
	s = boolTrueRe.ReplaceAllString(s, "true")
	s = boolFalseRe.ReplaceAllString(s, "false")
	return s
}

// closingQuote returns the index just past the string literal opening at i,
// honoring backslash escapes. An unterminated literal runs to the end of the
// input and is left for the expression compiler to reject.
func closingQuote(cond string, i int) int {
	quote := cond[i]
	for j := i + 1; j < len(cond); j++ {
		switch cond[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(cond)
}

// evalExpression compiles and runs a restricted boolean expression in a
// sandboxed evaluator. The panic guard keeps evaluator bugs from escaping
// the fail-closed contract.
func (g *ConditionGate) evalExpression(cond string, env map[string]any) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = fmt.Errorf("condition evaluation panicked: %v", r)
		}
	}()

	program, err := expr.Compile(normalizeExpression(cond), expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", cond, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", cond, err)
	}
	b, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T)", cond, output)
	}
	return b, nil
}

// buildConditionEnv assembles the variable scope for one edge evaluation:
// the run's initial input keys (when it is a map), the source output keys
// (preferring a nested "output" sub-map), and the context and node_output
// bindings, which are always present.
func buildConditionEnv(sourceOutput, initialInput any, runContext map[string]any) map[string]any {
	env := make(map[string]any)
	if m, ok := initialInput.(map[string]any); ok {
		for k, v := range m {
			env[k] = v
		}
	}
	switch out := sourceOutput.(type) {
	case map[string]any:
		if sub, ok := out["output"].(map[string]any); ok {
			for k, v := range sub {
				env[k] = v
			}
		} else {
			for k, v := range out {
				env[k] = v
			}
		}
	default:
		env["value"] = sourceOutput
		env["output"] = sourceOutput
	}
	if runContext == nil {
		runContext = map[string]any{}
	}
	env["context"] = runContext
	env["node_output"] = sourceOutput
	return env
}
