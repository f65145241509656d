// Package drc runs design-rule checks over an exported design. The rules
// are a built-in rego policy; every finding is a warning and never fails
// the design.
package drc

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/export"
)

//go:embed policy.rego
var policySource string

const query = "data.hdlforge.drc.violations"

// Finding is one rule violation.
type Finding struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Module   string `json:"module"`
	Member   string `json:"member"`
	Message  string `json:"message"`
}

// Checker evaluates the prepared policy.
type Checker struct {
	query rego.PreparedEvalQuery
}

// New prepares the built-in policy.
func New(ctx context.Context) (*Checker, error) {
	q, err := rego.New(
		rego.Module("policy.rego", policySource),
		rego.Query(query),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing design rules: %w", err)
	}
	return &Checker{query: q}, nil
}

// Check evaluates the rules against the design. Findings are sorted by
// module, rule and member.
func (c *Checker) Check(ctx context.Context, d *export.Design) ([]Finding, error) {
	input, err := toInput(d)
	if err != nil {
		return nil, err
	}

	rs, err := c.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating design rules: %w", err)
	}

	var findings []Finding
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		raw, err := json.Marshal(rs[0].Expressions[0].Value)
		if err != nil {
			return nil, fmt.Errorf("decoding design rule results: %w", err)
		}
		if err := json.Unmarshal(raw, &findings); err != nil {
			return nil, fmt.Errorf("decoding design rule results: %w", err)
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Member < b.Member
	})

	ctxlog.FromContext(ctx).Debug("DRC: Rules evaluated.", "findings", len(findings))
	return findings, nil
}

// toInput converts the design into the generic form rego evaluates.
func toInput(d *export.Design) (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding design for rules: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("encoding design for rules: %w", err)
	}
	return input, nil
}
