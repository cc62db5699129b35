// internal/app/policy/deletepolicy/deletepolicy.go
package deletepolicy

import (
	"fmt"
	"strings"

	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/google/cel-go/cel"
	"go.uber.org/zap"
)

// Default mirrors workflow.DefaultDeletePolicy: the cooperation office may
// delete anything unfinished, a proposer only its own draft.
const Default = `role == "LEMBAGA_KERJA_SAMA" || (owner && status == "DRAFT")`

// Policy is a compiled CEL delete rule. The expression sees four variables:
//
//	status  string  current document status, e.g. "REVIEW_DKG"
//	role    string  acting role, e.g. "FAKULTAS"
//	level   string  "MOU", "MOA" or "IA"
//	owner   bool    whether the actor proposed the document
//
// It must evaluate to a bool. SELESAI documents are never deletable no matter
// what the expression says; the engine checks that before asking the policy.
type Policy struct {
	expr string
	prg  cel.Program
	log  *zap.Logger
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("status", cel.StringType),
		cel.Variable("role", cel.StringType),
		cel.Variable("level", cel.StringType),
		cel.Variable("owner", cel.BoolType),
	)
}

// Compile parses and type-checks expr. An empty expr compiles Default.
func Compile(expr string, log *zap.Logger) (*Policy, error) {
	if log == nil {
		log = zap.NewNop()
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = Default
	}

	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("delete policy: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("delete policy must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("delete policy program: %w", err)
	}
	return &Policy{expr: expr, prg: prg, log: log}, nil
}

// Validate reports whether expr compiles. Config validation uses it.
func Validate(expr string) error {
	_, err := Compile(expr, nil)
	return err
}

// Expr returns the source expression.
func (p *Policy) Expr() string { return p.expr }

// AllowDelete evaluates the rule. Evaluation errors deny.
func (p *Policy) AllowDelete(in workflow.DeleteInput) bool {
	out, _, err := p.prg.Eval(map[string]any{
		"status": string(in.Status),
		"role":   string(in.Role),
		"level":  string(in.Level),
		"owner":  in.Owner,
	})
	if err != nil {
		p.log.Warn("delete policy evaluation failed; denying",
			zap.String("expr", p.expr), zap.Error(err))
		return false
	}
	allowed, ok := out.Value().(bool)
	return ok && allowed
}

var _ workflow.DeletePolicy = (*Policy)(nil)
