// Package screen provides CEL-based eligibility screens: operator-defined
// boolean expressions that gate which entities each detector family may
// evaluate. Screens are compiled once at startup; a screen that fails to
// compile is a configuration error and aborts the run.
package screen

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/annuityworks/kestrel/internal/domain"
)

// Target names the entity class a screen evaluates against.
const (
	TargetPolicy    = "policy"
	TargetPortfolio = "portfolio"
)

// Config is one operator-defined screen.
type Config struct {
	Name       string   `mapstructure:"name"`
	Target     string   `mapstructure:"target"`
	Families   []string `mapstructure:"families"`
	Expression string   `mapstructure:"expression"`
}

type compiledScreen struct {
	cfg     Config
	program cel.Program
}

// Screener evaluates the compiled screens. A family/entity pair passes when
// every applicable screen returns true.
type Screener struct {
	policy    []compiledScreen
	portfolio []compiledScreen
	logger    *slog.Logger
}

// New compiles every screen against its target environment. Any compile
// failure, unknown target, or non-boolean expression is returned as an
// error; callers treat that as fatal.
func New(configs []Config, logger *slog.Logger) (*Screener, error) {
	policyEnv, err := cel.NewEnv(
		cel.Variable("age", cel.IntType),
		cel.Variable("state", cel.StringType),
		cel.Variable("risk_tolerance", cel.StringType),
		cel.Variable("objective", cel.StringType),
		cel.Variable("account_value", cel.DoubleType),
		cel.Variable("product_type", cel.StringType),
		cel.Variable("carrier", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("building policy screen environment: %w", err)
	}
	portfolioEnv, err := cel.NewEnv(
		cel.Variable("age", cel.IntType),
		cel.Variable("state", cel.StringType),
		cel.Variable("risk_tolerance", cel.StringType),
		cel.Variable("objective", cel.StringType),
		cel.Variable("total_portfolio_value", cel.DoubleType),
		cel.Variable("cash_allocation", cel.DoubleType),
		cel.Variable("equity_allocation", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("building portfolio screen environment: %w", err)
	}

	s := &Screener{logger: logger}
	for _, cfg := range configs {
		var env *cel.Env
		switch cfg.Target {
		case TargetPolicy:
			env = policyEnv
		case TargetPortfolio:
			env = portfolioEnv
		default:
			return nil, fmt.Errorf("screen %s: unknown target %q", cfg.Name, cfg.Target)
		}

		ast, issues := env.Compile(cfg.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("screen %s: %w", cfg.Name, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("screen %s: expression must return bool, got %s", cfg.Name, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("screen %s: %w", cfg.Name, err)
		}

		compiled := compiledScreen{cfg: cfg, program: program}
		if cfg.Target == TargetPolicy {
			s.policy = append(s.policy, compiled)
		} else {
			s.portfolio = append(s.portfolio, compiled)
		}
	}
	return s, nil
}

// Count returns the number of compiled screens.
func (s *Screener) Count() int {
	return len(s.policy) + len(s.portfolio)
}

// AllowPolicy reports whether the family may evaluate this policy.
func (s *Screener) AllowPolicy(family string, p *domain.Policy, profile *domain.ClientProfile) bool {
	activation := map[string]any{
		"age":            0,
		"state":          p.ApplicationState,
		"risk_tolerance": "",
		"objective":      "",
		"account_value":  p.AccountValue,
		"product_type":   p.ProductType,
		"carrier":        p.Carrier,
	}
	if profile != nil {
		activation["age"] = profile.Current.Age
		activation["risk_tolerance"] = profile.Current.RiskTolerance
		activation["objective"] = profile.Current.PrimaryObjective
	}
	return s.allow(s.policy, family, activation)
}

// AllowPortfolio reports whether the family may evaluate this portfolio.
func (s *Screener) AllowPortfolio(family string, pf *domain.Portfolio, profile *domain.ClientProfile) bool {
	activation := map[string]any{
		"age":                   0,
		"state":                 "",
		"risk_tolerance":        "",
		"objective":             "",
		"total_portfolio_value": pf.TotalValue,
		"cash_allocation":       pf.Summary.CashAllocation,
		"equity_allocation":     pf.Summary.EquityAllocation,
	}
	if profile != nil {
		activation["age"] = profile.Current.Age
		activation["state"] = profile.Current.State
		activation["risk_tolerance"] = profile.Current.RiskTolerance
		activation["objective"] = profile.Current.PrimaryObjective
	}
	return s.allow(s.portfolio, family, activation)
}

// allow evaluates every screen bound to the family. A runtime evaluation
// error fails open: the screen is logged and ignored so one bad expression
// cannot silently suppress a whole detector family.
func (s *Screener) allow(screens []compiledScreen, family string, activation map[string]any) bool {
	for _, sc := range screens {
		if !appliesTo(sc.cfg.Families, family) {
			continue
		}
		out, _, err := sc.program.Eval(activation)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("screen evaluation failed, allowing entity",
					"screen", sc.cfg.Name, "family", family, "error", err)
			}
			continue
		}
		if out != types.True {
			return false
		}
	}
	return true
}

// appliesTo reports whether a screen's family list covers the given family.
// An empty list covers all families.
func appliesTo(families []string, family string) bool {
	if len(families) == 0 {
		return true
	}
	for _, f := range families {
		if f == family {
			return true
		}
	}
	return false
}
