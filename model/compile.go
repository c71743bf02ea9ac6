package model

import (
	"math"

	"golang.org/x/exp/rand"

	"rethink/dataset"
	"rethink/errors"
)

// Model is a specification compiled against a dataset. It exposes the
// unnormalized log-posterior the inference engines work on.
type Model struct {
	spec *Spec

	params []string       // parameter names, declaration order
	pindex map[string]int // name -> index into theta

	priors  []Stmt // stochastic statements over parameters
	likes   []like // stochastic statements over data columns
	determs []Stmt // deterministic statements, declaration order

	data map[string][]float64 // numeric columns referenced by the spec
	rows int
}

type like struct {
	stmt Stmt
	obs  []float64
}

// Compile resolves a specification's names against tbl and returns a Model.
// tbl may be nil for pure-prior models (no likelihood statements).
func Compile(spec *Spec, tbl *dataset.Table) (*Model, error) {
	m := &Model{
		spec:   spec,
		pindex: map[string]int{},
		data:   map[string][]float64{},
	}

	determNames := map[string]bool{}
	for _, s := range spec.Stmts {
		if s.Kind == Deterministic {
			determNames[s.Name] = true
		}
	}

	// Classify stochastic statements: a name that matches a numeric data
	// column is observed (likelihood); anything else is a parameter.
	for _, s := range spec.Stmts {
		switch s.Kind {
		case Stochastic:
			if tbl != nil && tbl.Has(s.Name) {
				obs, err := tbl.Floats(s.Name)
				if err != nil {
					return nil, err
				}
				m.likes = append(m.likes, like{stmt: s, obs: obs})
				m.rows = len(obs)
				continue
			}
			if determNames[s.Name] {
				return nil, errors.NewInvalidSpecError("line %d: %s is defined both by ~ and <-", s.Line, s.Name)
			}
			m.pindex[s.Name] = len(m.params)
			m.params = append(m.params, s.Name)
			m.priors = append(m.priors, s)
		case Deterministic:
			m.determs = append(m.determs, s)
		}
	}

	if len(m.params) == 0 {
		return nil, errors.NewInvalidSpecError("specification declares no parameters")
	}

	// Validate references and collect the data columns the spec reads
	for _, s := range spec.Stmts {
		var refs []string
		if s.Kind == Stochastic {
			for _, a := range s.Dist.Args {
				refs = append(refs, uniqueVars(a)...)
			}
		} else {
			refs = uniqueVars(s.Expr)
		}
		for _, name := range refs {
			if _, isParam := m.pindex[name]; isParam {
				continue
			}
			if determNames[name] {
				continue
			}
			if tbl != nil && tbl.Has(name) {
				if _, cached := m.data[name]; !cached {
					col, err := tbl.Floats(name)
					if err != nil {
						return nil, err
					}
					m.data[name] = col
					if m.rows == 0 {
						m.rows = len(col)
					}
				}
				continue
			}
			return nil, errors.NewInvalidSpecError(
				"line %d: %s is not a parameter, deterministic name, or data column", s.Line, name)
		}
	}

	// Priors over parameters may only reference constants and other
	// parameters; data-dependent priors have no single value per draw.
	for _, s := range m.priors {
		for _, a := range s.Dist.Args {
			for _, name := range uniqueVars(a) {
				if _, isParam := m.pindex[name]; !isParam {
					return nil, errors.NewInvalidSpecError(
						"line %d: prior for %s references %s, which is not a parameter", s.Line, s.Name, name)
				}
			}
		}
	}

	return m, nil
}

// ParamNames returns the parameter names in declaration order
func (m *Model) ParamNames() []string {
	out := make([]string, len(m.params))
	copy(out, m.params)
	return out
}

// Dim returns the number of parameters
func (m *Model) Dim() int { return len(m.params) }

// Rows returns the number of observations
func (m *Model) Rows() int { return m.rows }

// Source returns the specification source text
func (m *Model) Source() string { return m.spec.Source }

// LogProb evaluates the unnormalized log-posterior at theta. Invalid
// distribution arguments (a negative sigma, a probability outside the unit
// interval) yield -Inf, so samplers reject such proposals naturally.
// LogProb satisfies the target interface of gonum's samplemv samplers.
func (m *Model) LogProb(theta []float64) float64 {
	if len(theta) != len(m.params) {
		return math.Inf(-1)
	}

	paramEnv := func(name string) (float64, bool) {
		if i, ok := m.pindex[name]; ok {
			return theta[i], true
		}
		return 0, false
	}

	lp := 0.0
	for _, s := range m.priors {
		d, err := m.buildDist(s.Dist, paramEnv, nil)
		if err != nil {
			return math.Inf(-1)
		}
		lp += d.LogProb(theta[m.pindex[s.Name]])
		if math.IsInf(lp, -1) || math.IsNaN(lp) {
			return math.Inf(-1)
		}
	}

	if len(m.likes) == 0 {
		return lp
	}

	derived := make(map[string]float64, len(m.determs))
	for r := 0; r < m.rows; r++ {
		env := func(name string) (float64, bool) {
			if i, ok := m.pindex[name]; ok {
				return theta[i], true
			}
			if v, ok := derived[name]; ok {
				return v, true
			}
			if col, ok := m.data[name]; ok {
				return col[r], true
			}
			return 0, false
		}

		for _, s := range m.determs {
			v := s.Expr.Eval(env)
			if s.Link == "logit" {
				v = invLogit(v)
			}
			derived[s.Name] = v
		}

		for _, l := range m.likes {
			d, err := m.buildDist(l.stmt.Dist, env, nil)
			if err != nil {
				return math.Inf(-1)
			}
			lp += d.LogProb(l.obs[r])
			if math.IsInf(lp, -1) || math.IsNaN(lp) {
				return math.Inf(-1)
			}
		}

		for k := range derived {
			delete(derived, k)
		}
	}

	return lp
}

// InitialPoint returns a starting point for optimizers and samplers: each
// parameter at its prior mean, falling back to 1 when the mean is not finite.
func (m *Model) InitialPoint() []float64 {
	theta := make([]float64, len(m.params))
	env := func(name string) (float64, bool) {
		if i, ok := m.pindex[name]; ok {
			return theta[i], true
		}
		return 0, false
	}
	// Declaration order, so priors referencing earlier parameters see their
	// initialized values.
	for _, s := range m.priors {
		i := m.pindex[s.Name]
		d, err := m.buildDist(s.Dist, env, nil)
		if err != nil {
			theta[i] = 1
			continue
		}
		mean := d.Mean()
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			mean = 1
		}
		theta[i] = mean
	}
	return theta
}

// PriorSample draws one point from the joint prior, used to start chains at
// dispersed positions.
func (m *Model) PriorSample(src rand.Source) []float64 {
	theta := make([]float64, len(m.params))
	env := func(name string) (float64, bool) {
		if i, ok := m.pindex[name]; ok {
			return theta[i], true
		}
		return 0, false
	}
	for _, s := range m.priors {
		i := m.pindex[s.Name]
		d, err := m.buildDist(s.Dist, env, src)
		if err != nil {
			theta[i] = 1
			continue
		}
		theta[i] = d.Rand()
	}
	return theta
}

func (m *Model) buildDist(dc DistCall, env Env, src rand.Source) (Dist, error) {
	args := make([]float64, len(dc.Args))
	for i, a := range dc.Args {
		v := a.Eval(env)
		if math.IsNaN(v) {
			return nil, errors.Newf("%s: argument %d is NaN", dc.Name, i)
		}
		args[i] = v
	}
	return distributions[dc.Name].build(args, src)
}

func invLogit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
