// Package model parses model specification strings and compiles them against
// a dataset into an unnormalized log-posterior.
//
// A specification is a short declarative program, one statement per line:
//
//	height ~ Normal(mu, sigma)
//	mu <- a + b * weight_c
//	a ~ Normal(178, 20)
//	b ~ LogNormal(0, 1)
//	sigma ~ Uniform(0, 50)
//
// Stochastic statements (`~`) relate a name to a distribution. When the name
// is a column of the data, the statement is a likelihood; otherwise it
// declares a parameter with that prior. Deterministic statements (`<-`)
// define derived quantities, optionally through a logit link:
//
//	admit ~ Binomial(applications, p)
//	logit(p) <- a + b * is_male
//
// This is a notation for the models the chapters actually fit, not a
// probabilistic programming language; distributions and their log-densities
// come from gonum.
package model

import (
	"strings"

	"rethink/errors"
)

// StmtKind discriminates statement forms
type StmtKind int

const (
	// Stochastic is `name ~ Dist(args...)`
	Stochastic StmtKind = iota
	// Deterministic is `name <- expr` or `logit(name) <- expr`
	Deterministic
)

// Stmt is one parsed statement of a specification
type Stmt struct {
	Kind StmtKind
	Name string
	Line int // 1-based line in the source, for error reporting

	// Stochastic only
	Dist DistCall

	// Deterministic only
	Link string // "" or "logit"
	Expr Expr
}

// DistCall names a distribution and its argument expressions
type DistCall struct {
	Name string
	Args []Expr
}

// Spec is a parsed model specification
type Spec struct {
	Source string
	Stmts  []Stmt
}

// Parse parses a model specification string. Statements are separated by
// newlines; blank lines and `#` comments are ignored.
func Parse(source string) (*Spec, error) {
	spec := &Spec{Source: source}
	seen := map[string]int{}

	for i, rawLine := range strings.Split(source, "\n") {
		lineNo := i + 1
		line := rawLine
		if hash := strings.Index(line, "#"); hash >= 0 {
			line = line[:hash]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		stmt, err := parseStmt(line, lineNo)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if prev, dup := seen[stmt.Name]; dup {
			return nil, errors.NewInvalidSpecError("line %d: %s already defined on line %d", lineNo, stmt.Name, prev)
		}
		seen[stmt.Name] = lineNo
		spec.Stmts = append(spec.Stmts, stmt)
	}

	if len(spec.Stmts) == 0 {
		return nil, errors.NewInvalidSpecError("empty model specification")
	}
	return spec, nil
}

func parseStmt(line string, lineNo int) (Stmt, error) {
	if lhs, rhs, ok := strings.Cut(line, "<-"); ok {
		return parseDeterministic(strings.TrimSpace(lhs), strings.TrimSpace(rhs), lineNo)
	}
	if lhs, rhs, ok := strings.Cut(line, "~"); ok {
		return parseStochastic(strings.TrimSpace(lhs), strings.TrimSpace(rhs), lineNo)
	}
	return Stmt{}, errors.NewInvalidSpecError("statement %q has neither ~ nor <-", line)
}

func parseStochastic(lhs, rhs string, lineNo int) (Stmt, error) {
	if !isValidName(lhs) {
		return Stmt{}, errors.NewInvalidSpecError("bad name %q on left of ~", lhs)
	}

	open := strings.Index(rhs, "(")
	if open < 0 || !strings.HasSuffix(rhs, ")") {
		return Stmt{}, errors.NewInvalidSpecError("expected Dist(args...) after ~, got %q", rhs)
	}
	distName := strings.TrimSpace(rhs[:open])
	if _, known := distributions[distName]; !known {
		return Stmt{}, errors.NewInvalidSpecError("unknown distribution %q (known: %s)", distName, knownDistributions())
	}

	argSrc := rhs[open+1 : len(rhs)-1]
	args, err := splitArgs(argSrc)
	if err != nil {
		return Stmt{}, err
	}
	if want := distributions[distName].arity; len(args) != want {
		return Stmt{}, errors.NewInvalidSpecError("%s takes %d arguments, got %d", distName, want, len(args))
	}

	exprs := make([]Expr, len(args))
	for i, a := range args {
		e, err := parseExpr(a)
		if err != nil {
			return Stmt{}, err
		}
		exprs[i] = e
	}

	return Stmt{
		Kind: Stochastic,
		Name: lhs,
		Line: lineNo,
		Dist: DistCall{Name: distName, Args: exprs},
	}, nil
}

func parseDeterministic(lhs, rhs string, lineNo int) (Stmt, error) {
	link := ""
	name := lhs
	if strings.HasPrefix(lhs, "logit(") && strings.HasSuffix(lhs, ")") {
		link = "logit"
		name = strings.TrimSpace(lhs[len("logit(") : len(lhs)-1])
	}
	if !isValidName(name) {
		return Stmt{}, errors.NewInvalidSpecError("bad name %q on left of <-", lhs)
	}

	expr, err := parseExpr(rhs)
	if err != nil {
		return Stmt{}, err
	}

	return Stmt{
		Kind: Deterministic,
		Name: name,
		Line: lineNo,
		Link: link,
		Expr: expr,
	}, nil
}

// splitArgs splits a distribution argument list on top-level commas
func splitArgs(src string) ([]string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errors.NewInvalidSpecError("unbalanced parentheses in %q", src)
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(src[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.NewInvalidSpecError("unbalanced parentheses in %q", src)
	}
	args = append(args, strings.TrimSpace(src[start:]))
	return args, nil
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if i > 0 && !isIdentPart(r) {
			return false
		}
	}
	return true
}
