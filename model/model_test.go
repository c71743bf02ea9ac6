package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"rethink/dataset"
	"rethink/errors"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable("toy",
		dataset.Column{Name: "y", Kind: dataset.Numeric, Floats: []float64{1.1, 0.4, -0.8, 2.0, 0.3}},
		dataset.Column{Name: "x", Kind: dataset.Numeric, Floats: []float64{0.5, -0.2, -1.0, 1.5, 0.1}},
	)
	require.NoError(t, err)
	return tbl
}

func TestParse(t *testing.T) {
	t.Run("linear regression spec", func(t *testing.T) {
		spec, err := Parse(`
			y ~ Normal(mu, sigma)
			mu <- a + b * x
			a ~ Normal(0, 10)
			b ~ Normal(0, 1)
			sigma ~ Exponential(1)
		`)
		require.NoError(t, err)
		require.Len(t, spec.Stmts, 5)

		assert.Equal(t, Stochastic, spec.Stmts[0].Kind)
		assert.Equal(t, "y", spec.Stmts[0].Name)
		assert.Equal(t, "Normal", spec.Stmts[0].Dist.Name)

		assert.Equal(t, Deterministic, spec.Stmts[1].Kind)
		assert.Equal(t, "mu", spec.Stmts[1].Name)
		assert.Empty(t, spec.Stmts[1].Link)
	})

	t.Run("logit link", func(t *testing.T) {
		spec, err := Parse("logit(p) <- a + b * x\na ~ Normal(0, 1.5)\nb ~ Normal(0, 0.5)")
		require.NoError(t, err)
		assert.Equal(t, "p", spec.Stmts[0].Name)
		assert.Equal(t, "logit", spec.Stmts[0].Link)
	})

	t.Run("comments and blank lines ignored", func(t *testing.T) {
		spec, err := Parse("# prior only\n\na ~ Normal(0, 1)  # standard\n")
		require.NoError(t, err)
		assert.Len(t, spec.Stmts, 1)
	})

	t.Run("unknown distribution", func(t *testing.T) {
		_, err := Parse("a ~ Gumbel(0, 1)")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidSpecError(err))
		assert.Contains(t, err.Error(), "Gumbel")
	})

	t.Run("wrong arity", func(t *testing.T) {
		_, err := Parse("a ~ Normal(0)")
		assert.True(t, errors.IsInvalidSpecError(err))
	})

	t.Run("duplicate definition", func(t *testing.T) {
		_, err := Parse("a ~ Normal(0, 1)\na ~ Normal(0, 2)")
		assert.True(t, errors.IsInvalidSpecError(err))
	})

	t.Run("malformed statement", func(t *testing.T) {
		_, err := Parse("a equals Normal(0, 1)")
		assert.True(t, errors.IsInvalidSpecError(err))
	})
}

func TestParseExpr(t *testing.T) {
	env := func(name string) (float64, bool) {
		vals := map[string]float64{"a": 2, "b": 3, "x": 4}
		v, ok := vals[name]
		return v, ok
	}

	cases := []struct {
		src  string
		want float64
	}{
		{"a + b * x", 14},
		{"(a + b) * x", 20},
		{"-a + x", 2},
		{"a - b - x", -5},
		{"exp(0)", 1},
		{"log(exp(a))", 2},
		{"a / b", 2.0 / 3.0},
		{"1.5e2", 150},
	}
	for _, tc := range cases {
		e, err := parseExpr(tc.src)
		require.NoError(t, err, tc.src)
		assert.InDelta(t, tc.want, e.Eval(env), 1e-12, tc.src)
	}

	t.Run("trailing garbage rejected", func(t *testing.T) {
		_, err := parseExpr("a + b )")
		assert.Error(t, err)
	})

	t.Run("unknown function rejected", func(t *testing.T) {
		_, err := parseExpr("sqrt(a)")
		assert.True(t, errors.IsInvalidSpecError(err))
	})
}

func TestCompile(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("classifies parameters and likelihood", func(t *testing.T) {
		spec, err := Parse(`
			y ~ Normal(mu, sigma)
			mu <- a + b * x
			a ~ Normal(0, 10)
			b ~ Normal(0, 1)
			sigma ~ Exponential(1)
		`)
		require.NoError(t, err)

		m, err := Compile(spec, tbl)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "sigma"}, m.ParamNames())
		assert.Equal(t, 3, m.Dim())
		assert.Equal(t, 5, m.Rows())
	})

	t.Run("unresolved name rejected", func(t *testing.T) {
		spec, err := Parse("y ~ Normal(mu, 1)\nmu <- a + b * z\na ~ Normal(0, 1)\nb ~ Normal(0, 1)")
		require.NoError(t, err)
		_, err = Compile(spec, tbl)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidSpecError(err))
		assert.Contains(t, err.Error(), "z")
	})

	t.Run("data-dependent prior rejected", func(t *testing.T) {
		spec, err := Parse("a ~ Normal(x, 1)")
		require.NoError(t, err)
		_, err = Compile(spec, tbl)
		assert.True(t, errors.IsInvalidSpecError(err))
	})

	t.Run("no parameters rejected", func(t *testing.T) {
		spec, err := Parse("y ~ Normal(0, 1)")
		require.NoError(t, err)
		_, err = Compile(spec, tbl)
		assert.True(t, errors.IsInvalidSpecError(err))
	})
}

func TestLogProb(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("matches hand-computed gaussian density", func(t *testing.T) {
		spec, err := Parse("y ~ Normal(mu, 1)\nmu ~ Normal(0, 10)")
		require.NoError(t, err)
		m, err := Compile(spec, tbl)
		require.NoError(t, err)

		mu := 0.7
		want := distuv.Normal{Mu: 0, Sigma: 10}.LogProb(mu)
		ys, _ := tbl.Floats("y")
		for _, y := range ys {
			want += distuv.Normal{Mu: mu, Sigma: 1}.LogProb(y)
		}
		assert.InDelta(t, want, m.LogProb([]float64{mu}), 1e-10)
	})

	t.Run("out-of-support prior is minus infinity", func(t *testing.T) {
		spec, err := Parse("y ~ Normal(mu, sigma)\nmu ~ Normal(0, 10)\nsigma ~ Uniform(0, 50)")
		require.NoError(t, err)
		m, err := Compile(spec, tbl)
		require.NoError(t, err)

		assert.True(t, math.IsInf(m.LogProb([]float64{0, -1}), -1))
		assert.False(t, math.IsInf(m.LogProb([]float64{0, 1}), -1))
	})

	t.Run("logit link keeps probabilities valid", func(t *testing.T) {
		bino, err := dataset.NewTable("flips",
			dataset.Column{Name: "k", Kind: dataset.Numeric, Floats: []float64{3, 5, 1}},
			dataset.Column{Name: "n", Kind: dataset.Numeric, Floats: []float64{10, 10, 10}},
		)
		require.NoError(t, err)

		spec, err := Parse("k ~ Binomial(n, p)\nlogit(p) <- a\na ~ Normal(0, 1.5)")
		require.NoError(t, err)
		m, err := Compile(spec, bino)
		require.NoError(t, err)

		// Even extreme intercepts stay finite through the link
		lp := m.LogProb([]float64{20})
		assert.False(t, math.IsNaN(lp))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		spec, err := Parse("a ~ Normal(0, 1)")
		require.NoError(t, err)
		m, err := Compile(spec, nil)
		require.NoError(t, err)
		assert.True(t, math.IsInf(m.LogProb([]float64{0, 0}), -1))
	})
}

func TestInitialPoint(t *testing.T) {
	spec, err := Parse("a ~ Normal(178, 20)\nsigma ~ Uniform(0, 50)")
	require.NoError(t, err)
	m, err := Compile(spec, nil)
	require.NoError(t, err)

	init := m.InitialPoint()
	assert.InDelta(t, 178, init[0], 1e-12)
	assert.InDelta(t, 25, init[1], 1e-12)
}

func TestPriorSample(t *testing.T) {
	spec, err := Parse("sigma ~ Uniform(0, 50)\na ~ Normal(0, 1)")
	require.NoError(t, err)
	m, err := Compile(spec, nil)
	require.NoError(t, err)

	src := rand.NewSource(1)
	for i := 0; i < 100; i++ {
		theta := m.PriorSample(src)
		assert.GreaterOrEqual(t, theta[0], 0.0)
		assert.LessOrEqual(t, theta[0], 50.0)
	}
}
