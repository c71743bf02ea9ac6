// Package posterior holds tables of posterior draws and the summaries the
// chapters report: precis tables, compatibility intervals, and the chain
// diagnostics used to judge whether a sampler can be trusted.
package posterior

import (
	"gonum.org/v1/gonum/mat"

	"rethink/errors"
)

// Draws is a table of posterior samples: one row per draw, one column per
// parameter, each draw tagged with the chain that produced it. Immutable
// once built.
type Draws struct {
	params []string
	pindex map[string]int
	values *mat.Dense // rows x params
	chain  []int      // chain index per row, 0-based
	chains int
}

// New builds a Draws table. chain tags each row with its 0-based chain; pass
// nil for single-chain or non-MCMC draws.
func New(params []string, values *mat.Dense, chain []int) (*Draws, error) {
	r, c := values.Dims()
	if c != len(params) {
		return nil, errors.Newf("posterior: %d columns for %d parameters", c, len(params))
	}
	if chain == nil {
		chain = make([]int, r)
	}
	if len(chain) != r {
		return nil, errors.Newf("posterior: %d chain tags for %d draws", len(chain), r)
	}
	chains := 0
	for _, ch := range chain {
		if ch < 0 {
			return nil, errors.Newf("posterior: negative chain index %d", ch)
		}
		if ch+1 > chains {
			chains = ch + 1
		}
	}
	pindex := make(map[string]int, len(params))
	for i, p := range params {
		if _, dup := pindex[p]; dup {
			return nil, errors.Newf("posterior: duplicate parameter %s", p)
		}
		pindex[p] = i
	}
	return &Draws{
		params: params,
		pindex: pindex,
		values: values,
		chain:  chain,
		chains: chains,
	}, nil
}

// N returns the number of draws
func (d *Draws) N() int {
	r, _ := d.values.Dims()
	return r
}

// Chains returns the number of chains that contributed draws
func (d *Draws) Chains() int { return d.chains }

// Params returns the parameter names in column order
func (d *Draws) Params() []string {
	out := make([]string, len(d.params))
	copy(out, d.params)
	return out
}

// Column returns a copy of one parameter's draws
func (d *Draws) Column(param string) ([]float64, error) {
	i, ok := d.pindex[param]
	if !ok {
		return nil, errors.NewNotFoundError("parameter %q", param)
	}
	out := make([]float64, d.N())
	mat.Col(out, i, d.values)
	return out, nil
}

// ChainColumn returns a copy of one parameter's draws from a single chain
func (d *Draws) ChainColumn(param string, chain int) ([]float64, error) {
	i, ok := d.pindex[param]
	if !ok {
		return nil, errors.NewNotFoundError("parameter %q", param)
	}
	if chain < 0 || chain >= d.chains {
		return nil, errors.Newf("posterior: chain %d out of range [0, %d)", chain, d.chains)
	}
	var out []float64
	for r := 0; r < d.N(); r++ {
		if d.chain[r] == chain {
			out = append(out, d.values.At(r, i))
		}
	}
	return out, nil
}

// At returns the value of one parameter in one draw
func (d *Draws) At(row int, param string) (float64, error) {
	i, ok := d.pindex[param]
	if !ok {
		return 0, errors.NewNotFoundError("parameter %q", param)
	}
	return d.values.At(row, i), nil
}

// Flat is the gob-friendly wire form of a Draws table, used by the fit cache
type Flat struct {
	Params []string
	Chain  []int
	Values []float64 // row-major
	Rows   int
	Cols   int
}

// Flatten converts to the wire form
func (d *Draws) Flatten() Flat {
	r, c := d.values.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		values = append(values, d.values.RawRowView(i)...)
	}
	chain := make([]int, len(d.chain))
	copy(chain, d.chain)
	return Flat{
		Params: d.Params(),
		Chain:  chain,
		Values: values,
		Rows:   r,
		Cols:   c,
	}
}

// FromFlat rebuilds a Draws table from its wire form
func FromFlat(f Flat) (*Draws, error) {
	if f.Rows*f.Cols != len(f.Values) {
		return nil, errors.Newf("posterior: %d values for %dx%d table", len(f.Values), f.Rows, f.Cols)
	}
	return New(f.Params, mat.NewDense(f.Rows, f.Cols, f.Values), f.Chain)
}
