package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"rethink/errors"
)

func TestList(t *testing.T) {
	metas, err := List()
	require.NoError(t, err)
	require.Len(t, metas, 3)

	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"howell1", "ucbadmit", "waffledivorce"}, names)

	for _, m := range metas {
		assert.NotEmpty(t, m.Source, "dataset %s must document its source", m.Name)
		assert.NotEmpty(t, m.Columns, "dataset %s must document its columns", m.Name)
	}
}

func TestLoad(t *testing.T) {
	t.Run("howell1 schema", func(t *testing.T) {
		tbl, err := Load("howell1")
		require.NoError(t, err)
		assert.Equal(t, []string{"height", "weight", "age", "male"}, tbl.Columns())
		assert.Equal(t, 60, tbl.Len())

		heights, err := tbl.Floats("height")
		require.NoError(t, err)
		for _, h := range heights {
			assert.Greater(t, h, 50.0)
			assert.Less(t, h, 200.0)
		}
	})

	t.Run("ucbadmit counts are consistent", func(t *testing.T) {
		tbl, err := Load("ucbadmit")
		require.NoError(t, err)
		assert.Equal(t, 12, tbl.Len())

		admit, _ := tbl.Floats("admit")
		reject, _ := tbl.Floats("reject")
		apps, _ := tbl.Floats("applications")
		for i := range admit {
			assert.Equal(t, apps[i], admit[i]+reject[i], "row %d", i)
		}

		gender, err := tbl.Column("applicant_gender")
		require.NoError(t, err)
		assert.Equal(t, String, gender.Kind)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		_, err := Load("milk")
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("hash is stable and name-sensitive", func(t *testing.T) {
		h1, err := Hash("howell1")
		require.NoError(t, err)
		h2, err := Hash("howell1")
		require.NoError(t, err)
		assert.Equal(t, h1, h2)

		h3, err := Hash("ucbadmit")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h3)
	})
}

func TestTableTransforms(t *testing.T) {
	tbl, err := Load("howell1")
	require.NoError(t, err)

	t.Run("filter to adults", func(t *testing.T) {
		adults := tbl.Filter(func(row func(string) float64) bool {
			return row("age") >= 18
		})
		assert.Less(t, adults.Len(), tbl.Len())
		ages, err := adults.Floats("age")
		require.NoError(t, err)
		for _, a := range ages {
			assert.GreaterOrEqual(t, a, 18.0)
		}
	})

	t.Run("standardize", func(t *testing.T) {
		std, err := tbl.Standardized("weight")
		require.NoError(t, err)
		xs, err := std.Floats("weight_std")
		require.NoError(t, err)

		mean, sd := stat.MeanStdDev(xs, nil)
		assert.InDelta(t, 0.0, mean, 1e-10)
		assert.InDelta(t, 1.0, sd, 1e-10)
	})

	t.Run("center", func(t *testing.T) {
		c, err := tbl.Centered("weight")
		require.NoError(t, err)
		xs, err := c.Floats("weight_c")
		require.NoError(t, err)
		assert.InDelta(t, 0.0, stat.Mean(xs, nil), 1e-10)
	})

	t.Run("log of positive column", func(t *testing.T) {
		lg, err := tbl.Logged("height")
		require.NoError(t, err)
		xs, err := lg.Floats("log_height")
		require.NoError(t, err)
		orig, _ := tbl.Floats("height")
		assert.InDelta(t, math.Log(orig[0]), xs[0], 1e-12)
	})

	t.Run("with mismatched column length", func(t *testing.T) {
		_, err := tbl.WithColumn("bad", []float64{1, 2, 3})
		assert.Error(t, err)
	})
}
