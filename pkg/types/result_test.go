package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkewJSON(t *testing.T) {
	out, err := json.Marshal(ColumnResult{
		Column:     "4046",
		SkewBefore: Skew{Value: 1.5, Defined: true},
		SkewAfter:  Skew{Value: math.NaN()},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"skewBefore":1.5`)
	assert.Contains(t, string(out), `"skewAfter":null`)
	assert.NotContains(t, string(out), "skewTransformed")
	assert.Contains(t, string(out), `"q1":null`)
	assert.Contains(t, string(out), `"upper":null`)

	var back ColumnResult
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, back.SkewBefore.Defined)
	assert.Equal(t, 1.5, back.SkewBefore.Value)
	assert.False(t, back.SkewAfter.Defined)
	assert.True(t, math.IsNaN(back.SkewAfter.Value))
	assert.Nil(t, back.Q1)
}

func TestRowsRemoved(t *testing.T) {
	r := &AnalysisResult{RowsIn: 20, RowsAfterClean: 18, RowsOut: 15}
	assert.Equal(t, 3, r.RowsRemoved())
}
