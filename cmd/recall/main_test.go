package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRadii(t *testing.T) {
	got, err := parseRadii(" 0.05, 0.1,,0.2 ")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.05, 0.1, 0.2}, got)

	for _, bad := range []string{"", "0.1,x", "-0.1", "0"} {
		_, err := parseRadii(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestMeasure(t *testing.T) {
	rep, err := measure("", 0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.1, rep.Radius)
	assert.Equal(t, 1.0, rep.Recall)
}
