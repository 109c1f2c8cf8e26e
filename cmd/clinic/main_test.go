package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "seed", "notify-worker", "remind"}, names)

	seed, _, err := root.Find([]string{"seed"})
	require.NoError(t, err)
	require.NotNil(t, seed.Flags().Lookup("file"))
	assert.Equal(t, "f", seed.Flags().Lookup("file").Shorthand)

	remind, _, err := root.Find([]string{"remind"})
	require.NoError(t, err)
	assert.NotNil(t, remind.Flags().Lookup("loop"))
}
