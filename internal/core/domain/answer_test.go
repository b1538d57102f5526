package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentAction_Constructors(t *testing.T) {
	s := SearchAction("vector search", "cosine")
	assert.Equal(t, ActionSearch, s.Kind)
	assert.Equal(t, []string{"vector search", "cosine"}, s.Queries)
	assert.Equal(t, "search(vector search | cosine)", s.String())

	y := SynthesizeAction("iteration cap")
	assert.Equal(t, ActionSynthesize, y.Kind)
	assert.Equal(t, "synthesize(iteration cap)", y.String())

	n := NeedsMoreInfoAction("which project?")
	assert.Equal(t, ActionNeedsMoreInfo, n.Kind)
	assert.Equal(t, "needs_more_info", n.Kind.String())
}

func TestIndexReport_Succeeded(t *testing.T) {
	r := &IndexReport{Indexed: 3, Reindexed: 2, Unchanged: 7}
	assert.Equal(t, 5, r.Succeeded())
}
