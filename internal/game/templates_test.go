package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateByID(t *testing.T) {
	tpl, err := TemplateByID("arithmetic-basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic Arithmetic", tpl.Name)
	assert.Equal(t, 10, tpl.Config.Count)
	assert.Equal(t, []Operation{OpAdd, OpSubtract}, tpl.Config.Operations)
}

func TestTemplateByID_Unknown(t *testing.T) {
	_, err := TemplateByID("calculus-101")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestTemplates_AllGenerate(t *testing.T) {
	for _, tpl := range Templates() {
		t.Run(tpl.ID, func(t *testing.T) {
			questions, err := Generate(tpl.Config, testRand())
			require.NoError(t, err)
			assert.Len(t, questions, tpl.Config.Count)
		})
	}
}
