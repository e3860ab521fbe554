package dialogs

import (
	"testing"

	"layercanvas/internal/aifx"
	"layercanvas/internal/batch"
	"layercanvas/internal/generate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest("  a lighthouse at dusk ", " fog ", "512x512", "3")
	require.NoError(t, err)
	assert.Equal(t, "a lighthouse at dusk", req.Prompt)
	assert.Equal(t, "fog", req.NegativePrompt)
	assert.Equal(t, generate.Size{Width: 512, Height: 512}, req.Size)
	assert.Equal(t, 3, req.Count)
	assert.Equal(t, -1, req.Seed)

	req, err = buildRequest("boats", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, generate.NewRequest("boats"), req)

	_, err = buildRequest("   ", "", "512x512", "1")
	assert.ErrorIs(t, err, generate.ErrEmptyPrompt)
	_, err = buildRequest("boats", "", "huge", "1")
	assert.Error(t, err)
	_, err = buildRequest("boats", "", "512x512", "0")
	assert.Error(t, err)
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, generate.ServiceLocal, serviceName("LOCAL"))
	assert.Equal(t, generate.ServiceStableHorde, serviceName(""))
	assert.Equal(t, generate.ServiceStableHorde, serviceName("stablehorde"))
}

func TestVariations(t *testing.T) {
	vars, err := variations("rotation=90", false)
	require.NoError(t, err)
	assert.Equal(t, []batch.Variation{{Type: batch.Rotation, Number: 90}}, vars)

	vars, err = variations("rotation=90", true)
	require.NoError(t, err)
	require.Len(t, vars, 1+len(aifx.Effects()))
	assert.Equal(t, batch.Custom, vars[1].Type)
	assert.Equal(t, aifx.Effects()[0].Name(), vars[1].Value)

	_, err = variations("# nothing", false)
	assert.Error(t, err)
	_, err = variations("spin=90", false)
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, positiveInt(" 12 "))
	assert.Error(t, positiveInt("0"))
	assert.Error(t, positiveInt("twelve"))
	assert.NoError(t, nonNegativeInt("0"))
	assert.Error(t, nonNegativeInt("-1"))
}
