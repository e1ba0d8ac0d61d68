package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r, err := New("dark", 60)
	require.NoError(t, err)

	out := r.Render("Use the **STAR** method:\n\n- Situation\n- Task")
	assert.Contains(t, out, "STAR")
	assert.Contains(t, out, "Situation")
	assert.NotContains(t, out, "**")
}

func TestNew_MinimumWidth(t *testing.T) {
	r, err := New("light", 3)
	require.NoError(t, err)
	assert.Equal(t, 20, r.Width())
	assert.Equal(t, "light", r.Style())
}

func TestRender_NilRenderer(t *testing.T) {
	var r *Renderer
	assert.Equal(t, "plain *text*", r.Render("plain *text*"))
}
