package media

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerRegistry_Loads(t *testing.T) {
	r, err := NewViewerRegistry()
	require.NoError(t, err)

	assert.Contains(t, r.viewers, "feh")
	assert.Contains(t, r.viewers, "start")
	assert.NotEmpty(t, r.DefaultOpener())
}

func TestViewerRegistry_UnknownViewer(t *testing.T) {
	r, err := NewViewerRegistry()
	require.NoError(t, err)

	cmd, err := r.Command("my-viewer", "/tmp/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-viewer", "/tmp/a.jpg"}, cmd.Args)
}

func TestViewerRegistry_KnownViewerArgs(t *testing.T) {
	r, err := NewViewerRegistry()
	require.NoError(t, err)

	cmd, err := r.Command("feh", "/tmp/a.jpg")
	if runtime.GOOS != "linux" && runtime.GOOS != "freebsd" && runtime.GOOS != "openbsd" {
		assert.Error(t, err)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, []string{"feh", "--scale-down", "--auto-zoom", "/tmp/a.jpg"}, cmd.Args)
}

func TestViewerRegistry_CommandOverride(t *testing.T) {
	r, err := NewViewerRegistry()
	require.NoError(t, err)

	cmd, err := r.Command("start", "C:\\a.jpg")
	if runtime.GOOS != "windows" {
		assert.Error(t, err)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd", "/c", "start", "", "C:\\a.jpg"}, cmd.Args)
}

func TestViewerRegistry_DoesNotMutateDefinitions(t *testing.T) {
	r := &ViewerRegistry{viewers: map[string]ViewerDefinition{
		"v": {Args: make([]string, 1, 4)},
	}}

	a, err := r.Command("v", "one")
	require.NoError(t, err)
	b, err := r.Command("v", "two")
	require.NoError(t, err)
	assert.Equal(t, "one", a.Args[len(a.Args)-1])
	assert.Equal(t, "two", b.Args[len(b.Args)-1])
}
