package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePdftoppm writes "<page>@<dpi>" to <root>.png and fails for page 99
const fakePdftoppm = `#!/bin/sh
page=""
dpi=""
while [ $# -gt 2 ]; do
  case "$1" in
    -f) page="$2"; shift ;;
    -r) dpi="$2"; shift ;;
  esac
  shift
done
if [ "$page" = "99" ]; then
  echo "Wrong page range given" >&2
  exit 99
fi
printf '%s@%s' "$page" "$dpi" > "$2.png"
`

func setup(t *testing.T) (cmd, pdfPath string) {
	t.Helper()
	dir := t.TempDir()
	cmd = filepath.Join(dir, "pdftoppm")
	require.NoError(t, os.WriteFile(cmd, []byte(fakePdftoppm), 0o755))
	pdfPath = filepath.Join(dir, "BGC.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))
	return cmd, pdfPath
}

func TestRenderPage(t *testing.T) {
	cmd, pdfPath := setup(t)
	r := NewRenderer(cmd, t.TempDir(), 2)

	data, err := r.RenderPage(context.Background(), pdfPath, 4, 2)
	require.NoError(t, err)
	// 0-based index 4 is page 5; scale 2 is 144 dpi
	assert.Equal(t, "5@144", string(data))

	_, err = r.RenderPage(context.Background(), pdfPath, -1, 2)
	assert.Error(t, err)

	_, err = r.RenderPage(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), 0, 2)
	assert.Error(t, err)
}

func TestCaptureOmitsFailures(t *testing.T) {
	cmd, pdfPath := setup(t)
	out := filepath.Join(t.TempDir(), "shots")
	r := NewRenderer(cmd, out, 2)

	shots := r.Capture(context.Background(), pdfPath, []int{2, 98, 6})
	require.Len(t, shots, 2)
	assert.Equal(t, 2, shots[0].Page)
	assert.Equal(t, 6, shots[1].Page)
	assert.Equal(t, filepath.Join(out, "BGC-page-2.png"), shots[0].Path)

	data, err := os.ReadFile(shots[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "7@144", string(data))
}

func TestCaptureMissingCommand(t *testing.T) {
	_, pdfPath := setup(t)
	r := NewRenderer(filepath.Join(t.TempDir(), "no-such-binary"), t.TempDir(), 1)

	assert.Empty(t, r.Capture(context.Background(), pdfPath, []int{0, 1}))
	assert.Nil(t, r.Capture(context.Background(), pdfPath, nil))
}
