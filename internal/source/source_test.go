// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-markdown/pkg/types"
)

func TestLabelPages(t *testing.T) {
	got := LabelPages([]string{"first", "", "third"})
	assert.Equal(t, []string{"[Page 1]\nfirst", "[Page 2]\n", "[Page 3]\nthird"}, got)
	assert.Empty(t, LabelPages(nil))
}

func TestTextPages_MissingFile(t *testing.T) {
	_, err := TextPages(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open pdf")
}

func TestSortNatural(t *testing.T) {
	names := []string{"page-10.png", "page-2.png", "cover.png", "page-1.png", "scan_003.jpg"}
	SortNatural(names)
	assert.Equal(t, []string{"page-1.png", "page-2.png", "scan_003.jpg", "page-10.png", "cover.png"}, names)
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
}

func TestDirImages_Render(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, "p10.png", "p2.jpg", "p1.png", "notes.txt")

	images, err := DirImages{Dir: dir}.Render(context.Background(), "/docs/report.pdf")
	require.NoError(t, err)
	require.Len(t, images, 3)

	assert.Equal(t, []byte("p1.png"), images[0].Data)
	assert.Equal(t, "image/jpeg", images[1].MIMEType)
	assert.Equal(t, []byte("p10.png"), images[2].Data)
}

func TestDirImages_PrefersDocumentSubdir(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, "stray.png")
	writeImages(t, filepath.Join(dir, "report"), "1.png", "2.png")

	images, err := DirImages{Dir: dir}.Render(context.Background(), "report.pdf")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, []byte("1.png"), images[0].Data)
}

func TestDirImages_Empty(t *testing.T) {
	_, err := DirImages{Dir: t.TempDir()}.Render(context.Background(), "x.pdf")
	assert.ErrorIs(t, err, types.ErrNoPages)
}

// fakeRuntime echoes the requested page number as the image bytes.
type fakeRuntime struct {
	calls [][]string
	fail  int
}

func (f *fakeRuntime) Name() string                              { return "fake" }
func (f *fakeRuntime) Available(context.Context) bool            { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return nil }
func (f *fakeRuntime) Run(_ context.Context, _ string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.calls = append(f.calls, args)
	if len(f.calls) == f.fail {
		return errors.New("exit 1")
	}
	_, _ = io.Copy(io.Discard, stdin)
	_, err := fmt.Fprintf(stdout, "png-page-%s", args[5])
	return err
}

func TestContainerRasterizer_Render(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	rt := &fakeRuntime{}
	r := &ContainerRasterizer{
		Runtime:   rt,
		Image:     "poppler",
		PageCount: func(string) (int, error) { return 3, nil },
	}
	images, err := r.Render(context.Background(), pdfPath)
	require.NoError(t, err)
	require.Len(t, images, 3)

	assert.Equal(t, []byte("png-page-1"), images[0].Data)
	assert.Equal(t, []byte("png-page-3"), images[2].Data)
	assert.Equal(t, Args(1, types.DefaultDPI), rt.calls[0])
}

func TestContainerRasterizer_Errors(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	t.Run("no pages", func(t *testing.T) {
		r := &ContainerRasterizer{Runtime: &fakeRuntime{}, PageCount: func(string) (int, error) { return 0, nil }}
		_, err := r.Render(context.Background(), pdfPath)
		assert.ErrorIs(t, err, types.ErrNoPages)
	})

	t.Run("run failure names page", func(t *testing.T) {
		r := &ContainerRasterizer{Runtime: &fakeRuntime{fail: 2}, PageCount: func(string) (int, error) { return 3, nil }}
		_, err := r.Render(context.Background(), pdfPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rendering page 2")
	})
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"pdftoppm", "-png", "-r", "144", "-f", "4", "-l", "4", "-singlefile", "-"}, Args(4, 144))
}

func TestNewImageSource(t *testing.T) {
	src, err := NewImageSource(context.Background(), types.RasterConfig{Source: types.RasterDir, ImagesDir: "pages"})
	require.NoError(t, err)
	assert.Equal(t, DirImages{Dir: "pages"}, src)

	_, err = NewImageSource(context.Background(), types.RasterConfig{Source: types.RasterDir})
	assert.Error(t, err)

	_, err = NewImageSource(context.Background(), types.RasterConfig{Source: "scanner"})
	assert.ErrorIs(t, err, types.ErrUnknownRaster)
}
