package media

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"small image untouched", 800, 600, 800, 600},
		{"wide image", 2400, 1200, 1200, 600},
		{"tall image", 1000, 3000, 400, 1200},
		{"square", 5000, 5000, 1200, 1200},
		{"thin strip", 10000, 2, 1200, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.w, tt.h, MaxWidth, MaxHeight)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestSaveImageCompresses(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	src := image.NewNRGBA(image.Rect(0, 0, 2400, 1600))
	for x := 0; x < 2400; x++ {
		src.Set(x, 10, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	name, err := store.SaveImage("player", &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "player_"))
	assert.Equal(t, ".jpg", filepath.Ext(name))

	f, err := os.Open(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestSaveImageRejectsGarbage(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = store.SaveImage("logo", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

// hugeCanvasPNG encodes a tiny PNG and rewrites its IHDR to declare w x h.
func hugeCanvasPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()
	require.Equal(t, "IHDR", string(data[12:16]))

	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestSaveImageRejectsHugeCanvas(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := hugeCanvasPNG(t, 50000, 50000)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 50000, cfg.Width)

	_, err = store.SaveImage("logo", bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRawAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveRaw("drill", "PDF", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(name))

	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Remove(name))
	require.NoError(t, store.Remove(name))
	require.NoError(t, store.Remove(""))
	assert.ErrorIs(t, store.Remove("../etc/passwd"), ErrInvalidName)
}

func TestAllowedExtensions(t *testing.T) {
	assert.True(t, AllowedImageExt("photo.JPG"))
	assert.True(t, AllowedImageExt("a.webp"))
	assert.False(t, AllowedImageExt("a.pdf"))
	assert.True(t, AllowedDocExt("plan.pdf"))
	assert.True(t, AllowedVideoExt("clip.mp4"))
	assert.False(t, AllowedVideoExt("clip.exe"))
}
