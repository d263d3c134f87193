package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"fast", 24, 18},
		{"normal", 32, 24},
		{"slow", 40, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupPreset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.w, p.Width)
			assert.Equal(t, tt.h, p.Height)
		})
	}

	_, err := LookupPreset("ludicrous")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, []string{"fast", "normal", "slow"}, PresetNames())

	_, err = LookupPreset(DefaultPreset)
	assert.NoError(t, err)
}

func TestToRGB_SameSize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 30), B: 200, A: 255})
		}
	}

	payload := ToRGB(src, 8, 8)
	require.Len(t, payload, 8*8*3)
	// pixel (3, 5)
	i := (5*8 + 3) * 3
	assert.Equal(t, []byte{90, 150, 200}, payload[i:i+3])
}

func TestToRGB_ScalesAndFlattensAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 255, 0, 0, 255
	}
	// right half transparent
	for y := 0; y < 50; y++ {
		for x := 50; x < 100; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
		}
	}

	payload := ToRGB(src, 24, 18)
	require.Len(t, payload, 24*18*3)
	assert.Equal(t, []byte{255, 0, 0}, payload[0:3], "opaque red stays red")
	last := len(payload) - 3
	assert.Equal(t, []byte{0, 0, 0}, payload[last:], "transparent becomes black")
}

func TestFromRGB(t *testing.T) {
	payload := make([]byte, 8*9*3)
	for i := range payload {
		payload[i] = byte(i)
	}
	img, err := FromRGB(payload, 8, 9)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 9), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 3, G: 4, B: 5, A: 255}, img.NRGBAAt(1, 0))

	assert.Equal(t, payload, ToRGB(img, 8, 9), "opaque images survive the round trip")

	_, err = FromRGB(payload[:10], 8, 9)
	assert.ErrorIs(t, err, ErrPayloadSize)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")

	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	src.SetNRGBA(1, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{9, 8, 7}, []uint32{r >> 8, g >> 8, b >> 8})

	_, err = Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("nope"), 0644))
	_, err = Load(junk)
	assert.ErrorIs(t, err, image.ErrFormat)
}
