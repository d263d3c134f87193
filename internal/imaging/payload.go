// internal/imaging/payload.go
package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"slices"

	"github.com/ColonelBlimp/tonecast/internal/protocol"
	"golang.org/x/image/draw"
)

var (
	// ErrUnknownPreset indicates a preset name that is not defined
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrPayloadSize indicates an RGB payload that does not match its dimensions
	ErrPayloadSize = errors.New("payload size does not match dimensions")
)

// Preset is a named transmit resolution.
type Preset struct {
	Name   string
	Width  int
	Height int
}

var presets = map[string]Preset{
	"fast":   {Name: "fast", Width: 24, Height: 18},
	"normal": {Name: "normal", Width: 32, Height: 24},
	"slow":   {Name: "slow", Width: 40, Height: 30},
}

// DefaultPreset is used when none is configured.
const DefaultPreset = "normal"

// LookupPreset returns the preset called name.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownPreset, name, PresetNames())
	}
	return p, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load decodes a PNG, JPEG or GIF file.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// ToRGB scales img to width x height, composites it over black and returns
// the interleaved RGB payload in row-major order.
func ToRGB(img image.Image, width, height int) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	payload := make([]byte, 0, width*height*protocol.BytesPerPixel)
	for i := 0; i < len(dst.Pix); i += 4 {
		payload = append(payload, dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2])
	}
	return payload
}

// FromRGB builds an opaque image from an interleaved RGB payload.
func FromRGB(payload []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || len(payload) != width*height*protocol.BytesPerPixel {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrPayloadSize, len(payload), width, height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for p := 0; p < width*height; p++ {
		copy(img.Pix[p*4:p*4+3], payload[p*3:p*3+3])
		img.Pix[p*4+3] = 0xff
	}
	return img, nil
}
