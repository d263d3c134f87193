// internal/imaging/canvas.go
package imaging

import (
	"image"
	"sync"

	"github.com/ColonelBlimp/tonecast/internal/modem"
	"github.com/ColonelBlimp/tonecast/internal/protocol"
)

// Canvas paints payload bytes into an image as they are decoded. It is a
// modem.Observer; completed frames are handed to the onFrame callback.
type Canvas struct {
	mu      sync.Mutex
	img     *image.NRGBA
	width   int
	row     int
	onFrame func(img *image.NRGBA)
}

// NewCanvas creates a canvas. onFrame may be nil.
func NewCanvas(onFrame func(img *image.NRGBA)) *Canvas {
	return &Canvas{onFrame: onFrame}
}

// OnFrameStart allocates a black, opaque image for the new frame.
func (c *Canvas) OnFrameStart(width, height int) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	c.mu.Lock()
	c.img = img
	c.width = width
	c.row = 0
	c.mu.Unlock()
}

// OnPayloadByte writes one colour channel of one pixel.
func (c *Canvas) OnPayloadByte(index int, value byte, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.img == nil {
		return
	}
	pixel := index / protocol.BytesPerPixel
	channel := index % protocol.BytesPerPixel
	offset := pixel*4 + channel
	if offset >= len(c.img.Pix) {
		return
	}
	c.img.Pix[offset] = value
	if channel == protocol.BytesPerPixel-1 {
		c.row = pixel / c.width
	}
}

// OnStatus hands the finished image to onFrame when a frame is received.
func (c *Canvas) OnStatus(s modem.Status) {
	if s.Kind != modem.StatusFrameReceived {
		return
	}
	img := c.Image()
	if img != nil && c.onFrame != nil {
		c.onFrame(img)
	}
}

func (c *Canvas) OnSync(int) {}

func (c *Canvas) OnProgress(int) {}

// Image returns a copy of the current frame, or nil before the first header.
func (c *Canvas) Image() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.img == nil {
		return nil
	}
	out := *c.img
	out.Pix = append([]byte(nil), c.img.Pix...)
	return &out
}

// Row returns the image row currently being decoded.
func (c *Canvas) Row() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.row
}
