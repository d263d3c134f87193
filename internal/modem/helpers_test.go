// internal/modem/helpers_test.go
package modem

import (
	"github.com/ColonelBlimp/tonecast/internal/protocol"
)

const testSampleRate = 48000.0

// tb is the part of testing.TB that rapid.T also provides.
type tb interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	FailNow()
}

// recorder captures every observer event in order.
type recorder struct {
	statuses []Status
	syncs    []int
	progress []int
	frames   [][2]int
	payload  []byte
	order    []string
	done     bool
}

func (r *recorder) OnStatus(s Status) {
	r.statuses = append(r.statuses, s)
	r.order = append(r.order, "status:"+s.Kind.String())
	if s.Kind == StatusFrameReceived || s.Kind == StatusChecksumMismatch {
		r.done = true
	}
}

func (r *recorder) OnSync(n int) {
	r.syncs = append(r.syncs, n)
}

func (r *recorder) OnProgress(p int) {
	r.progress = append(r.progress, p)
}

func (r *recorder) OnFrameStart(w, h int) {
	r.frames = append(r.frames, [2]int{w, h})
	r.order = append(r.order, "frame")
}

func (r *recorder) OnPayloadByte(index int, value byte, payloadLen int) {
	if index != len(r.payload) {
		panic("payload byte out of order")
	}
	r.payload = append(r.payload, value)
}

func (r *recorder) kinds() []StatusKind {
	out := make([]StatusKind, len(r.statuses))
	for i, s := range r.statuses {
		out[i] = s.Kind
	}
	return out
}

// syncRuns counts the OnSync reports between consecutive zero reports.
func syncRuns(syncs []int) []int {
	var runs []int
	n := -1
	for _, v := range syncs {
		if v == 0 {
			if n >= 0 {
				runs = append(runs, n)
			}
			n = 0
			continue
		}
		n++
	}
	return runs
}

func testPayload(w, h int) []byte {
	p := make([]byte, w*h*protocol.BytesPerPixel)
	for i := range p {
		p[i] = byte(i*131 + 17)
	}
	return p
}

// renderTones renders tones at the test amplitude between a silent lead-in
// and tailSymbols of trailing silence.
func renderTones(t tb, sampleRate float64, tones []protocol.Tone, lead, tailSymbols int) []float32 {
	t.Helper()
	m, err := NewModulator(sampleRate, 0.5)
	if err != nil {
		t.Fatalf("NewModulator failed: %v", err)
	}
	out := make([]float32, lead, lead+(len(tones)+tailSymbols)*m.SymbolSamples())
	out = append(out, m.Render(tones)...)
	return append(out, make([]float32, tailSymbols*m.SymbolSamples())...)
}

func newTestDecoder(t tb, sampleRate float64) (*Decoder, *recorder) {
	t.Helper()
	rec := &recorder{}
	d, err := NewDecoder(Config{SampleRate: sampleRate}, rec)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	return d, rec
}

// feedUntilDone feeds x in chunks and stops after the chunk that completes a
// frame. It returns the number of samples fed.
func feedUntilDone(d *Decoder, rec *recorder, x []float32, chunk int) int {
	for i := 0; i < len(x); i += chunk {
		end := min(i+chunk, len(x))
		d.Feed(x[i:end])
		if rec.done {
			return end
		}
	}
	return len(x)
}
