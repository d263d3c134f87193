// internal/modem/decoder.go
package modem

import (
	"math"
	"time"

	"github.com/ColonelBlimp/tonecast/internal/dsp"
	"github.com/ColonelBlimp/tonecast/internal/protocol"
)

// Decoder limits
const (
	// MaxSymbolsPerPass caps symbol classifications in one Process call
	MaxSymbolsPerPass = 96
	// MaxPayloadEmitPerPass caps OnPayloadByte calls in one Process call
	MaxPayloadEmitPerPass = 220
	// MaxInvalidBeforeHeader is the consecutive unreadable symbol limit while hunting
	MaxInvalidBeforeHeader = 260
	// MaxInvalidAfterHeader is the consecutive unreadable symbol limit while receiving
	MaxInvalidAfterHeader = 280
	// HeaderSearchBytes is how many bytes may pass without a header before giving up
	HeaderSearchBytes = 120
	// HeaderLookback bounds how far back the header scan looks
	HeaderLookback = 32
	// PreambleMatchRatio is the fraction of preamble symbols that must match
	PreambleMatchRatio = 0.62
	// MinStartMatches is the fewest start-marker symbols that must match
	MinStartMatches = 2
	// MaxBufferDuration is the longest stretch of audio retained
	MaxBufferDuration = 14 * time.Second
	// TrimBufferDuration is what remains after a trim
	TrimBufferDuration = 8 * time.Second

	// symbols of slack past the start marker before a lock is attempted
	lockSlackSymbols = 4
	// how far back the scan restarts after returning to search
	searchRewindSymbols = 6
)

var minPreambleMatches = int(math.Floor(protocol.PreambleSymbols * PreambleMatchRatio))

// State is the decoder's position in the receive cycle.
type State int

const (
	// StateSearching: scanning for preamble and start marker
	StateSearching State = iota
	// StateHunting: locked, assembling bytes until a header is found
	StateHunting
	// StateReceiving: header accepted, collecting payload
	StateReceiving
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateHunting:
		return "hunting"
	case StateReceiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// Config holds decoder settings.
type Config struct {
	// SampleRate of the incoming audio in Hz (from config: sample_rate)
	SampleRate float64
	// LockMinSNR is the noise-normalized power a preamble or start tone needs
	// to count toward lock while a noise profile is active. 0 disables the
	// check (from config: lock_min_snr)
	LockMinSNR float64
}

// Decoder is the receive state machine. It owns a rolling sample buffer and
// reports everything through its Observer. A Decoder is driven by a single
// caller; it is not safe for concurrent use.
type Decoder struct {
	observer   Observer
	sampleRate float64
	symbol     int

	buf      *SampleBuffer
	bank     *dsp.ToneBank
	detector *dsp.Detector

	// search
	scan int

	// lock, positions are absolute buffer positions
	locked       bool
	cursor       int
	lockData     int
	phaseRetried bool

	// frame assembly
	pending    int // high nibble waiting for its low half, -1 if none
	bytes      []byte
	header     protocol.Header
	expected   int // full packet length once a header is accepted, else 0
	emitted    int
	invalid    int
	emitBudget int
}

// NewDecoder creates a decoder that reports to obs. A nil obs discards events.
func NewDecoder(cfg Config, obs Observer) (*Decoder, error) {
	if cfg.SampleRate <= 0 {
		return nil, dsp.ErrInvalidSampleRate
	}
	if obs == nil {
		obs = NopObserver{}
	}

	symbol := protocol.SymbolSamples(cfg.SampleRate)
	freqs := protocol.Frequencies()
	bank, err := dsp.NewToneBank(freqs[:], cfg.SampleRate, symbol)
	if err != nil {
		return nil, err
	}

	candidates := make([]int, protocol.NibbleValues)
	for n := range candidates {
		candidates[n] = int(protocol.NibbleTone(byte(n)))
	}
	detector, err := dsp.NewDetector(dsp.DetectorConfig{
		Candidates: candidates,
		Confidence: dsp.DefaultConfidence,
		Margin:     dsp.DefaultMargin,
		MinSNR:     cfg.LockMinSNR,
	}, bank)
	if err != nil {
		return nil, err
	}

	maxLen := int(math.Round(cfg.SampleRate * MaxBufferDuration.Seconds()))
	trimLen := int(math.Round(cfg.SampleRate * TrimBufferDuration.Seconds()))

	return &Decoder{
		observer:   obs,
		sampleRate: cfg.SampleRate,
		symbol:     symbol,
		buf:        NewSampleBuffer(maxLen, trimLen),
		bank:       bank,
		detector:   detector,
		pending:    -1,
	}, nil
}

// SymbolSamples returns the symbol length in samples.
func (d *Decoder) SymbolSamples() int {
	return d.symbol
}

// SampleRate returns the configured sample rate.
func (d *Decoder) SampleRate() float64 {
	return d.sampleRate
}

// State returns the current receive state.
func (d *Decoder) State() State {
	switch {
	case !d.locked:
		return StateSearching
	case d.expected == 0:
		return StateHunting
	default:
		return StateReceiving
	}
}

// Locked reports whether the decoder currently holds lock.
func (d *Decoder) Locked() bool {
	return d.locked
}

// Calibrate measures a noise profile from samples and activates it. On
// failure the decoder keeps running uncalibrated.
func (d *Decoder) Calibrate(samples []float32) error {
	return d.bank.Calibrate(samples)
}

// DisableNoiseProfile stops noise normalization.
func (d *Decoder) DisableNoiseProfile() {
	d.bank.DisableNoiseFloor()
}

// NoiseReady reports whether a noise profile is active.
func (d *Decoder) NoiseReady() bool {
	return d.bank.NoiseFloorActive()
}

// Feed appends samples and runs one bounded processing pass.
func (d *Decoder) Feed(samples []float32) {
	d.Append(samples)
	d.Process()
}

// Append adds samples to the rolling buffer. Stored positions that fall
// behind a trim are clamped to the oldest retained sample.
func (d *Decoder) Append(samples []float32) {
	if d.buf.Append(samples) == 0 {
		return
	}
	d.scan = d.buf.Clamp(d.scan)
	if d.locked {
		d.cursor = d.buf.Clamp(d.cursor)
		d.lockData = d.buf.Clamp(d.lockData)
	}
}

// Process runs one pass: a lock search if unlocked, then at most
// MaxSymbolsPerPass symbol decisions and MaxPayloadEmitPerPass payload
// emissions. Remaining work is left for the next call.
func (d *Decoder) Process() {
	d.emitBudget = MaxPayloadEmitPerPass
	if !d.locked {
		d.tryLock()
	}
	if d.locked {
		d.decodeSymbols(MaxSymbolsPerPass)
	}
	// bytes held back by an exhausted emit budget
	if d.locked && d.expected > 0 && d.emitted < d.availablePayload() {
		d.flushPayload()
		d.checkFrame()
	}
}

func (d *Decoder) window(pos int) []float32 {
	return d.buf.Window(pos, d.symbol)
}

func (d *Decoder) tryLock() {
	need := (protocol.PreambleSymbols + protocol.StartSymbols + lockSlackSymbols) * d.symbol
	if d.buf.Len() < need {
		return
	}

	step := max(4, d.symbol/4)
	maxOffset := d.buf.End() - need
	best, bestScore := -1, 0

	for off := d.buf.Clamp(d.scan); off <= maxOffset; off += step {
		pre := d.preambleScore(off)
		if pre < minPreambleMatches {
			continue
		}
		start := d.startScore(off)
		if start < MinStartMatches {
			continue
		}
		if score := pre + start; best < 0 || score > bestScore {
			best, bestScore = off, score
		}
	}

	d.scan = d.buf.Clamp(maxOffset - d.symbol)
	if best < 0 {
		return
	}

	off := d.refineLock(best)
	d.locked = true
	d.cursor = off + (protocol.PreambleSymbols+protocol.StartSymbols)*d.symbol
	d.lockData = d.cursor
	d.phaseRetried = false
	d.clearFrame()
	d.observer.OnStatus(Status{Kind: StatusLocked})
	d.observer.OnSync(0)
}

// preambleTones returns the expected and the competing preamble tone for symbol i.
func preambleTones(i int) (want, other int) {
	if i%2 == 0 {
		return int(protocol.TonePreambleA), int(protocol.TonePreambleB)
	}
	return int(protocol.TonePreambleB), int(protocol.TonePreambleA)
}

func (d *Decoder) preambleScore(off int) int {
	score := 0
	for i := 0; i < protocol.PreambleSymbols; i++ {
		want, other := preambleTones(i)
		if d.detector.Dominates(d.window(off+i*d.symbol), want, other) {
			score++
		}
	}
	return score
}

func (d *Decoder) startScore(off int) int {
	score := 0
	base := off + protocol.PreambleSymbols*d.symbol
	for j := 0; j < protocol.StartSymbols; j++ {
		if d.detector.Dominates(d.window(base+j*d.symbol),
			int(protocol.ToneStart), int(protocol.TonePreambleA), int(protocol.TonePreambleB)) {
			score++
		}
	}
	return score
}

// refineLock moves a coarse lock offset to the sample position where the
// preamble and start marker line up best with the symbol grid. The coarse
// scan can accept a partial preamble match up to lockSlackSymbols early.
func (d *Decoder) refineLock(coarse int) int {
	region := (protocol.PreambleSymbols + protocol.StartSymbols) * d.symbol
	lo := d.buf.Clamp(coarse - d.symbol/2)
	hi := min(coarse+lockSlackSymbols*d.symbol+d.symbol/2, d.buf.End()-region)
	if hi < lo {
		return coarse
	}

	best, bestScore := coarse, d.alignment(coarse)
	for off := lo; off <= hi; off += 2 {
		if s := d.alignment(off); s > bestScore {
			best, bestScore = off, s
		}
	}
	for _, off := range []int{best - 1, best + 1} {
		if off < lo || off > hi {
			continue
		}
		if s := d.alignment(off); s > bestScore {
			best, bestScore = off, s
		}
	}
	return best
}

// alignment sums the per-symbol tone contrast of the preamble and start
// marker assuming they begin at off.
func (d *Decoder) alignment(off int) float64 {
	var score float64
	for i := 0; i < protocol.PreambleSymbols; i++ {
		want, other := preambleTones(i)
		score += d.detector.Contrast(d.window(off+i*d.symbol), want, other)
	}
	base := off + protocol.PreambleSymbols*d.symbol
	for j := 0; j < protocol.StartSymbols; j++ {
		score += d.detector.Contrast(d.window(base+j*d.symbol),
			int(protocol.ToneStart), int(protocol.TonePreambleA), int(protocol.TonePreambleB))
	}
	return score
}

func (d *Decoder) decodeSymbols(limit int) {
	for n := 0; n < limit && d.locked; n++ {
		if d.expected > 0 && len(d.bytes) >= d.expected {
			return
		}
		w := d.window(d.cursor)
		if w == nil {
			return
		}
		nibble, ok := d.detector.Classify(w)
		d.cursor += d.symbol

		if !ok {
			d.invalid++
			maxInvalid := MaxInvalidBeforeHeader
			if d.expected > 0 {
				maxInvalid = MaxInvalidAfterHeader
			}
			if d.invalid > maxInvalid {
				d.resetToSearch(Status{Kind: StatusSignalLost, Err: ErrSignalLost})
			}
			continue
		}

		d.invalid = 0
		if d.pending < 0 {
			d.pending = nibble
			continue
		}
		b := byte(d.pending<<4 | nibble)
		d.pending = -1
		d.handleByte(b)
	}
}

func (d *Decoder) handleByte(b byte) {
	d.bytes = append(d.bytes, b)

	if d.expected == 0 {
		d.observer.OnSync(min(protocol.HeaderSize, len(d.bytes)))

		if len(d.bytes) >= protocol.HeaderSize {
			if pos := protocol.FindHeader(d.bytes, len(d.bytes)-HeaderLookback); pos >= 0 {
				d.acceptHeader(pos)
			}
		}

		if d.expected == 0 {
			if len(d.bytes) >= HeaderSearchBytes && !d.retryPhase() {
				d.resetToSearch(Status{Kind: StatusHeaderNotFound, Err: ErrHeaderNotFound})
			}
			return
		}
	}

	d.flushPayload()
	d.checkFrame()
}

func (d *Decoder) acceptHeader(pos int) {
	if pos > 0 {
		d.bytes = append(d.bytes[:0], d.bytes[pos:]...)
	}
	d.header, _ = protocol.HeaderAt(d.bytes, 0)
	d.expected = d.header.PacketLen()
	d.emitted = 0
	d.observer.OnFrameStart(d.header.Width, d.header.Height)
}

// retryPhase restarts byte assembly one symbol after the lock point, which
// swaps high and low nibble pairing. It is tried once per lock.
func (d *Decoder) retryPhase() bool {
	if d.phaseRetried {
		return false
	}
	d.phaseRetried = true
	d.cursor = d.lockData + d.symbol
	d.clearFrame()
	d.observer.OnStatus(Status{Kind: StatusResync})
	d.observer.OnSync(0)
	return true
}

func (d *Decoder) availablePayload() int {
	return max(0, min(d.header.PayloadLen(), len(d.bytes)-protocol.HeaderSize))
}

func (d *Decoder) flushPayload() {
	payloadLen := d.header.PayloadLen()
	available := d.availablePayload()
	for d.emitted < available && d.emitBudget > 0 {
		i := d.emitted
		d.observer.OnPayloadByte(i, d.bytes[protocol.HeaderSize+i], payloadLen)
		d.emitted++
		d.emitBudget--
	}
}

// checkFrame validates the frame once every byte has arrived and every
// payload byte has been emitted; otherwise it reports progress.
func (d *Decoder) checkFrame() {
	payloadLen := d.header.PayloadLen()
	if len(d.bytes) < d.expected || d.emitted < payloadLen {
		pct := int(math.Round(float64(d.emitted) / float64(max(1, payloadLen)) * 100))
		d.observer.OnProgress(min(100, pct))
		return
	}

	if err := protocol.VerifyChecksum(d.bytes[:d.expected]); err != nil {
		d.observer.OnStatus(Status{Kind: StatusChecksumMismatch, Err: err})
		d.resetToSearch(Status{Kind: StatusListening, Err: err})
		return
	}
	d.observer.OnProgress(100)
	d.observer.OnStatus(Status{Kind: StatusFrameReceived})
	d.resetToSearch(Status{Kind: StatusListening})
}

func (d *Decoder) clearFrame() {
	d.pending = -1
	d.bytes = d.bytes[:0]
	d.header = protocol.Header{}
	d.expected = 0
	d.emitted = 0
	d.invalid = 0
}

// resetToSearch drops lock and frame state. The sample buffer and the noise
// profile are kept, and the scan resumes a few symbols before the newest sample.
func (d *Decoder) resetToSearch(s Status) {
	d.locked = false
	d.cursor = 0
	d.lockData = 0
	d.phaseRetried = false
	d.clearFrame()
	d.scan = d.buf.Clamp(d.buf.End() - searchRewindSymbols*d.symbol)
	d.observer.OnStatus(s)
	d.observer.OnSync(0)
	d.observer.OnProgress(0)
}
