// internal/session/logobserver.go
package session

import (
	"github.com/ColonelBlimp/tonecast/internal/modem"
	"github.com/charmbracelet/log"
)

// progressStep is the percent granularity of progress log lines.
const progressStep = 10

type logObserver struct {
	logger       *log.Logger
	lastProgress int
}

// NewLogObserver returns an observer that writes decoder events to logger.
// Errors log at warn level, sync and progress at debug.
func NewLogObserver(logger *log.Logger) modem.Observer {
	return &logObserver{logger: logger, lastProgress: -1}
}

func (o *logObserver) OnStatus(s modem.Status) {
	if s.Kind == modem.StatusListening {
		o.lastProgress = -1
	}
	if s.IsError() {
		o.logger.Warn(s.String(), "err", s.Err)
		return
	}
	o.logger.Info(s.String())
}

func (o *logObserver) OnSync(headerBytes int) {
	if headerBytes > 0 {
		o.logger.Debug("sync", "header_bytes", headerBytes)
	}
}

func (o *logObserver) OnProgress(percent int) {
	step := percent / progressStep
	if step == o.lastProgress {
		return
	}
	o.lastProgress = step
	o.logger.Debug("progress", "percent", percent)
}

func (o *logObserver) OnFrameStart(width, height int) {
	o.lastProgress = -1
	o.logger.Info("receiving frame", "width", width, "height", height)
}

func (o *logObserver) OnPayloadByte(int, byte, int) {}
