// cmd/receive.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ColonelBlimp/tonecast/internal/audio"
	"github.com/ColonelBlimp/tonecast/internal/config"
	"github.com/ColonelBlimp/tonecast/internal/imaging"
	"github.com/ColonelBlimp/tonecast/internal/modem"
	"github.com/ColonelBlimp/tonecast/internal/recovery"
	"github.com/ColonelBlimp/tonecast/internal/session"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flushSeconds of silence follow a WAV file so the last symbols are decoded.
const flushSeconds = 0.5

var errNoImage = errors.New("no image decoded")

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Listen for images and save them as PNG",
	Long: `Listen on the microphone and save every received image as a PNG file in
the output directory. With --wav a recorded WAV file is decoded instead.`,
	Args: cobra.NoArgs,
	RunE: runReceive,
}

func init() {
	rootCmd.AddCommand(receiveCmd)

	receiveCmd.Flags().StringP("wav", "i", "", "decode this WAV file instead of the microphone")
	receiveCmd.Flags().Bool("calibrate", false, "with --wav, measure noise on the file's leading audio")
	receiveCmd.Flags().StringP("out", "o", "received", "directory for received images")

	viper.BindPFlag("output_dir", receiveCmd.Flags().Lookup("out"))
}

func runReceive(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), s.Debug)

	saver, err := imaging.NewSaver(s.OutputDir, s.OutputPattern)
	if err != nil {
		return err
	}

	var received atomic.Int32
	canvas := imaging.NewCanvas(func(img *image.NRGBA) {
		path, err := saver.Save(img, time.Now())
		if err != nil {
			logger.Error("save image", "err", err)
			return
		}
		received.Add(1)
		logger.Info("image saved", "path", path)
	})
	obs := modem.Observers(session.NewLogObserver(logger), canvas)

	wavPath, _ := cmd.Flags().GetString("wav")
	if wavPath != "" {
		calibrate, _ := cmd.Flags().GetBool("calibrate")
		if err := receiveFile(s, obs, wavPath, calibrate); err != nil {
			return err
		}
		if received.Load() == 0 {
			return fmt.Errorf("%w from %s", errNoImage, wavPath)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return receiveLive(ctx, s, obs, logger)
}

// receiveFile decodes a recording in capture-sized chunks.
func receiveFile(s *config.Settings, obs modem.Observer, path string, calibrate bool) error {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}

	cfg := s.ReceiverConfig(rate)
	if !calibrate {
		cfg.Calibration = 0
	}
	r, err := session.NewReceiver(cfg, obs)
	if err != nil {
		return err
	}

	samples = append(samples, make([]float32, int(rate*flushSeconds))...)
	chunk := max(1, s.BufferSize)
	return recovery.Safe(func() error {
		for start := 0; start < len(samples); start += chunk {
			r.Push(samples[start:min(start+chunk, len(samples))])
		}
		return nil
	})
}

func receiveLive(ctx context.Context, s *config.Settings, obs modem.Observer, logger *log.Logger) error {
	capture := audio.New(s.CaptureConfig())
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer func() { _ = capture.Close() }()

	r, err := session.NewReceiver(s.ReceiverConfig(s.SampleRate), obs)
	if err != nil {
		return err
	}

	if err := capture.Start(ctx); err != nil {
		return fmt.Errorf("audio start: %w", err)
	}
	logger.Info("listening", "sample_rate", s.SampleRate, "output_dir", s.OutputDir,
		"calibration", s.ReceiverConfig(s.SampleRate).Calibration)

	err = recovery.Safe(func() error {
		return r.Run(ctx, capture.Samples)
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("stopped")
		return nil
	}
	return err
}
