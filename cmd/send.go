// cmd/send.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ColonelBlimp/tonecast/internal/audio"
	"github.com/ColonelBlimp/tonecast/internal/config"
	"github.com/ColonelBlimp/tonecast/internal/imaging"
	"github.com/ColonelBlimp/tonecast/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sendCmd = &cobra.Command{
	Use:   "send IMAGE",
	Short: "Transmit an image as audio tones",
	Long: `Scale IMAGE (PNG, JPEG or GIF) to the configured preset and play it
through the speaker. With --wav the tones are written to a WAV file instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringP("preset", "p", "normal", "resolution preset: fast, normal or slow")
	sendCmd.Flags().Int("volume", 92, "output volume percent (0-100)")
	sendCmd.Flags().StringP("wav", "o", "", "write the tones to this WAV file instead of playing them")

	viper.BindPFlag("preset", sendCmd.Flags().Lookup("preset"))
	viper.BindPFlag("volume", sendCmd.Flags().Lookup("volume"))
}

func runSend(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), s.Debug)

	preset, err := imaging.LookupPreset(s.Preset)
	if err != nil {
		return err
	}
	img, err := imaging.Load(args[0])
	if err != nil {
		return err
	}
	payload := imaging.ToRGB(img, preset.Width, preset.Height)

	wavPath, _ := cmd.Flags().GetString("wav")
	player, closePlayer, err := openPlayer(s, wavPath)
	if err != nil {
		return err
	}
	defer closePlayer()

	tx, err := session.NewTransmitter(player, s.SampleRate, s.LeadIn())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("sending", "image", args[0], "preset", preset.Name,
		"width", preset.Width, "height", preset.Height, "volume", s.Volume)

	t, err := tx.Emit(ctx, payload, preset.Width, preset.Height, s.Volume)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("transmission cancelled")
			return nil
		}
		return err
	}

	if wavPath != "" {
		logger.Info("tones written", "path", wavPath, "duration", t.Duration())
	} else {
		logger.Info("image sent", "duration", t.Duration())
	}
	return nil
}

// openPlayer returns the speaker, or a WAV file writer when path is set.
func openPlayer(s *config.Settings, path string) (session.Player, func(), error) {
	if path != "" {
		return audio.WAVPlayer{Path: path, SampleRate: int(s.SampleRate)}, func() {}, nil
	}

	p := audio.NewPlayback(s.PlaybackConfig())
	if err := p.Init(); err != nil {
		return nil, nil, fmt.Errorf("audio init: %w", err)
	}
	return p, func() { _ = p.Close() }, nil
}

var (
	_ session.Player = (*audio.Playback)(nil)
	_ session.Player = audio.WAVPlayer{}
)
