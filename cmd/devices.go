// cmd/devices.go
package cmd

import (
	"fmt"

	"github.com/ColonelBlimp/tonecast/internal/audio"
	"github.com/gen2brain/malgo"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture and playback devices",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, section := range []struct {
		title string
		kind  malgo.DeviceType
	}{
		{"Capture devices (device_index)", malgo.Capture},
		{"Playback devices (playback_device_index)", malgo.Playback},
	} {
		devices, err := audio.Devices(section.kind)
		if err != nil {
			return fmt.Errorf("audio devices: %w", err)
		}
		fmt.Fprintln(out, section.title+":")
		fmt.Fprint(out, formatDevices(devices))
	}
	return nil
}

func formatDevices(devices []audio.Device) string {
	if len(devices) == 0 {
		return "  (none)\n"
	}
	var s string
	for _, d := range devices {
		s += fmt.Sprintf("  [%d] %s", d.Index, d.Name)
		if d.IsDefault {
			s += " (default)"
		}
		s += "\n"
	}
	return s
}
