package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nobin-seemymachines/voice-recorder/internal/config"
	"github.com/nobin-seemymachines/voice-recorder/internal/device"
	"github.com/nobin-seemymachines/voice-recorder/internal/metrics"
	"github.com/nobin-seemymachines/voice-recorder/internal/session"
)

const version = "1.0.0"

// Dependencies carries the wired application services into the commands.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Provider device.Provider
	Recorder *session.Recorder
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recorder",
		Short: "Record microphone audio, encode it, and play it back",
		Long:  "A voice recorder that captures microphone audio through a native streaming encoder or a manual PCM callback, produces WAV previews and MP3 output, and plays recordings back with a reconciled position clock.",
	}

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("recorder " + version + "\n")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewEncodeCmd(deps))
	rootCmd.AddCommand(NewPlayCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewServeCmd(deps))

	return rootCmd
}
