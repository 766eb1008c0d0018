package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
	"github.com/nobin-seemymachines/voice-recorder/internal/playback"
)

func NewPlayCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play a recording",
		Long:  "Play a WAV or MP3 recording through the default output device, displaying a reconciled position clock.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			mimeType, err := mimeForPath(path)
			if err != nil {
				return err
			}

			player := playback.NewBeepPlayer()
			reconciler := playback.NewReconciler(player,
				deps.Config.Playback.GetPollInterval(), deps.Logger)
			defer reconciler.Close()

			reconciler.OnTick(func(c playback.Clock) {
				if c.Playing {
					fmt.Printf("\r%6.1fs / %.1fs", c.PositionSeconds, c.DurationSeconds)
				}
			})

			artifact := &audio.Artifact{Bytes: data, MimeType: mimeType}
			if err := reconciler.Load(artifact); err != nil {
				return err
			}

			if err := reconciler.Play(); err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-sigChan:
					fmt.Println()
					return reconciler.Pause()
				case <-ticker.C:
					if !reconciler.Clock().Playing {
						fmt.Println("\rPlayback finished")
						return nil
					}
				}
			}
		},
	}

	return cmd
}
