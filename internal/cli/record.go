package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var output string
	var duration float64
	var toMP3 bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone",
		Long:  "Start capturing microphone audio. Recording stops on Ctrl+C, or after --duration seconds when given. The captured audio is written as a WAV preview, and optionally re-encoded to MP3.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(),
				deps.Config.Capture.GetDeviceRequestTimeout())
			defer cancel()

			if err := deps.Recorder.StartCapture(ctx); err != nil {
				return fmt.Errorf("failed to start recording: %w", err)
			}

			fmt.Println("Recording... press Ctrl+C to stop")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			if duration > 0 {
				limit := time.Duration(duration * float64(time.Second))
				select {
				case <-sigChan:
				case <-time.After(limit):
				}
			} else {
				<-sigChan
			}

			deps.Recorder.StopCapture()

			artifact, err := deps.Recorder.Artifact()
			if err != nil {
				return fmt.Errorf("no audio was captured: %w", err)
			}

			fmt.Printf("Captured %.1fs of audio (%d bytes, %s)\n",
				deps.Recorder.Elapsed().Seconds(), artifact.Size(), artifact.MimeType)

			if err := os.WriteFile(output, artifact.Bytes, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Printf("Wrote %s\n", output)

			if toMP3 {
				encoded, err := deps.Recorder.EncodeToMP3(artifact)
				if err != nil {
					return fmt.Errorf("MP3 encoding failed: %w", err)
				}

				mp3Path := mp3PathFor(output)
				if err := os.WriteFile(mp3Path, encoded.Bytes, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", mp3Path, err)
				}
				fmt.Printf("Wrote %s (%d bytes)\n", mp3Path, encoded.Size())
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "recording.wav", "Output file path")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Stop automatically after this many seconds")
	cmd.Flags().BoolVar(&toMP3, "mp3", false, "Also encode the recording to MP3")

	return cmd
}

// mp3PathFor swaps the output extension for .mp3, appending when the
// path has no recognizable audio extension.
func mp3PathFor(path string) string {
	for _, ext := range []string{".wav", ".webm", ".mp4"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext) + ".mp3"
		}
	}
	return path + ".mp3"
}

// mimeForPath maps a file extension to the pipeline's mime types.
func mimeForPath(path string) (string, error) {
	switch {
	case strings.HasSuffix(path, ".wav"):
		return audio.MimeWAV, nil
	case strings.HasSuffix(path, ".mp3"):
		return audio.MimeMP3, nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", path)
	}
}
