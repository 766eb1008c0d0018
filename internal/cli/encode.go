package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
)

func NewEncodeCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <input.wav> <output.mp3>",
		Short: "Encode a recording to MP3",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}

			mimeType, err := mimeForPath(input)
			if err != nil {
				return err
			}

			artifact := &audio.Artifact{
				Bytes:    data,
				MimeType: mimeType,
			}

			if mimeType == audio.MimeWAV {
				info, err := audio.GetWAVInfo(data)
				if err != nil {
					return fmt.Errorf("invalid WAV input: %w", err)
				}
				artifact.SampleRate = int(info.SampleRate)
				artifact.Channels = int(info.Channels)
			}

			start := time.Now()
			encoded, err := deps.Recorder.EncodeToMP3(artifact)
			if err != nil {
				return fmt.Errorf("encoding failed: %w", err)
			}

			if err := os.WriteFile(output, encoded.Bytes, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Printf("Encoded %s -> %s (%d bytes in %v)\n",
				input, output, encoded.Size(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	return cmd
}
