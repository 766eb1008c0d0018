package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nobin-seemymachines/voice-recorder/internal/device"
	"github.com/nobin-seemymachines/voice-recorder/internal/mp3"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check capture prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := true

			if err := deps.Config.Validate(); err != nil {
				check("Configuration", false, err.Error())
				ok = false
			} else {
				check("Configuration", true, "valid")
			}

			if _, err := mp3.LoadShineCodec(); err != nil {
				check("MP3 codec", false, err.Error())
				ok = false
			} else {
				check("MP3 codec", true, "available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			stream, err := deps.Provider.RequestInput(ctx, device.StreamConfig{
				SampleRate: deps.Config.Capture.SampleRate,
				Channels:   1,
				FrameSize:  deps.Config.Capture.FrameSize,
			})
			if err != nil {
				check("Microphone", false, err.Error())
				ok = false
			} else {
				check("Microphone", true, "input device available")
				_ = stream.Close()
			}

			if deps.Provider.HasStreamingRecorder() {
				check("Native streaming recorder", true, "available")
			} else {
				check("Native streaming recorder", false, "unavailable, manual PCM capture will be used")
			}

			if ok {
				fmt.Println("\nAll prerequisites met. Ready to record.")
			} else {
				fmt.Println("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}

func check(name string, ok bool, detail string) {
	mark := "ok"
	if !ok {
		mark = "!!"
	}
	fmt.Printf("[%s] %s: %s\n", mark, name, detail)
}
