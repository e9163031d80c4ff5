package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"camerahub/internal/app"
	"camerahub/internal/config"
)

// Version is the application version.
const Version = "0.1.0"

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:     "camerahub",
		Short:   "Camera surveillance assistant with face recognition",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Run(cmd.Context())
		},
	}
	rootCmd.SilenceUsage = true

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.CameraSource, "camera", cfg.CameraSource, "video source (device index or stream URL)")
	flags.IntVar(&cfg.FrameWidth, "width", cfg.FrameWidth, "capture width")
	flags.IntVar(&cfg.FrameHeight, "height", cfg.FrameHeight, "capture height")
	flags.StringVar(&cfg.ModelWeightsPath, "model-weights", cfg.ModelWeightsPath, "path to the DNN weights file")
	flags.StringVar(&cfg.ModelConfigPath, "model-config", cfg.ModelConfigPath, "path to the DNN config file")
	flags.StringVar(&cfg.ClassNamesPath, "class-names", cfg.ClassNamesPath, "optional file with class names, one per line")
	flags.Float64Var(&cfg.Confidence, "confidence", cfg.Confidence, "person detection confidence threshold")
	flags.StringVar(&cfg.FaceModelsDir, "face-models", cfg.FaceModelsDir, "directory with the dlib face recognition models")
	flags.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "face matching tolerance (lower is stricter)")
	flags.IntVar(&cfg.CooldownSeconds, "cooldown", cfg.CooldownSeconds, "seconds between repeated events for the same identity")
	flags.StringVar(&cfg.DatabasePath, "database", cfg.DatabasePath, "path to the database file")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "HTTP port for the viewer and API")
	flags.IntVar(&cfg.ProcessEveryNth, "process-every", cfg.ProcessEveryNth, "process every Nth frame")
	flags.BoolVar(&cfg.Headless, "headless", cfg.Headless, "disable the local display window")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
