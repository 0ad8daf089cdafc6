package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skypro1111/voicecapture/internal/audio"
	"github.com/skypro1111/voicecapture/internal/recognition"
	"github.com/skypro1111/voicecapture/internal/vad"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file.wav]",
	Short: "Send a 16 kHz mono 16-bit WAV file to the recognition service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pcm, format, err := audio.ReadWAVFile(args[0])
		if err != nil {
			return err
		}

		want := audioFormat(cfg)
		if format != want {
			return fmt.Errorf("unsupported WAV format %s, expected %s", format, want)
		}

		if analyzer, err := vad.NewAnalyzer(0.05, 512, format.SampleRate); err == nil {
			summary := analyzer.Analyze(pcm)
			logger.Info("Audio loaded",
				slog.String("file", args[0]),
				slog.Duration("duration", summary.Duration),
				slog.Float64("voice_percentage", summary.VoicePercentage),
				slog.Int("voice_segments", len(summary.Segments)))
		}

		client, err := newRecognitionClient(cfg, logger, nil)
		if err != nil {
			return fmt.Errorf("failed to create recognition client: %w", err)
		}
		defer client.Close()

		result := client.Recognize(cmd.Context(), uuid.NewString(), pcm)
		if result.Outcome != recognition.OutcomeText {
			return fmt.Errorf("transcription failed: %s", result.Reason())
		}

		fmt.Fprintln(os.Stdout, result.Text)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the recognition service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRecognitionClient(cfg, logger, nil)
		if err != nil {
			return fmt.Errorf("failed to create recognition client: %w", err)
		}
		defer client.Close()

		start := time.Now()
		if !client.CheckAvailability(context.Background()) {
			return fmt.Errorf("recognition service %s is unavailable", client.ServiceURL())
		}

		fmt.Fprintf(os.Stdout, "%s is available (%s)\n", client.ServiceURL(), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg.Sanitized())
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}
