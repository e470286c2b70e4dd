package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lloyd42/whisper-asr-client/internal/audio"
	"github.com/lloyd42/whisper-asr-client/internal/transcribe"
)

var detectCmd = &cobra.Command{
	Use:   "detect-language [audio_file]",
	Short: "Detect the spoken language of an audio file",
	Long: `Ask the ASR service which language is spoken in an audio file.

Examples:
  subtide detect-language talk.mp3
  subtide detect-language talk.wav --no-encode`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().
		Bool("no-encode", false, "Send audio without ffmpeg encoding on the server")
}

func runDetect(cmd *cobra.Command, args []string) error {
	audioPath := args[0]
	noEncode, _ := cmd.Flags().GetBool("no-encode")

	if err := audio.ValidateUpload(audioPath, cfg.MaxUploadBytes); err != nil {
		return err
	}

	client := transcribe.NewClient(cfg.ASRURL,
		transcribe.WithTimeout(cfg.ASRTimeout),
		transcribe.WithLogger(logger),
	)

	logger.Infow("Detecting language", "file", audioPath, "url", cfg.ASRURL)

	detection, err := client.DetectLanguage(cmd.Context(), audioPath, !noEncode)
	if err != nil {
		return err
	}

	fmt.Printf("Language: %s (%s)\n", detection.DetectedLanguage, detection.LanguageCode)
	fmt.Printf("  Confidence: %.2f\n", detection.Confidence)
	return nil
}
