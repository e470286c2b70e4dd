package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lloyd42/whisper-asr-client/internal/config"
	"github.com/lloyd42/whisper-asr-client/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "subtide",
	Short: "Transcribe, edit and translate subtitles with a Whisper ASR service",
	Long: `Subtide sends audio to a whisper-asr-webservice instance (or OpenAI
Whisper), turns the result into editable subtitle segments and exports them
as SRT, WebVTT, plain text or JSON.

Segments can be edited, translated or polished with an LLM, and followed
along a simulated playback clock in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		var err error
		cfg, err = config.Load()
		return err
	},
}

// Execute runs the command tree; SIGINT and SIGTERM cancel in-flight work.
func Execute() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (e.g., en, es, fr)")
}
