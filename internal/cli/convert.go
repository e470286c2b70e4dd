package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitle_file]",
	Short: "Convert a subtitle file to another format",
	Long: `Read an SRT, WebVTT, TSV, JSON or plain text transcript and export it as
SRT, WebVTT, plain text or JSON. Malformed blocks are skipped.

Examples:
  subtide convert talk.srt --format vtt
  subtide convert talk.vtt -f json -o talk.segments.json
  subtide convert talk.tsv -f srt -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "srt", "Output format (srt, vtt, txt, json)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := exportFormat(formatStr)
	if err != nil {
		return err
	}

	segments, inputFormat, err := subtitle.Open(inputPath)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = siblingPath(inputPath, "", format)
		if outputPath == inputPath {
			return fmt.Errorf("input is already %s; use -o to choose another file", format)
		}
	}

	logger.Infow("Converting subtitles",
		"input", inputPath,
		"from", inputFormat,
		"to", format,
		"segments", len(segments),
	)

	if err := writeSegments(outputPath, format, segments); err != nil {
		return err
	}
	if outputPath == "-" {
		return nil
	}

	fmt.Printf("Subtitles converted successfully: %s\n", absPath(outputPath))
	fmt.Printf("  Entries: %d\n", len(segments))
	return nil
}
