package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/transcript"
)

var editCmd = &cobra.Command{
	Use:   "edit [subtitle_file]",
	Short: "Insert, remove or change subtitle segments",
	Long: `Apply edits to a subtitle file and write it back.

Segments are addressed by id: the block number for SRT input, the cue
identifier (or seg-N) for WebVTT, and the stored id for JSON. Edits run in
this order: removals, text changes, timing changes, insertions.

Timing values accept seconds (12.5) or timestamps (00:00:12,500).
Overlapping segments are allowed; a start after its end is rejected.

Examples:
  subtide edit talk.srt --text 3="Hello there"
  subtide edit talk.srt --timing 3=12.5,15 --remove 7
  subtide edit talk.json --insert 2 -o talk.edited.json
  subtide edit talk.vtt --list`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().
		StringArray("remove", nil, "Remove the segment with this id (repeatable)")
	editCmd.Flags().
		StringArray("text", nil, "Replace text: id=TEXT (repeatable)")
	editCmd.Flags().
		StringArray("timing", nil, "Replace timing: id=START,END (repeatable)")
	editCmd.Flags().
		Int("insert", 0, "Append this many placeholder segments after the last one")
	editCmd.Flags().
		Bool("list", false, "Print segments with their ids and exit")
	editCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, txt, json); defaults to the input format")
}

func runEdit(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	removals, _ := cmd.Flags().GetStringArray("remove")
	textEdits, _ := cmd.Flags().GetStringArray("text")
	timingEdits, _ := cmd.Flags().GetStringArray("timing")
	inserts, _ := cmd.Flags().GetInt("insert")
	list, _ := cmd.Flags().GetBool("list")
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	segments, inputFormat, err := subtitle.Open(inputPath)
	if err != nil {
		return err
	}

	session := transcript.New(transcript.WithLogger(logger))
	session.Replace(segments)

	if list {
		printSegments(session.Segments())
		return nil
	}

	if inserts < 0 {
		return fmt.Errorf("insert count must not be negative, got %d", inserts)
	}

	format := exportableOr(inputFormat, subtitle.FormatSRT)
	if formatStr != "" {
		if format, err = exportFormat(formatStr); err != nil {
			return err
		}
	}
	if outputPath == "" {
		outputPath = siblingPath(inputPath, "", format)
	}

	edits, err := applyEdits(session, removals, textEdits, timingEdits, inserts)
	if err != nil {
		return err
	}

	logger.Infow("Edited subtitles",
		"input", inputPath,
		"edits", edits,
		"segments", session.Len(),
	)

	if err := writeSegments(outputPath, format, session.Segments()); err != nil {
		return err
	}
	if outputPath == "-" {
		return nil
	}

	fmt.Printf("Subtitles edited successfully: %s\n", absPath(outputPath))
	fmt.Printf("  Edits: %d\n", edits)
	fmt.Printf("  Entries: %d\n", session.Len())
	return nil
}

// applyEdits runs every requested edit against the session and returns how
// many were applied. The first invalid edit aborts.
func applyEdits(
	session *transcript.Session,
	removals, textEdits, timingEdits []string,
	inserts int,
) (int, error) {
	edits := 0

	for _, id := range removals {
		if !session.Remove(id) {
			logger.Warnw("No segment to remove", "id", id)
			continue
		}
		edits++
	}

	for _, edit := range textEdits {
		id, text, err := parseAssignment(edit)
		if err != nil {
			return edits, fmt.Errorf("invalid --text %q: %w", edit, err)
		}
		if err := session.EditText(id, text); err != nil {
			return edits, err
		}
		edits++
	}

	for _, edit := range timingEdits {
		id, value, err := parseAssignment(edit)
		if err != nil {
			return edits, fmt.Errorf("invalid --timing %q: %w", edit, err)
		}
		start, end, err := parseTiming(value)
		if err != nil {
			return edits, fmt.Errorf("invalid --timing %q: %w", edit, err)
		}
		if err := session.EditTiming(id, start, end); err != nil {
			return edits, err
		}
		edits++
	}

	for range inserts {
		seg := session.Insert()
		logger.Debugw("Inserted segment", "id", seg.ID)
		edits++
	}

	return edits, nil
}

// parseAssignment splits "id=value"; the value may be empty.
func parseAssignment(s string) (string, string, error) {
	id, value, ok := strings.Cut(s, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", "", fmt.Errorf("expected id=value")
	}
	return id, value, nil
}

// parseTiming reads "START,END". Because SRT timestamps use a comma too,
// a value with three commas is split in the middle.
func parseTiming(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	var startText, endText string
	switch len(parts) {
	case 2:
		startText, endText = parts[0], parts[1]
	case 4:
		startText = parts[0] + "," + parts[1]
		endText = parts[2] + "," + parts[3]
	case 3:
		// one SRT timestamp and one plain value
		if strings.Contains(parts[0], ":") && !strings.Contains(parts[1], ":") {
			startText, endText = parts[0]+","+parts[1], parts[2]
		} else {
			startText, endText = parts[0], parts[1]+","+parts[2]
		}
	default:
		return 0, 0, fmt.Errorf("expected START,END")
	}

	start, err := subtitle.ParseSeconds(startText)
	if err != nil {
		return 0, 0, err
	}
	end, err := subtitle.ParseSeconds(endText)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func printSegments(segments []subtitle.Segment) {
	for _, seg := range segments {
		fmt.Printf("%-10s %s  %s\n",
			seg.ID,
			subtitle.FormatRange(seg.Start, seg.End, subtitle.StyleSRT),
			strings.ReplaceAll(seg.Text, "\n", " / "),
		)
	}
}
