package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lloyd42/whisper-asr-client/internal/audio"
	"github.com/lloyd42/whisper-asr-client/internal/ffmpeg"
	"github.com/lloyd42/whisper-asr-client/internal/playback"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/transcript"
)

var playCmd = &cobra.Command{
	Use:   "play [subtitle_file]",
	Short: "Follow subtitles along a simulated playback clock",
	Long: `Play a subtitle file against a simulated media clock and show the
current segment in a scrolling list, the way an editor highlights the line
being spoken.

The clock runs until the last segment ends (or the --audio file's duration)
or until interrupted. Highlighting stays on the last segment during gaps.

Examples:
  subtide play talk.srt
  subtide play talk.srt --from 00:01:30,000 --rate 2
  subtide play talk.vtt --segment 12 --rows 5
  subtide play talk.srt --audio talk.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().
		String("from", "0", "Start position in seconds or as a timestamp")
	playCmd.Flags().
		String("segment", "", "Start at the beginning of the segment with this id")
	playCmd.Flags().
		Float64("rate", 1, "Playback rate")
	playCmd.Flags().
		Duration("tick", 100*time.Millisecond, "Clock polling interval")
	playCmd.Flags().
		Int("rows", 7, "Visible rows in the segment list")
	playCmd.Flags().
		String("audio", "", "Audio file whose duration bounds the clock (needs ffprobe)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fromStr, _ := cmd.Flags().GetString("from")
	segmentID, _ := cmd.Flags().GetString("segment")
	rate, _ := cmd.Flags().GetFloat64("rate")
	tick, _ := cmd.Flags().GetDuration("tick")
	rows, _ := cmd.Flags().GetInt("rows")
	audioPath, _ := cmd.Flags().GetString("audio")

	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %g", rate)
	}
	from, err := subtitle.ParseSeconds(fromStr)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}

	segments, _, err := subtitle.Open(args[0])
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}

	session := transcript.New(transcript.WithLogger(logger))
	session.Replace(segments)

	clock := playback.NewMediaClock(lastEnd(segments), playback.WithRate(rate))
	if audioPath != "" {
		ffprobePath, err := ffmpeg.FFprobePath(cfg.FFprobePath)
		if err != nil {
			return err
		}
		d, err := audio.Probe(ctx, ffprobePath, audioPath)
		if err != nil {
			return err
		}
		clock.SetDuration(d.Seconds())
	}
	// an unbounded clock would never stop on its own
	if clock.Duration() <= 0 {
		return fmt.Errorf("%s has no timing to play; use --audio to set a duration", args[0])
	}
	session.SetPlayer(clock)

	view := playback.NewListView(rows)
	view.SetSegments(session.Segments())

	syncer := playback.NewSynchronizer(session, view,
		playback.WithSyncLogger(logger),
	)
	defer syncer.Close()

	logger.Infow("Starting playback",
		"segments", session.Len(),
		"duration", subtitle.FormatClock(clock.Duration()),
		"rate", rate,
	)

	if segmentID != "" {
		if err := session.SeekTo(segmentID); err != nil {
			return err
		}
	} else {
		clock.Seek(from)
		clock.Play()
	}

	lastScroll := -1.0
	err = playback.Run(ctx, clock, syncer, tick, func(t playback.Tick) {
		scrollTop, _ := view.Window()
		if !t.Changed && scrollTop == lastScroll {
			return
		}
		lastScroll = scrollTop
		state := "playing"
		if !clock.Playing() {
			state = "stopped"
		}
		fmt.Printf("-- %s / %s %s\n",
			subtitle.FormatClock(t.Position),
			subtitle.FormatClock(clock.Duration()),
			state,
		)
		_ = view.Render(os.Stdout, t.Highlighted)
	})
	clock.Pause()

	if ctx.Err() != nil {
		fmt.Printf("Stopped at %s\n", subtitle.FormatClock(clock.Position()))
		err = nil
	}
	if id := syncer.Highlighted(); id != "" && err == nil {
		fmt.Printf("  Last segment: %s\n", id)
	}
	return err
}

func lastEnd(segments []subtitle.Segment) float64 {
	end := 0.0
	for _, seg := range segments {
		end = max(end, seg.End)
	}
	return end
}
