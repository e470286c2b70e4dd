package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lloyd42/whisper-asr-client/internal/config"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/transcript"
	"github.com/lloyd42/whisper-asr-client/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate or polish subtitles using an LLM",
	Long: `Translate an existing subtitle file to another language using an LLM.

Segments are sent in batches; a batch that fails keeps its original text
and the remaining batches are still applied. With --polish the model fixes
grammar and recognition errors instead of translating.

The --overlay flag writes bilingual subtitles instead, with the translated
text first and the original text on the next line (talk.ja.overlay.srt).

Examples:
  subtide translate talk.srt --target-language japanese
  subtide translate talk.vtt -t es --overlay --provider openai
  subtide translate talk.json --polish -l english -o clean.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation")
	translateCmd.Flags().
		Bool("polish", false, "Fix grammar and punctuation instead of translating")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual subtitles)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	translateCmd.Flags().
		String("provider", "gemini", "LLM provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		String("prompt", "", "Additional instructions for the model")
	translateCmd.Flags().
		Int("concurrency", translate.DefaultConcurrency, "Number of parallel translation requests")
	translateCmd.Flags().
		Int("batch-size", translate.DefaultBatchSize, "Number of segments per API request")
	translateCmd.Flags().
		Int("batch-chars", 0, "Maximum text characters per API request (0 for no limit)")
	translateCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, txt, json); defaults to the input format")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	polish, _ := cmd.Flags().GetBool("polish")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	modelOverride, _ := cmd.Flags().GetBool("model-override")
	providerStr, _ := cmd.Flags().GetString("provider")
	prompt, _ := cmd.Flags().GetString("prompt")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	batchChars, _ := cmd.Flags().GetInt("batch-chars")
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	inputLang, _ := cmd.Flags().GetString("language")

	task := translate.TaskTranslate
	if polish {
		task = translate.TaskPolish
	} else if targetLang == "" {
		return fmt.Errorf("target language is required: use --target-language or --polish")
	}

	if !polish && inputLang != "" &&
		strings.EqualFold(
			strings.TrimSpace(inputLang),
			strings.TrimSpace(targetLang),
		) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	provider := translate.Provider(strings.ToLower(providerStr))
	if apiKey == "" {
		apiKey = cfg.APIKey(string(provider))
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			config.APIKeyEnv(string(provider)),
		)
	}

	if model != "" && !modelOverride && !isValidModel(provider, model) {
		return fmt.Errorf(
			"unsupported %s model %q: valid models are %s (use --model-override to bypass)",
			provider,
			model,
			modelList(provider),
		)
	}

	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	segments, inputFormat, err := subtitle.Open(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(segments) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}

	format := exportableOr(inputFormat, subtitle.FormatSRT)
	if formatStr != "" {
		if format, err = exportFormat(formatStr); err != nil {
			return err
		}
	}

	if outputPath == "" {
		outputPath = translationPath(subtitlePath, targetLang, polish, overlay, format)
	}

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"task", task,
		"target_language", targetLang,
		"input_language", inputLang,
		"provider", provider,
		"model", model,
		"segments", len(segments),
	)

	session := transcript.New(transcript.WithLogger(logger))
	session.Replace(segments)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		Task:           task,
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		Prompt:         prompt,
		BatchSize:      batchSize,
		MaxBatchChars:  batchChars,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	results, err := translator.TranslateWithConcurrency(
		ctx,
		translate.Items(session.Segments()),
		concurrency,
	)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Warnw("Some batches failed; their segments keep the original text",
			"error", err,
		)
	}

	translated := translate.Segments(results)
	if overlay && !polish {
		translated = overlayText(session.Segments(), translated)
	}
	applied := session.ApplyTranslation(translated)

	logger.Infow("Translation complete", "applied", applied)

	if err := writeSegments(outputPath, format, session.Segments()); err != nil {
		return err
	}
	if outputPath == "-" {
		return nil
	}

	fmt.Printf("Subtitles %s successfully: %s\n", pastTense(task), absPath(outputPath))
	fmt.Printf("  Entries: %d\n", session.Len())
	if !polish {
		fmt.Printf("  Target language: %s\n", targetLang)
	}
	if overlay && !polish {
		fmt.Printf("  Mode: bilingual overlay\n")
	}
	if err != nil {
		fmt.Printf("  Warning: some batches failed and kept their original text\n")
	}
	return nil
}

// overlayText puts each translation above its original text. Segments whose
// text did not change are left alone.
func overlayText(original, translated []subtitle.Segment) []subtitle.Segment {
	byID := make(map[string]string, len(original))
	for _, seg := range original {
		byID[seg.ID] = seg.Text
	}

	out := make([]subtitle.Segment, 0, len(translated))
	for _, t := range translated {
		orig, ok := byID[t.ID]
		if !ok || orig == t.Text {
			continue
		}
		t.Text = t.Text + "\n" + orig
		out = append(out, t)
	}
	return out
}

// translationPath names the default output: talk.ja.srt, talk.ja.overlay.srt
// or talk.polished.srt.
func translationPath(input, target string, polish, overlay bool, format subtitle.Format) string {
	infix := target
	if polish {
		infix = "polished"
	} else if overlay {
		infix += ".overlay"
	}
	return siblingPath(input, infix, format)
}

func pastTense(task translate.Task) string {
	if task == translate.TaskPolish {
		return "polished"
	}
	return "translated"
}
