package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lloyd42/whisper-asr-client/internal/audio"
	"github.com/lloyd42/whisper-asr-client/internal/config"
	"github.com/lloyd42/whisper-asr-client/internal/logging"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

// APIError is a non-2xx reply from the ASR service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ASR service returned %d: %s", e.StatusCode, e.Message)
}

// error body shapes used by the service: FastAPI detail or a message field
type errorDetail struct {
	Msg string `json:"msg"`
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// Client talks to a whisper-asr-webservice instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: config.DefaultASRTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads audioPath to /asr and parses the reply according to
// opts.Output.
func (c *Client) Transcribe(
	ctx context.Context,
	audioPath string,
	opts Options,
) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("encode", strconv.FormatBool(opts.Encode))
	query.Set("task", string(opts.Task))
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	if opts.InitialPrompt != "" {
		query.Set("initial_prompt", opts.InitialPrompt)
	}
	query.Set("vad_filter", strconv.FormatBool(opts.VADFilter))
	query.Set("word_timestamps", strconv.FormatBool(opts.WordTimestamps))
	query.Set("output", string(opts.Output))

	c.logger.Debugw("Uploading audio for transcription",
		"file", audioPath,
		"task", opts.Task,
		"output", opts.Output,
	)

	body, err := c.upload(ctx, "/asr", query, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := subtitle.ParseTranscript(body, opts.Output)
	if err != nil {
		return nil, err
	}

	return &Result{
		Segments: segments,
		Raw:      body,
		Output:   opts.Output,
		Language: opts.Language,
	}, nil
}

// DetectLanguage posts audioPath to /detect-language.
func (c *Client) DetectLanguage(
	ctx context.Context,
	audioPath string,
	encode bool,
) (*LanguageDetection, error) {
	query := url.Values{}
	query.Set("encode", strconv.FormatBool(encode))

	body, err := c.upload(ctx, "/detect-language", query, audioPath)
	if err != nil {
		return nil, fmt.Errorf("language detection failed: %w", err)
	}

	var detection LanguageDetection
	if err := json.Unmarshal(body, &detection); err != nil {
		return nil, fmt.Errorf("failed to parse language detection response: %w", err)
	}
	return &detection, nil
}

func (c *Client) upload(
	ctx context.Context,
	path string,
	query url.Values,
	audioPath string,
) ([]byte, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="audio_file"; filename="%s"`,
			filepath.Base(audioPath),
		))
		h.Set("Content-Type", audio.MIMEType(audioPath))

		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("no response from ASR service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp, respBody),
		}
	}
	return respBody, nil
}

// pulls a readable message out of an error response
func errorMessage(resp *http.Response, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if len(eb.Detail) > 0 {
			var s string
			if err := json.Unmarshal(eb.Detail, &s); err == nil && s != "" {
				return s
			}
			var list []errorDetail
			if err := json.Unmarshal(eb.Detail, &list); err == nil && len(list) > 0 {
				msgs := make([]string, 0, len(list))
				for _, d := range list {
					msgs = append(msgs, d.Msg)
				}
				return strings.Join(msgs, "; ")
			}
		}
		if eb.Message != "" {
			return eb.Message
		}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
