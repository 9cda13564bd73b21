// Package deepgram synthesizes speech through the Deepgram speak REST
// endpoint and plays it through an injected audio output.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/mihovilk/jarvis-core/core/audio"
	"github.com/mihovilk/jarvis-core/core/synthesis"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

const defaultVoice = "aura-asteria-en"

// AudioOutput is the playback device surface the client drives. The
// miniaudio client satisfies it.
type AudioOutput interface {
	StartPlayback() error
	StopPlayback() error
	SendAudio(audio []byte) error
	Mark(name string, callback func(string)) error
	ClearBuffer()
}

type Client struct {
	output     AudioOutput
	httpClient *http.Client
}

func NewClient(output AudioOutput) *Client {
	return &Client{
		output:     output,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Speak synthesizes text and plays it. The completion callback fires once
// playback of the synthesized audio finishes; synthesis failures fire it
// with the error instead.
func (c *Client) Speak(ctx context.Context, text string, opts ...synthesis.SpeakOption) error {
	options := speakOptions(opts)

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	speech, err := c.fetchSpeech(ctx, text, options)
	if err != nil {
		recordedErr := fmt.Errorf("failed to synthesize speech: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		if options.CompletionCallback != nil {
			options.CompletionCallback(recordedErr)
		}
		return recordedErr
	}

	return c.play(speech, options)
}

// PlayAudio plays pre-synthesized audio bytes.
func (c *Client) PlayAudio(_ context.Context, audioBytes []byte, opts ...synthesis.SpeakOption) error {
	return c.play(audioBytes, speakOptions(opts))
}

// Stop cancels in-flight output. Pending completion marks are dropped with
// the buffered audio, so a cancelled output never reports completion.
func (c *Client) Stop() error {
	c.output.ClearBuffer()
	return nil
}

func speakOptions(opts []synthesis.SpeakOption) *synthesis.SpeakOptions {
	options := &synthesis.SpeakOptions{
		Voice:        defaultVoice,
		EncodingInfo: audio.GetPlaybackEncodingInfo(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Voice == "" {
		options.Voice = defaultVoice
	}
	return options
}

func (c *Client) play(speech []byte, options *synthesis.SpeakOptions) error {
	// Last call wins: drop whatever is still buffered, along with its
	// pending completion marks, before queueing the new output.
	c.output.ClearBuffer()

	if err := c.output.StartPlayback(); err != nil {
		if options.CompletionCallback != nil {
			options.CompletionCallback(err)
		}
		return fmt.Errorf("failed to start playback: %w", err)
	}

	if err := c.output.SendAudio(speech); err != nil {
		if options.CompletionCallback != nil {
			options.CompletionCallback(err)
		}
		return fmt.Errorf("failed to queue audio for playback: %w", err)
	}

	completion := options.CompletionCallback
	if err := c.output.Mark("end-of-response", func(string) {
		if completion != nil {
			completion(nil)
		}
	}); err != nil {
		logger.Warn("failed to queue playback mark", "error", err)
		if completion != nil {
			completion(nil)
		}
	}

	return nil
}

func (c *Client) fetchSpeech(ctx context.Context, text string, options *synthesis.SpeakOptions) ([]byte, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	speakUrl, _ := url.Parse("https://api.deepgram.com/v1/speak")
	queryParams := speakUrl.Query()
	queryParams.Set("model", options.Voice)
	queryParams.Set("encoding", options.EncodingInfo.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	speakUrl.RawQuery = queryParams.Encode()

	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode speak request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, speakUrl.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create speak request: %w", err)
	}
	request.Header.Set("Authorization", "Token "+apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("speak request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		responseBody, _ := io.ReadAll(response.Body)
		return nil, fmt.Errorf("speak request returned %d: %s", response.StatusCode, string(responseBody))
	}

	speech, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	return speech, nil
}
