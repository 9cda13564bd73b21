// Package remote implements the cloud assistant boundary: one RPC-style
// call per utterance, no internal retries.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jinzhu/copier"
	"github.com/mihovilk/jarvis-core/core/assistants"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client

	baseCatalog []actionDefinition
}

type ClientOption func(*Client)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	client := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		baseCatalog: buildActionCatalog(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type sendMessageRequest struct {
	Message  string             `json:"message"`
	Timezone string             `json:"timezone"`
	Location string             `json:"location,omitempty"`
	Actions  []actionDefinition `json:"actions"`
}

type sendMessageResponse struct {
	Response string            `json:"response"`
	Images   []string          `json:"images"`
	Actions  map[string]string `json:"actions"`
	Audio    string            `json:"audio"`
	Error    string            `json:"error"`
}

// SendMessage sends the utterance with its ambient context and returns the
// backend's reply. Exactly one attempt is made; fallback decisions belong to
// the caller. Failures are always *assistants.RemoteError.
func (c *Client) SendMessage(ctx context.Context, text string, requestContext assistants.RequestContext) (*assistants.Reply, error) {
	ctx, span := tracer.Start(ctx, "send message")
	defer span.End()
	span.SetAttributes(attribute.Int("request.message_length", len(text)))

	var catalog []actionDefinition
	if err := copier.Copy(&catalog, c.baseCatalog); err != nil {
		catalog = c.baseCatalog
	}

	body, err := json.Marshal(sendMessageRequest{
		Message:  text,
		Timezone: requestContext.Timezone,
		Location: requestContext.Location,
		Actions:  catalog,
	})
	if err != nil {
		return nil, c.recordError(ctx, &assistants.RemoteError{
			Kind: assistants.RemoteErrorMalformed, Message: "failed to encode request", Err: err,
		})
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, c.recordError(ctx, &assistants.RemoteError{
			Kind: assistants.RemoteErrorNetwork, Message: "failed to create request", Err: err,
		})
	}
	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, c.recordError(ctx, &assistants.RemoteError{
			Kind: assistants.RemoteErrorNetwork, Message: "request failed", Err: err,
		})
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, c.recordError(ctx, &assistants.RemoteError{
			Kind: assistants.RemoteErrorNetwork, Message: "failed to read response", Err: err,
		})
	}

	if response.StatusCode != http.StatusOK {
		message := fmt.Sprintf("status %d", response.StatusCode)
		var parsed sendMessageResponse
		if err := json.Unmarshal(responseBody, &parsed); err == nil && parsed.Error != "" {
			message = parsed.Error
		}
		return nil, c.recordError(ctx, &assistants.RemoteError{
			Kind: assistants.RemoteErrorServer, Message: message,
		})
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return nil, c.recordError(ctx, &assistants.RemoteError{
			Kind: assistants.RemoteErrorMalformed, Message: "failed to decode response", Err: err,
		})
	}
	if parsed.Response == "" {
		return nil, c.recordError(ctx, &assistants.RemoteError{
			Kind: assistants.RemoteErrorMalformed, Message: "response text missing",
		})
	}

	reply := &assistants.Reply{
		Text:      parsed.Response,
		ImageURLs: parsed.Images,
	}
	if len(parsed.Actions) > 0 {
		reply.Actions = make(map[assistants.ActionKind]string, len(parsed.Actions))
		for kind, payload := range parsed.Actions {
			reply.Actions[assistants.ActionKind(kind)] = payload
		}
	}
	if parsed.Audio != "" {
		audio, err := base64.StdEncoding.DecodeString(parsed.Audio)
		if err != nil {
			logger.Warn("discarding undecodable reply audio", "error", err)
		} else {
			reply.Audio = audio
		}
	}

	span.SetAttributes(attribute.Int("response.reply_length", len(reply.Text)))
	return reply, nil
}

func (c *Client) recordError(ctx context.Context, remoteErr *assistants.RemoteError) error {
	span := trace.SpanFromContext(ctx)
	span.RecordError(remoteErr)
	span.SetStatus(codes.Error, remoteErr.Error())
	return remoteErr
}
