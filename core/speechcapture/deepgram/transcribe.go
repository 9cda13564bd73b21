// Package deepgram implements speech capture against the Deepgram live
// transcription websocket.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/mihovilk/jarvis-core/core/audio"
	"github.com/mihovilk/jarvis-core/core/speechcapture"
)

const keepAliveInterval = 5 * time.Second

// captureSession is the state of one websocket stream. Each Start creates a
// fresh session so a previous session winding down cannot clobber the
// current one: restarts happen every turn and the old close handshake often
// outlives them.
type captureSession struct {
	conn     *websocket.Conn
	stopping atomic.Bool
}

type CaptureClient struct {
	session   *captureSession
	sessionMu sync.Mutex

	lastMsgTs time.Time
}

func NewCaptureClient() *CaptureClient {
	return &CaptureClient{}
}

// Start opens a live transcription stream and begins delivering transcript
// callbacks until Stop is called or the stream terminates. Mid-stream
// failures are reported through the unavailable callback; the client does
// not reconnect on its own.
func (c *CaptureClient) Start(ctx context.Context, opts ...speechcapture.CaptureOption) error {
	options := &speechcapture.CaptureOptions{
		Mode:         speechcapture.ModeUtterance,
		EncodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(options)
	}

	conn, err := connectWebsocket(connectionOptions{
		sampleRate:     options.EncodingInfo.SampleRate,
		encoding:       options.EncodingInfo.Format.Name(),
		interimResults: options.PartialTranscriptCallback != nil,
	})
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	session := &captureSession{conn: conn}
	c.sessionMu.Lock()
	c.session = session
	c.lastMsgTs = time.Now()
	c.sessionMu.Unlock()

	keepAliveCtx, cancelKeepAlive := context.WithCancel(ctx)
	go c.keepAlive(keepAliveCtx)
	go func() {
		defer cancelKeepAlive()
		c.readAndProcessMessages(session, *options)
	}()

	return nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string

	interimResults bool
}

func connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	queryParams.Set("endpointing", "300")
	if options.interimResults {
		queryParams.Set("interim_results", "true")
	}

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (c *CaptureClient) SendAudio(audio []byte) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.session == nil {
		return fmt.Errorf("capture stream not started")
	}

	c.lastMsgTs = time.Now()
	if err := c.session.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Stop closes the current stream. Transcript callbacks stop after the
// in-flight message, and the termination is not reported as unavailability.
// A session started after Stop returns is unaffected by the old session's
// close handshake.
func (c *CaptureClient) Stop() error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.session == nil {
		return nil
	}

	c.session.stopping.Store(true)
	if err := c.session.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

func (c *CaptureClient) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sessionMu.Lock()
			idle := time.Since(c.lastMsgTs) > keepAliveInterval/2
			session := c.session
			if idle && session != nil {
				if err := session.conn.WriteJSON(struct {
					Type string `json:"type"`
				}{Type: "KeepAlive"}); err != nil {
					log.Println("failed to send deepgram keepalive:", err)
				}
			}
			c.sessionMu.Unlock()
		}
	}
}

func (c *CaptureClient) readAndProcessMessages(session *captureSession, options speechcapture.CaptureOptions) {
	for {
		msgType, msg, err := session.conn.ReadMessage()
		if err != nil {
			// Only unregister the session this loop belongs to; a restart
			// may already have installed its successor.
			c.sessionMu.Lock()
			if c.session == session {
				c.session = nil
			}
			c.sessionMu.Unlock()
			session.conn.Close()

			if session.stopping.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}

			if options.UnavailableCallback != nil {
				options.UnavailableCallback(fmt.Sprintf("recognizer stream terminated: %v", err))
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			c.processMessage(msg, options)
		}
	}
}

func (c *CaptureClient) processMessage(msg []byte, options speechcapture.CaptureOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("failed to unmarshal deepgram message:", err)
		return
	}

	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		log.Println("failed to unmarshal deepgram message:", err)
		return
	}

	if len(msgResp.Channel.Alternatives) == 0 {
		return
	}
	transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
	if len(transcript) == 0 {
		return
	}

	if msgResp.IsFinal {
		if options.FinalTranscriptCallback != nil {
			options.FinalTranscriptCallback(transcript)
		}
		return
	}
	if options.PartialTranscriptCallback != nil {
		options.PartialTranscriptCallback(transcript)
	}
}
