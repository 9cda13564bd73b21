package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	conversation "github.com/mihovilk/jarvis-core/core"
	"github.com/mihovilk/jarvis-core/core/assistants/offline"
	"github.com/mihovilk/jarvis-core/core/assistants/remote"
	"github.com/mihovilk/jarvis-core/core/audio"
	"github.com/mihovilk/jarvis-core/core/audio/miniaudio"
	portaudiobackend "github.com/mihovilk/jarvis-core/core/audio/portaudio"
	"github.com/mihovilk/jarvis-core/core/connectivity"
	"github.com/mihovilk/jarvis-core/core/events"
	"github.com/mihovilk/jarvis-core/core/speechcapture"
	capturedeepgram "github.com/mihovilk/jarvis-core/core/speechcapture/deepgram"
	synthesisdeepgram "github.com/mihovilk/jarvis-core/core/synthesis/deepgram"
)

const portaudioBufferSize = 1024

// captureBackend abstracts the microphone so either audio stack can feed
// the transcriber.
type captureBackend interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	CaptureEncodingInfo() audio.EncodingInfo
}

// portaudioCapture adapts the blocking PortAudio read loop to the
// non-blocking StartCapture contract the controller expects.
type portaudioCapture struct {
	client *portaudiobackend.Client
	cancel context.CancelFunc
}

func (p *portaudioCapture) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go func() {
		if err := p.client.StartCapture(ctx, onAudio); err != nil {
			log.Printf("portaudio capture ended: %v", err)
		}
	}()
	return nil
}

func (p *portaudioCapture) StopCapture() error {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	return p.client.StopCapture()
}

func (p *portaudioCapture) CaptureEncodingInfo() audio.EncodingInfo {
	return p.client.CaptureEncodingInfo()
}

// microphoneCapture couples the local microphone to the transcription
// websocket so the controller sees a single capture boundary.
type microphoneCapture struct {
	transcriber *capturedeepgram.CaptureClient
	audio       captureBackend
}

func (m *microphoneCapture) Start(ctx context.Context, opts ...speechcapture.CaptureOption) error {
	opts = append(opts, speechcapture.WithEncodingInfo(m.audio.CaptureEncodingInfo()))
	if err := m.transcriber.Start(ctx, opts...); err != nil {
		return fmt.Errorf("failed to start transcription: %w", err)
	}

	if err := m.audio.StartCapture(ctx, func(audio []byte) {
		if err := m.transcriber.SendAudio(audio); err != nil {
			log.Printf("failed to forward captured audio: %v", err)
		}
	}); err != nil {
		if stopErr := m.transcriber.Stop(); stopErr != nil {
			log.Printf("failed to stop transcription after capture error: %v", stopErr)
		}
		return fmt.Errorf("failed to start microphone capture: %w", err)
	}

	return nil
}

func (m *microphoneCapture) Stop() error {
	if err := m.audio.StopCapture(); err != nil {
		return err
	}
	return m.transcriber.Stop()
}

func main() {
	cfg := loadConfig()

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		log.Fatalf("failed to initialize audio: %v", err)
	}
	defer audioClient.Close()

	var microphone captureBackend = audioClient
	if cfg.AudioBackend == "portaudio" {
		portaudioClient, err := portaudiobackend.NewClient(portaudioBufferSize)
		if err != nil {
			log.Fatalf("failed to initialize portaudio: %v", err)
		}
		defer portaudioClient.Close()
		microphone = &portaudioCapture{client: portaudioClient}
	}

	capture := &microphoneCapture{
		transcriber: capturedeepgram.NewCaptureClient(),
		audio:       microphone,
	}
	synthesizer := synthesisdeepgram.NewClient(audioClient)

	monitorOpts := []connectivity.MonitorOption{}
	if cfg.ProbeURL != "" {
		monitorOpts = append(monitorOpts, connectivity.WithProbeURL(cfg.ProbeURL))
	}
	monitor := connectivity.NewMonitor(monitorOpts...)

	offlineOpts := []offline.ResponderOption{}
	if cfg.LocalLLMBaseURL != "" {
		offlineOpts = append(offlineOpts,
			offline.WithGenerator(offline.NewLocalGenerator(cfg.LocalLLMBaseURL, cfg.LocalLLMModel)))
	}
	responder := offline.NewResponder(offlineOpts...)

	controllerOpts := []conversation.ControllerOption{
		conversation.WithCaptureClient(capture),
		conversation.WithSynthesizerClient(synthesizer),
		conversation.WithOfflineAssistant(responder),
		conversation.WithConnectivityMonitor(monitor),
		conversation.WithSettingsSource(conversation.StaticSettings(conversation.Settings{
			WakeWordEnabled: true,
			WakeWord:        cfg.WakeWord,
			SilenceTimeout:  cfg.SilenceTimeout,
			OfflineMode:     cfg.OfflineMode,
			Voice:           cfg.Voice,
		})),
	}
	if cfg.AssistantEndpoint != "" {
		remoteOpts := []remote.ClientOption{}
		if cfg.AssistantAPIKey != "" {
			remoteOpts = append(remoteOpts, remote.WithAPIKey(cfg.AssistantAPIKey))
		}
		controllerOpts = append(controllerOpts,
			conversation.WithRemoteAssistant(remote.NewClient(cfg.AssistantEndpoint, remoteOpts...)))
	}

	controller := conversation.NewController(controllerOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.Start(ctx)

	program := tea.NewProgram(newModel(controller), tea.WithAltScreen())

	controller.Listen(ctx,
		conversation.WithStateChangedCallback(func(from, to conversation.State) {
			program.Send(stateChangedMsg{from: from, to: to})
		}),
		conversation.WithPartialTranscriptCallback(func(transcript string) {
			program.Send(transcriptMsg{text: transcript})
		}),
		conversation.WithUtteranceCapturedCallback(func(transcript string) {
			program.Send(utteranceMsg{text: transcript})
		}),
		conversation.WithReplyCallback(func(reply events.ReplyReceived) {
			program.Send(replyMsg{text: reply.Text, source: string(reply.Source)})
		}),
		conversation.WithCaptureUnavailableCallback(func(reason string) {
			program.Send(captureUnavailableMsg{reason: reason})
		}),
		conversation.WithConnectivityChangedCallback(func(offline bool) {
			program.Send(connectivityMsg{offline: offline})
		}),
	)
	defer controller.Close()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running interface: %v\n", err)
		os.Exit(1)
	}
}
