package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mihovilk/jarvis-core/core/assistants"
	"github.com/mihovilk/jarvis-core/core/events"
	"github.com/mihovilk/jarvis-core/core/speechcapture"
	"github.com/mihovilk/jarvis-core/core/synthesis"
)

type stubCaptureClient struct {
	mu       sync.Mutex
	sessions []speechcapture.CaptureOptions
	failures int
	started  chan speechcapture.Mode
}

func newStubCaptureClient() *stubCaptureClient {
	return &stubCaptureClient{started: make(chan speechcapture.Mode, 16)}
}

func (s *stubCaptureClient) Start(_ context.Context, opts ...speechcapture.CaptureOption) error {
	options := speechcapture.CaptureOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.sessions = append(s.sessions, options)
	shouldFail := s.failures > 0
	if shouldFail {
		s.failures--
	}
	s.mu.Unlock()

	if shouldFail {
		return errors.New("no capture device")
	}

	s.started <- options.Mode
	return nil
}

func (s *stubCaptureClient) Stop() error { return nil }

func (s *stubCaptureClient) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *stubCaptureClient) session(t *testing.T) speechcapture.CaptureOptions {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		t.Fatalf("no capture session started")
	}
	return s.sessions[len(s.sessions)-1]
}

func (s *stubCaptureClient) awaitStart(t *testing.T, mode speechcapture.Mode) speechcapture.CaptureOptions {
	t.Helper()
	select {
	case started := <-s.started:
		if started != mode {
			t.Fatalf("expected capture mode %q, got %q", mode, started)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q capture session", mode)
	}
	return s.session(t)
}

type stubSynthesizer struct {
	mu     sync.Mutex
	spoken []string
	played int
	err    error
}

func (s *stubSynthesizer) Speak(_ context.Context, text string, opts ...synthesis.SpeakOption) error {
	options := synthesis.SpeakOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	err := s.err
	s.mu.Unlock()

	if options.CompletionCallback != nil {
		options.CompletionCallback(err)
	}
	return err
}

func (s *stubSynthesizer) PlayAudio(_ context.Context, _ []byte, opts ...synthesis.SpeakOption) error {
	options := synthesis.SpeakOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.played++
	s.mu.Unlock()

	if options.CompletionCallback != nil {
		options.CompletionCallback(nil)
	}
	return nil
}

func (s *stubSynthesizer) Stop() error { return nil }

func (s *stubSynthesizer) spokenTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type stubRemoteAssistant struct {
	calls     atomic.Int32
	mu        sync.Mutex
	lastText  string
	reply     *assistants.Reply
	err       error
	onRequest func()
}

func (s *stubRemoteAssistant) SendMessage(_ context.Context, text string, _ assistants.RequestContext) (*assistants.Reply, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastText = text
	s.mu.Unlock()

	if s.onRequest != nil {
		s.onRequest()
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.reply != nil {
		return s.reply, nil
	}
	return &assistants.Reply{Text: "remote reply"}, nil
}

func (s *stubRemoteAssistant) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText
}

type stubOfflineAssistant struct {
	calls    atomic.Int32
	mu       sync.Mutex
	lastText string
}

func (s *stubOfflineAssistant) Respond(_ context.Context, text string) *assistants.Reply {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastText = text
	s.mu.Unlock()
	return &assistants.Reply{Text: "offline reply"}
}

func (s *stubOfflineAssistant) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText
}

type stubConnectivityMonitor struct {
	offline atomic.Bool
}

func (s *stubConnectivityMonitor) Offline() bool { return s.offline.Load() }

func (s *stubConnectivityMonitor) Subscribe(func(offline bool)) func() { return func() {} }

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %v, still in %v", want, c.State())
}

func waitForCondition(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWakeWordMatchIsCaseInsensitiveSubstring(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}

	wakeDetected := make(chan string, 1)

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx, WithWakeWordDetectedCallback(func(fragment string) {
		select {
		case wakeDetected <- fragment:
		default:
		}
	}))

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("Is that JARVIS talking?")

	select {
	case fragment := <-wakeDetected:
		if fragment != "Is that JARVIS talking?" {
			t.Fatalf("unexpected wake fragment %q", fragment)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for wake word detection")
	}

	capture.awaitStart(t, speechcapture.ModeUtterance)
	waitForState(t, c, StateListeningForUtterance)

	spoken := synth.spokenTexts()
	if len(spoken) != 1 || spoken[0] != greetingText {
		t.Fatalf("expected a single greeting, got %v", spoken)
	}
}

func TestSilenceTimerRestartsOnEveryFragment(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	remote := &stubRemoteAssistant{}

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
		WithSettingsSource(StaticSettings(Settings{
			WakeWordEnabled: true,
			SilenceTimeout:  120 * time.Millisecond,
		})),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("hey jarvis")

	session = capture.awaitStart(t, speechcapture.ModeUtterance)

	// Fragments arriving well inside the window must keep the capture
	// open; only the final trailing silence may close it.
	session.FinalTranscriptCallback("what is the")
	time.Sleep(60 * time.Millisecond)
	if got := remote.calls.Load(); got != 0 {
		t.Fatalf("utterance dispatched before silence elapsed, %d calls", got)
	}
	session.FinalTranscriptCallback("weather today")

	waitForCondition(t, "remote dispatch", func() bool {
		return remote.calls.Load() == 1
	})

	if got := remote.last(); got != "what is the weather today" {
		t.Fatalf("unexpected utterance %q", got)
	}

	time.Sleep(150 * time.Millisecond)
	if got := remote.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", got)
	}
}

func TestReplyIsSpokenAndListeningResumes(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	remote := &stubRemoteAssistant{reply: &assistants.Reply{Text: "It is sunny, sir."}}

	completedTurns := make(chan struct{}, 1)

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
		WithSettingsSource(StaticSettings(Settings{
			WakeWordEnabled: true,
			SilenceTimeout:  50 * time.Millisecond,
		})),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx, WithPlaybackEndedCallback(func(string) {
		select {
		case completedTurns <- struct{}{}:
		default:
		}
	}))

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("jarvis")

	session = capture.awaitStart(t, speechcapture.ModeUtterance)
	session.FinalTranscriptCallback("how is the weather")

	capture.awaitStart(t, speechcapture.ModeUtterance)
	waitForState(t, c, StateListeningForUtterance)

	spoken := synth.spokenTexts()
	if len(spoken) != 2 {
		t.Fatalf("expected greeting and reply, got %v", spoken)
	}
	if spoken[1] != "It is sunny, sir." {
		t.Fatalf("unexpected spoken reply %q", spoken[1])
	}
}

func TestRemoteFailureFallsBackToOfflineWhenDisconnected(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	monitor := &stubConnectivityMonitor{}
	offline := &stubOfflineAssistant{}
	remote := &stubRemoteAssistant{err: errors.New("connection reset")}
	// The network drops mid-request: the probe only notices once the
	// request has already failed.
	remote.onRequest = func() { monitor.offline.Store(true) }

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
		WithOfflineAssistant(offline),
		WithConnectivityMonitor(monitor),
		WithSettingsSource(StaticSettings(Settings{
			WakeWordEnabled: true,
			SilenceTimeout:  50 * time.Millisecond,
		})),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("jarvis")

	session = capture.awaitStart(t, speechcapture.ModeUtterance)
	session.FinalTranscriptCallback("what time is it")

	waitForCondition(t, "offline fallback", func() bool {
		return offline.calls.Load() == 1
	})

	if got := offline.last(); got != "what time is it" {
		t.Fatalf("fallback used utterance %q", got)
	}

	waitForCondition(t, "fallback reply playback", func() bool {
		for _, text := range synth.spokenTexts() {
			if text == "offline reply" {
				return true
			}
		}
		return false
	})
}

func TestRemoteFailureWhileOnlineSpeaksApology(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	monitor := &stubConnectivityMonitor{}
	offline := &stubOfflineAssistant{}
	remote := &stubRemoteAssistant{err: errors.New("internal server error")}

	failedTurns := make(chan string, 1)

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
		WithOfflineAssistant(offline),
		WithConnectivityMonitor(monitor),
		WithSettingsSource(StaticSettings(Settings{
			WakeWordEnabled: true,
			SilenceTimeout:  50 * time.Millisecond,
		})),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx, WithEventCallback(func(event events.Event) {
		if failed, ok := event.(events.TurnFailed); ok {
			select {
			case failedTurns <- failed.Reason:
			default:
			}
		}
	}))

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("jarvis")

	session = capture.awaitStart(t, speechcapture.ModeUtterance)
	session.FinalTranscriptCallback("anything")

	select {
	case reason := <-failedTurns:
		if reason == "" {
			t.Fatalf("turn failure carried no reason")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for turn failure")
	}

	capture.awaitStart(t, speechcapture.ModeWakeWord)
	waitForState(t, c, StateListeningForWakeWord)

	if got := offline.calls.Load(); got != 0 {
		t.Fatalf("server errors must not degrade to the offline responder, got %d calls", got)
	}

	waitForCondition(t, "apology playback", func() bool {
		for _, text := range synth.spokenTexts() {
			if text == apologyText {
				return true
			}
		}
		return false
	})
}

func TestOfflineModeSettingForcesLocalAssistant(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	offline := &stubOfflineAssistant{}
	remote := &stubRemoteAssistant{}

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
		WithOfflineAssistant(offline),
		WithSettingsSource(StaticSettings(Settings{
			WakeWordEnabled: true,
			SilenceTimeout:  50 * time.Millisecond,
			OfflineMode:     true,
		})),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("jarvis")

	session = capture.awaitStart(t, speechcapture.ModeUtterance)
	session.FinalTranscriptCallback("play some music")

	waitForCondition(t, "offline dispatch", func() bool {
		return offline.calls.Load() == 1
	})

	if got := remote.calls.Load(); got != 0 {
		t.Fatalf("offline mode must not reach the remote assistant, got %d calls", got)
	}
}

func TestPartialOnlyUtteranceReturnsToWakeListening(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	remote := &stubRemoteAssistant{}

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
		WithSettingsSource(StaticSettings(Settings{
			WakeWordEnabled: true,
			SilenceTimeout:  50 * time.Millisecond,
		})),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("jarvis")

	session = capture.awaitStart(t, speechcapture.ModeUtterance)
	// A partial that never stabilizes arms the silence timer but leaves
	// nothing to dispatch.
	session.PartialTranscriptCallback("uh")

	capture.awaitStart(t, speechcapture.ModeWakeWord)
	waitForState(t, c, StateListeningForWakeWord)

	if got := remote.calls.Load(); got != 0 {
		t.Fatalf("silence without stabilized speech must not dispatch, got %d calls", got)
	}
}

func TestCaptureUnavailableSchedulesSingleRetry(t *testing.T) {
	capture := newStubCaptureClient()
	capture.failures = 2

	unavailableReports := make(chan string, 4)

	c := NewController(
		WithCaptureClient(capture),
		WithCaptureRetryDelay(20*time.Millisecond),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx, WithCaptureUnavailableCallback(func(reason string) {
		unavailableReports <- reason
	}))

	for i := 0; i < 2; i++ {
		select {
		case <-unavailableReports:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for unavailability report %d", i+1)
		}
	}

	waitForState(t, c, StateIdle)
	time.Sleep(100 * time.Millisecond)
	if got := capture.startCount(); got != 2 {
		t.Fatalf("expected exactly one automatic retry, got %d start attempts", got)
	}

	// An explicit resume re-arms the retry budget.
	c.Resume()
	capture.awaitStart(t, speechcapture.ModeWakeWord)
	waitForState(t, c, StateListeningForWakeWord)
}

func TestSendTextBypassesCapture(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	remote := &stubRemoteAssistant{reply: &assistants.Reply{Text: "Certainly, sir."}}

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)
	capture.awaitStart(t, speechcapture.ModeWakeWord)

	c.SendText("set a reminder for tomorrow")

	waitForCondition(t, "remote dispatch", func() bool {
		return remote.calls.Load() == 1
	})
	if got := remote.last(); got != "set a reminder for tomorrow" {
		t.Fatalf("unexpected dispatched text %q", got)
	}

	capture.awaitStart(t, speechcapture.ModeUtterance)
	waitForState(t, c, StateListeningForUtterance)
}

func TestActionsAreDispatchedWithReply(t *testing.T) {
	capture := newStubCaptureClient()
	synth := &stubSynthesizer{}
	remote := &stubRemoteAssistant{reply: &assistants.Reply{
		Text: "Navigating now, sir.",
		Actions: map[assistants.ActionKind]string{
			assistants.ActionMapsNavigate: "pharmacy",
		},
	}}

	dispatched := make(chan string, 1)

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
		WithActionDispatcher(actionDispatcherFunc(func(kind assistants.ActionKind, payload string) {
			dispatched <- string(kind) + ":" + payload
		})),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)
	capture.awaitStart(t, speechcapture.ModeWakeWord)

	c.SendText("take me to the nearest pharmacy")

	select {
	case got := <-dispatched:
		if got != "maps-navigate:pharmacy" {
			t.Fatalf("unexpected action dispatch %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for action dispatch")
	}
}

type actionDispatcherFunc func(kind assistants.ActionKind, payload string)

func (f actionDispatcherFunc) Dispatch(kind assistants.ActionKind, payload string) {
	f(kind, payload)
}

// slowStartCapture models a capture source whose dial takes a while and
// deliberately ignores cancellation, the worst case for a stop racing a
// start.
type slowStartCapture struct {
	mu     sync.Mutex
	active bool
	delay  time.Duration
}

func (s *slowStartCapture) Start(_ context.Context, _ ...speechcapture.CaptureOption) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	return nil
}

func (s *slowStartCapture) Stop() error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	return nil
}

func (s *slowStartCapture) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// manualSynthesizer holds completion callbacks until the test releases
// them, keeping the controller in Speaking.
type manualSynthesizer struct {
	mu          sync.Mutex
	completions []func(error)
}

func (s *manualSynthesizer) record(opts []synthesis.SpeakOption) {
	options := synthesis.SpeakOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	s.mu.Lock()
	if options.CompletionCallback != nil {
		s.completions = append(s.completions, options.CompletionCallback)
	}
	s.mu.Unlock()
}

func (s *manualSynthesizer) Speak(_ context.Context, _ string, opts ...synthesis.SpeakOption) error {
	s.record(opts)
	return nil
}

func (s *manualSynthesizer) PlayAudio(_ context.Context, _ []byte, opts ...synthesis.SpeakOption) error {
	s.record(opts)
	return nil
}

func (s *manualSynthesizer) Stop() error { return nil }

func (s *manualSynthesizer) finish() {
	s.mu.Lock()
	completions := s.completions
	s.completions = nil
	s.mu.Unlock()
	for _, completion := range completions {
		completion(nil)
	}
}

func TestStopDuringCaptureDialKeepsPlaybackExclusive(t *testing.T) {
	capture := &slowStartCapture{delay: 150 * time.Millisecond}
	synth := &manualSynthesizer{}
	remote := &stubRemoteAssistant{reply: &assistants.Reply{Text: "Certainly, sir."}}

	c := NewController(
		WithCaptureClient(capture),
		WithSynthesizerClient(synth),
		WithRemoteAssistant(remote),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)

	// Typed input lands while the wake session is still dialing.
	time.Sleep(20 * time.Millisecond)
	c.SendText("what's on my calendar")

	waitForState(t, c, StateSpeaking)

	// Let the abandoned dial complete; the session must be shut down, not
	// left capturing alongside playback.
	time.Sleep(300 * time.Millisecond)
	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected playback still in progress, state is %v", got)
	}
	if capture.isActive() {
		t.Fatalf("capture session active while playback in progress")
	}

	synth.finish()
	waitForState(t, c, StateListeningForUtterance)
}

func TestRetryBudgetRearmsAfterHealthyCapture(t *testing.T) {
	capture := newStubCaptureClient()

	c := NewController(
		WithCaptureClient(capture),
		WithCaptureRetryDelay(20*time.Millisecond),
	)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Listen(ctx)

	session := capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("hello there")
	session.UnavailableCallback("device busy")

	// The first failure gets its automatic retry; a transcript on the new
	// session proves it healthy, so the next failure earns one too.
	session = capture.awaitStart(t, speechcapture.ModeWakeWord)
	session.FinalTranscriptCallback("still here")
	session.UnavailableCallback("device busy")

	capture.awaitStart(t, speechcapture.ModeWakeWord)
	waitForState(t, c, StateListeningForWakeWord)
}
