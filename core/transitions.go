package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mihovilk/jarvis-core/core/events"
	"github.com/mihovilk/jarvis-core/core/speechcapture"
	"github.com/mihovilk/jarvis-core/core/synthesis"
)

func (c *Controller) handleTranscript(msg transcriptMsg) {
	if msg.session != c.captureSession {
		// Late transcript from a session that was already stopped; it must
		// not leak into the current utterance window.
		return
	}

	// A flowing transcript proves the capture stack is healthy again, so a
	// later failure earns a fresh automatic retry.
	c.captureRetryUsed = false

	switch c.state {
	case StateListeningForWakeWord:
		if msg.final {
			c.emit(events.NewUserTranscriptFinal(msg.transcript))
		} else {
			c.emit(events.NewUserTranscriptPartial(msg.transcript))
		}

		settings := c.settings.Snapshot().withDefaults()
		if !containsWakeWord(msg.transcript, settings.WakeWord) {
			return
		}

		c.emit(events.NewWakeWordDetected(msg.transcript))
		c.stopCapture()
		c.startGreeting()

	case StateListeningForUtterance:
		if msg.final {
			c.emit(events.NewUserTranscriptFinal(msg.transcript))
			c.pending.append(msg.transcript)
		} else {
			c.emit(events.NewUserTranscriptPartial(msg.transcript))
		}

		// Any fragment, partial or final, proves the user is still
		// talking, so the silence window restarts from now.
		c.armSilenceTimer(c.currentSilenceTimeout)

	default:
		// Transcripts arriving outside a listening state belong to a
		// capture session that was already stopped.
	}
}

func containsWakeWord(transcript, wakeWord string) bool {
	return strings.Contains(strings.ToLower(transcript), strings.ToLower(wakeWord))
}

func (c *Controller) armSilenceTimer(timeout time.Duration) {
	c.silenceGeneration++
	generation := c.silenceGeneration
	time.AfterFunc(timeout, func() {
		c.enqueue(silenceElapsedMsg{generation: generation})
	})
}

func (c *Controller) cancelSilenceTimer() {
	c.silenceGeneration++
}

func (c *Controller) handleSilenceElapsed(msg silenceElapsedMsg) {
	// A fresher arm or a state change makes an in-flight timer stale.
	if msg.generation != c.silenceGeneration || c.state != StateListeningForUtterance {
		return
	}

	c.stopCapture()
	c.cancelSilenceTimer()

	if c.pending.empty() {
		// Only partial fragments arrived and nothing stabilized; treat it
		// as the user saying nothing and end the conversation.
		c.startWakeListening()
		return
	}

	utterance := c.pending.text()
	c.pending.reset()
	c.emit(events.NewUtteranceCaptured(utterance))
	c.dispatchTurn(utterance)
}

func (c *Controller) dispatchTurn(utterance string) {
	c.turnID = uuid.NewString()
	turnID := c.turnID
	c.emit(events.NewTurnStarted(turnID, utterance))
	c.setState(StateAwaitingReply)

	settings := c.settings.Snapshot().withDefaults()
	offlineOnly := settings.OfflineMode || c.remote == nil ||
		(c.monitor != nil && c.monitor.Offline())

	if offlineOnly {
		c.respondOffline(turnID, utterance)
		return
	}

	go func() {
		ctx, span := tracer.Start(c.baseContext, "conversation.turn.remote")
		defer span.End()

		reply, err := c.remote.SendMessage(ctx, utterance, c.requestContext)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.enqueue(remoteFailedMsg{turnID: turnID, utterance: utterance, err: err})
			return
		}
		c.enqueue(replyMsg{turnID: turnID, reply: reply, source: events.ReplySourceRemote})
	}()
}

func (c *Controller) respondOffline(turnID, utterance string) {
	if c.offline == nil {
		c.emit(events.NewTurnFailed(turnID, "no assistant available"))
		c.startApology()
		return
	}

	go func() {
		ctx, span := tracer.Start(c.baseContext, "conversation.turn.offline")
		defer span.End()

		reply := c.offline.Respond(ctx, utterance)
		c.enqueue(replyMsg{turnID: turnID, reply: reply, source: events.ReplySourceOffline})
	}()
}

func (c *Controller) handleRemoteFailed(msg remoteFailedMsg) {
	if msg.turnID != c.turnID || c.state != StateAwaitingReply {
		return
	}

	logger.Warn("remote assistant request failed",
		"turn_id", msg.turnID, "error", msg.err)

	// Fall back to the local responder only when the failure coincides
	// with lost connectivity; transient server errors surface as an
	// apology instead of a degraded answer.
	if c.offline != nil && c.monitor != nil && c.monitor.Offline() {
		c.respondOffline(msg.turnID, msg.utterance)
		return
	}

	c.emit(events.NewTurnFailed(msg.turnID, msg.err.Error()))
	c.startApology()
}

func (c *Controller) handleReply(msg replyMsg) {
	if msg.turnID != c.turnID || c.state != StateAwaitingReply {
		return
	}

	reply := msg.reply
	if reply == nil {
		c.completeTurn()
		c.startUtteranceListening()
		return
	}

	c.emit(events.NewReplyReceived(msg.turnID, reply.Text, reply.ImageURLs, msg.source))

	if c.dispatcher != nil {
		for kind, payload := range reply.Actions {
			c.dispatcher.Dispatch(kind, payload)
		}
	}

	if reply.Text == "" && len(reply.Audio) == 0 {
		// Nothing to speak; the turn resolved through actions alone.
		c.completeTurn()
		c.startUtteranceListening()
		return
	}

	c.startPlayback(purposeReply, reply.Text, reply.Audio)
}

func (c *Controller) completeTurn() {
	c.emit(events.NewTurnCompleted(c.turnID))
	c.turnID = ""
}

func (c *Controller) startGreeting() {
	c.startPlayback(purposeGreeting, greetingText, c.greetingAudio)
}

func (c *Controller) startApology() {
	c.startPlayback(purposeApology, apologyText, nil)
}

// startPlayback speaks transcript (or plays pre-synthesized audio when
// provided) and transitions to Speaking. Completion is routed back through
// the queue with a token so late callbacks from a superseded playback are
// ignored.
func (c *Controller) startPlayback(purpose playbackPurpose, transcript string, audio []byte) {
	if c.synthesizer == nil {
		c.finishPlayback(purpose)
		return
	}

	c.playbackToken++
	token := c.playbackToken
	c.playbackPurpose = purpose
	c.playbackTranscript = transcript
	c.setState(StateSpeaking)
	c.emit(events.NewPlaybackStarted(transcript))

	completion := func(err error) {
		c.enqueue(playbackDoneMsg{token: token, err: err})
	}

	settings := c.settings.Snapshot().withDefaults()
	go func() {
		var err error
		if len(audio) > 0 {
			err = c.synthesizer.PlayAudio(c.baseContext, audio,
				synthesis.WithCompletionCallback(completion))
		} else {
			err = c.synthesizer.Speak(c.baseContext, transcript,
				synthesis.WithVoice(settings.Voice),
				synthesis.WithCompletionCallback(completion))
		}
		if err != nil {
			span := trace.SpanFromContext(c.baseContext)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
}

func (c *Controller) handlePlaybackDone(msg playbackDoneMsg) {
	if c.state != StateSpeaking || msg.token != c.playbackToken {
		return
	}

	if msg.err != nil {
		// A failed synthesis still completes the turn; staying silent is
		// better than wedging in Speaking.
		logger.Warn("playback ended with error", "error", msg.err)
	}

	c.emit(events.NewPlaybackEnded(c.playbackTranscript))
	c.finishPlayback(c.playbackPurpose)
}

func (c *Controller) finishPlayback(purpose playbackPurpose) {
	switch purpose {
	case purposeGreeting:
		c.startUtteranceListening()
	case purposeReply:
		c.completeTurn()
		c.startUtteranceListening()
	case purposeApology:
		c.startWakeListening()
	}
}

func (c *Controller) startWakeListening() {
	c.pending.reset()
	c.cancelSilenceTimer()

	settings := c.settings.Snapshot().withDefaults()
	if !settings.WakeWordEnabled || c.capture == nil {
		c.setState(StateIdle)
		return
	}

	c.setState(StateListeningForWakeWord)
	c.startCapture(speechcapture.ModeWakeWord)
}

func (c *Controller) startUtteranceListening() {
	c.pending.reset()

	settings := c.settings.Snapshot().withDefaults()
	if c.capture == nil {
		c.setState(StateIdle)
		return
	}

	c.setState(StateListeningForUtterance)
	// The timeout is pinned for the whole capture so a settings change
	// mid-utterance cannot produce a shorter window than the one armed.
	// The timer itself is only armed once the first fragment arrives.
	c.currentSilenceTimeout = settings.SilenceTimeout
	c.cancelSilenceTimer()
	c.startCapture(speechcapture.ModeUtterance)
}

// startCapture opens a new capture session on a background goroutine. The
// session carries an identity so a stop issued while the session is still
// dialing lands: stopCapture cancels the session context, and a dial that
// completes anyway is shut down before it can run alongside playback.
func (c *Controller) startCapture(mode speechcapture.Mode) {
	if c.captureCancel != nil {
		// Release the previous session's context; whatever remains of that
		// session is superseded now.
		c.captureCancel()
	}

	c.captureSession++
	session := c.captureSession

	ctx, cancel := context.WithCancel(c.baseContext)
	c.captureCancel = cancel

	go func() {
		err := c.capture.Start(ctx,
			speechcapture.WithMode(mode),
			speechcapture.WithPartialTranscriptCallback(func(transcript string) {
				c.enqueue(transcriptMsg{session: session, transcript: transcript})
			}),
			speechcapture.WithFinalTranscriptCallback(func(transcript string) {
				c.enqueue(transcriptMsg{session: session, transcript: transcript, final: true})
			}),
			speechcapture.WithUnavailableCallback(func(reason string) {
				c.enqueue(captureUnavailableMsg{session: session, reason: reason})
			}),
		)
		if err != nil {
			if ctx.Err() == nil {
				c.enqueue(captureUnavailableMsg{session: session, reason: err.Error()})
			}
			return
		}
		if ctx.Err() != nil || c.isClosed() {
			// The stop raced the dial; the session went live after it was
			// already superseded and must not keep running.
			if stopErr := c.capture.Stop(); stopErr != nil {
				logger.Warn("failed to stop superseded capture session", "error", stopErr)
			}
		}
	}()
}

func (c *Controller) stopCapture() {
	if c.capture == nil {
		return
	}

	// Invalidate the session first so a dial still in flight is cancelled
	// and late events from it are dropped.
	if c.captureCancel != nil {
		c.captureCancel()
		c.captureCancel = nil
	}
	c.captureSession++

	if err := c.capture.Stop(); err != nil {
		logger.Warn("failed to stop speech capture", "error", err)
	}
}

func (c *Controller) handleCaptureUnavailable(msg captureUnavailableMsg) {
	if msg.session != c.captureSession {
		// A superseded session failing on its way out is not a problem
		// with the current one.
		return
	}

	c.emit(events.NewCaptureUnavailable(msg.reason))
	c.cancelSilenceTimer()
	c.pending.reset()
	c.setState(StateIdle)

	// One automatic restart per idle period; after that the user resumes
	// explicitly.
	if c.captureRetryUsed {
		return
	}
	c.captureRetryUsed = true
	time.AfterFunc(c.captureRetryDelay, func() {
		c.enqueue(retryCaptureMsg{})
	})
}

func (c *Controller) handleRetryCapture() {
	if c.state != StateIdle {
		return
	}
	c.startWakeListening()
}

func (c *Controller) handleResume() {
	c.captureRetryUsed = false
	if c.state != StateIdle {
		return
	}

	settings := c.settings.Snapshot().withDefaults()
	if settings.WakeWordEnabled {
		c.startWakeListening()
		return
	}
	c.startUtteranceListening()
}

func (c *Controller) handleTextInput(msg textInputMsg) {
	text := strings.TrimSpace(msg.text)
	if text == "" {
		return
	}

	switch c.state {
	case StateAwaitingReply, StateSpeaking:
		logger.Warn("dropping text input while a turn is in flight")
		return
	case StateListeningForWakeWord, StateListeningForUtterance:
		c.stopCapture()
		c.cancelSilenceTimer()
		c.pending.reset()
	}

	c.emit(events.NewUtteranceCaptured(text))
	c.dispatchTurn(text)
}
