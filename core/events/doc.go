// Package events defines the typed conversation event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - conversation_state.*
//   - user_input.*
//   - turn_state.*
//   - assistant_reply.*
//   - assistant_playback.*
//   - capture.*
//
// Semantics used across the package:
//
//   - Partial: mutable point-in-time transcript snapshot that can still
//     change while the recognizer refines it.
//   - Final: stabilized transcript text for the current capture segment.
//   - Captured: the utterance the silence timeout closed, exactly as it
//     will be dispatched to an assistant.
//
// conversation_state events
//
//   - StateChanged (conversation_state.changed): the controller moved from
//     one conversation state to another.
//
// user_input events
//
//   - UserTranscriptPartial (user_input.transcript_partial): mutable partial
//     transcript update.
//   - UserTranscriptFinal (user_input.transcript_final): stabilized
//     transcript segment.
//   - WakeWordDetected (user_input.wake_detected): a transcript fragment
//     contained the wake token; carries the triggering fragment.
//   - UtteranceCaptured (user_input.utterance_captured): the silence timeout
//     fired and the pending utterance was closed for dispatch.
//
// turn_state events
//
//   - TurnStarted (turn_state.started): an utterance was dispatched to an
//     assistant; carries the turn id and utterance text.
//   - TurnCompleted (turn_state.completed): the reply for the turn finished
//     playing.
//   - TurnFailed (turn_state.failed): the turn ended with a spoken apology
//     instead of a reply.
//
// assistant_reply events
//
//   - ReplyReceived (assistant_reply.received): an assistant produced a
//     reply; Source tells remote from offline.
//
// assistant_playback events
//
//   - PlaybackStarted (assistant_playback.started): synthesized or
//     pre-fetched audio started playing.
//   - PlaybackEnded (assistant_playback.ended): playback ran to completion
//     (a failed synthesis counts as completion; cancellation does not).
//
// capture events
//
//   - CaptureUnavailable (capture.unavailable): the speech capture source
//     reported it cannot run; carries a human-readable reason.
package events
