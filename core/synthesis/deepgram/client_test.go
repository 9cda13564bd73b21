package deepgram

import (
	"context"
	"testing"

	"github.com/mihovilk/jarvis-core/core/synthesis"
)

type recordingOutput struct {
	calls []string
	marks []func(string)
}

func (r *recordingOutput) StartPlayback() error {
	r.calls = append(r.calls, "StartPlayback")
	return nil
}

func (r *recordingOutput) StopPlayback() error {
	r.calls = append(r.calls, "StopPlayback")
	return nil
}

func (r *recordingOutput) SendAudio([]byte) error {
	r.calls = append(r.calls, "SendAudio")
	return nil
}

func (r *recordingOutput) Mark(_ string, callback func(string)) error {
	r.calls = append(r.calls, "Mark")
	r.marks = append(r.marks, callback)
	return nil
}

func (r *recordingOutput) ClearBuffer() {
	r.calls = append(r.calls, "ClearBuffer")
	r.marks = nil
}

func (r *recordingOutput) drainMarks() {
	for _, mark := range r.marks {
		mark("end-of-response")
	}
	r.marks = nil
}

func TestPlayAudioSupersedesInFlightOutput(t *testing.T) {
	output := &recordingOutput{}
	client := NewClient(output)

	firstCompletions := 0
	if err := client.PlayAudio(context.Background(), []byte{0x01},
		synthesis.WithCompletionCallback(func(error) { firstCompletions++ })); err != nil {
		t.Fatalf("first playback failed: %v", err)
	}

	secondCompletions := 0
	if err := client.PlayAudio(context.Background(), []byte{0x02},
		synthesis.WithCompletionCallback(func(error) { secondCompletions++ })); err != nil {
		t.Fatalf("second playback failed: %v", err)
	}

	want := []string{
		"ClearBuffer", "StartPlayback", "SendAudio", "Mark",
		"ClearBuffer", "StartPlayback", "SendAudio", "Mark",
	}
	if len(output.calls) != len(want) {
		t.Fatalf("unexpected output calls %v", output.calls)
	}
	for i, call := range want {
		if output.calls[i] != call {
			t.Fatalf("call %d = %q, want %q (full sequence %v)", i, output.calls[i], call, output.calls)
		}
	}

	output.drainMarks()
	if firstCompletions != 0 {
		t.Fatalf("superseded output reported completion %d times", firstCompletions)
	}
	if secondCompletions != 1 {
		t.Fatalf("expected one completion for the current output, got %d", secondCompletions)
	}
}

func TestStopDropsPendingCompletion(t *testing.T) {
	output := &recordingOutput{}
	client := NewClient(output)

	completions := 0
	if err := client.PlayAudio(context.Background(), []byte{0x01},
		synthesis.WithCompletionCallback(func(error) { completions++ })); err != nil {
		t.Fatalf("playback failed: %v", err)
	}

	if err := client.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	output.drainMarks()
	if completions != 0 {
		t.Fatalf("cancelled output reported completion %d times", completions)
	}
}
