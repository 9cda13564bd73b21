package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mihovilk/jarvis-core/core/assistants"
)

func TestSendMessageParsesReply(t *testing.T) {
	var requestBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response": "It is three in the afternoon, sir.",
			"images":   []string{"https://example.com/clock.png"},
			"actions":  map[string]string{"reminder-create": "tea at four"},
			"audio":    base64.StdEncoding.EncodeToString([]byte{0x01, 0x02}),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	reply, err := client.SendMessage(context.Background(), "what time is it", assistants.RequestContext{
		Timezone: "Europe/Zagreb",
		Location: "downtown Zagreb",
	})
	if err != nil {
		t.Fatalf("expected reply, got error %v", err)
	}

	if reply.Text != "It is three in the afternoon, sir." {
		t.Fatalf("unexpected reply text %q", reply.Text)
	}
	if len(reply.ImageURLs) != 1 {
		t.Fatalf("expected one image url, got %v", reply.ImageURLs)
	}
	if got := reply.Actions[assistants.ActionCreateReminder]; got != "tea at four" {
		t.Fatalf("expected reminder action payload, got %q", got)
	}
	if len(reply.Audio) != 2 {
		t.Fatalf("expected decoded reply audio, got %d bytes", len(reply.Audio))
	}

	var request sendMessageRequest
	if err := json.Unmarshal(requestBody, &request); err != nil {
		t.Fatalf("failed to decode captured request: %v", err)
	}
	if request.Message != "what time is it" || request.Timezone != "Europe/Zagreb" {
		t.Fatalf("unexpected request %+v", request)
	}
	if len(request.Actions) != 5 {
		t.Fatalf("expected the full action catalog in the request, got %d entries", len(request.Actions))
	}
}

func TestSendMessageClassifiesFailures(t *testing.T) {
	serverError := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer serverError.Close()

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer malformed.Close()

	missingText := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"images": []string{}})
	}))
	defer missingText.Close()

	unreachable := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	unreachableURL := unreachable.URL
	unreachable.Close()

	testCases := []struct {
		name     string
		endpoint string
		expected assistants.RemoteErrorKind
	}{
		{name: "server error", endpoint: serverError.URL, expected: assistants.RemoteErrorServer},
		{name: "malformed body", endpoint: malformed.URL, expected: assistants.RemoteErrorMalformed},
		{name: "missing reply text", endpoint: missingText.URL, expected: assistants.RemoteErrorMalformed},
		{name: "network failure", endpoint: unreachableURL, expected: assistants.RemoteErrorNetwork},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client := NewClient(testCase.endpoint)
			_, err := client.SendMessage(context.Background(), "hello", assistants.RequestContext{Timezone: "UTC"})
			if err == nil {
				t.Fatalf("expected error")
			}

			var remoteErr *assistants.RemoteError
			if !errors.As(err, &remoteErr) {
				t.Fatalf("expected *assistants.RemoteError, got %T", err)
			}
			if remoteErr.Kind != testCase.expected {
				t.Fatalf("expected kind %q, got %q (%v)", testCase.expected, remoteErr.Kind, remoteErr)
			}
		})
	}
}

func TestSendMessageServerErrorCarriesBackendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "upstream unavailable"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendMessage(context.Background(), "hello", assistants.RequestContext{Timezone: "UTC"})

	var remoteErr *assistants.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *assistants.RemoteError, got %T", err)
	}
	if remoteErr.Message != "upstream unavailable" {
		t.Fatalf("expected backend message to surface, got %q", remoteErr.Message)
	}
}

func TestSendMessageMakesExactlyOneAttempt(t *testing.T) {
	attempts := atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.SendMessage(context.Background(), "hello", assistants.RequestContext{Timezone: "UTC"}); err == nil {
		t.Fatalf("expected error")
	}

	if got := attempts.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}
