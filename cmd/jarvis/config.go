package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	DeepgramAPIKey    string
	AssistantEndpoint string
	AssistantAPIKey   string
	LocalLLMBaseURL   string
	LocalLLMModel     string
	ProbeURL          string
	WakeWord          string
	SilenceTimeout    time.Duration
	Voice             string
	OfflineMode       bool
	AudioBackend      string
}

func loadConfig() config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg := config{
		DeepgramAPIKey:    os.Getenv("DEEPGRAM_API_KEY"),
		AssistantEndpoint: os.Getenv("ASSISTANT_ENDPOINT"),
		AssistantAPIKey:   os.Getenv("ASSISTANT_API_KEY"),
		LocalLLMBaseURL:   os.Getenv("LOCAL_LLM_BASE_URL"),
		LocalLLMModel:     os.Getenv("LOCAL_LLM_MODEL"),
		ProbeURL:          os.Getenv("CONNECTIVITY_PROBE_URL"),
		WakeWord:          os.Getenv("WAKE_WORD"),
		Voice:             os.Getenv("VOICE"),
		AudioBackend:      os.Getenv("AUDIO_BACKEND"),
	}

	if cfg.AudioBackend != "" && cfg.AudioBackend != "miniaudio" && cfg.AudioBackend != "portaudio" {
		log.Printf("Unknown AUDIO_BACKEND=%q, falling back to miniaudio", cfg.AudioBackend)
		cfg.AudioBackend = "miniaudio"
	}

	if cfg.DeepgramAPIKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set, capture and synthesis will not work")
	}
	if cfg.AssistantEndpoint == "" {
		log.Println("Warning: ASSISTANT_ENDPOINT not set, replies will come from the offline responder")
	}
	if cfg.LocalLLMModel == "" {
		cfg.LocalLLMModel = "llama3.2"
	}

	if raw := os.Getenv("SILENCE_TIMEOUT_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			log.Printf("Ignoring invalid SILENCE_TIMEOUT_MS=%q", raw)
		} else {
			cfg.SilenceTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if raw := os.Getenv("OFFLINE_MODE"); raw != "" {
		offline, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("Ignoring invalid OFFLINE_MODE=%q", raw)
		} else {
			cfg.OfflineMode = offline
		}
	}

	return cfg
}
