// Command mockasr is a local stand-in for the speech recognition service.
// It accepts the multipart /api/v1/asr contract, validates the WAV upload and
// answers with a fixed transcription.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/skypro1111/voicecapture/internal/audio"
)

type asrEntry struct {
	Key       string `json:"key"`
	Text      string `json:"text"`
	RawText   string `json:"raw_text"`
	CleanText string `json:"clean_text"`
}

type asrResponse struct {
	Result []asrEntry `json:"result"`
}

// mockASR serves the recognition contract
type mockASR struct {
	text   string
	delay  time.Duration
	status int // forced response status; 0 answers normally
	logger *slog.Logger
}

func (m *mockASR) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/asr", m.handleASR)
	mux.HandleFunc("/health", m.handleHealth)
	return mux
}

func (m *mockASR) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (m *mockASR) handleASR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	lang := r.FormValue("lang")
	keys := r.FormValue("keys")

	file, header, err := r.FormFile("files")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	info, err := audio.GetWAVInfo(data)
	if err != nil {
		m.logger.Warn("Rejected invalid WAV upload", slog.String("error", err.Error()))
		http.Error(w, "Invalid WAV file", http.StatusBadRequest)
		return
	}

	m.logger.Info("Recognition request received",
		slog.String("filename", header.Filename),
		slog.String("content_type", header.Header.Get("Content-Type")),
		slog.String("lang", lang),
		slog.String("keys", keys),
		slog.Int("sample_rate", int(info.SampleRate)),
		slog.Int("channels", int(info.Channels)),
		slog.Float64("duration_seconds", info.Duration),
		slog.Int("data_size", int(info.DataSize)),
	)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-r.Context().Done():
			m.logger.Info("Client went away before response")
			return
		}
	}

	if m.status != 0 && m.status != http.StatusOK {
		http.Error(w, http.StatusText(m.status), m.status)
		return
	}

	key := keys
	if key == "" {
		key = "audio_input"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(asrResponse{Result: []asrEntry{{
		Key:       key,
		Text:      m.text,
		RawText:   m.text,
		CleanText: m.text,
	}}})
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "listen address")
	text := flag.String("text", "Це тестова транскрипція", "text returned for every request")
	delay := flag.Duration("delay", 200*time.Millisecond, "simulated processing time")
	status := flag.Int("status", 0, "force this HTTP status for recognition requests")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	m := &mockASR{text: *text, delay: *delay, status: *status, logger: logger}

	server := &http.Server{
		Addr:        *addr,
		Handler:     m.routes(),
		ReadTimeout: 30 * time.Second,
	}

	logger.Info("Mock recognition service starting",
		slog.String("address", *addr),
		slog.String("endpoint", "/api/v1/asr"))

	if err := server.ListenAndServe(); err != nil {
		logger.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
