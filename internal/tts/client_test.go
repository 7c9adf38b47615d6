package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Generate_InlinePCM(t *testing.T) {
	pcm := []byte{0x10, 0x20, 0x30, 0x40}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != generationPath {
			t.Errorf("path = %s, want %s", r.URL.Path, generationPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer dash-key" {
			t.Errorf("Authorization = %q, want Bearer dash-key", got)
		}

		var req generationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request error = %v", err)
		}
		if req.Model != flashModel {
			t.Errorf("model = %q, want %q", req.Model, flashModel)
		}
		if req.Input.Voice != "Cherry" {
			t.Errorf("voice = %q, want Cherry", req.Input.Voice)
		}
		if req.Input.LanguageType != "English" {
			t.Errorf("language type = %q, want English", req.Input.LanguageType)
		}

		fmt.Fprintf(w, `{"output": {"audio": {"data": %q}}}`, base64.StdEncoding.EncodeToString(pcm))
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	audio, err := client.Generate(context.Background(), "dash-key", "Hello", "Cherry")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if audio.Format != "wav" {
		t.Errorf("format = %q, want wav", audio.Format)
	}

	wav, err := base64.StdEncoding.DecodeString(audio.Base64)
	if err != nil {
		t.Fatalf("decode audio error = %v", err)
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Error("audio does not start with a RIFF header")
	}
	if !bytes.HasSuffix(wav, pcm) {
		t.Error("audio does not end with the PCM payload")
	}
}

func TestClient_Generate_AudioURL(t *testing.T) {
	wavBytes := PCMToWAV([]byte{1, 2, 3, 4}, DefaultSampleRate)

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/audio.wav" {
			_, _ = w.Write(wavBytes)
			return
		}
		fmt.Fprintf(w, `{"output": {"audio": {"url": %q}}}`, server.URL+"/audio.wav")
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	audio, err := client.Generate(context.Background(), "dash-key", "Hello", "Ethan")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := base64.StdEncoding.DecodeString(audio.Base64)
	if err != nil {
		t.Fatalf("decode audio error = %v", err)
	}
	if !bytes.Equal(got, wavBytes) {
		t.Error("fetched audio does not match the served file")
	}
}

func TestClient_Generate_InputValidation(t *testing.T) {
	client := NewClient()

	if _, err := client.Generate(context.Background(), "key", "", "Cherry"); err == nil {
		t.Error("Generate() with empty text error = nil, want error")
	}
	if _, err := client.Generate(context.Background(), "", "Hello", "Cherry"); err == nil {
		t.Error("Generate() with empty key error = nil, want error")
	}
}

func TestClient_ValidateKey(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantValid bool
	}{
		{"valid key", http.StatusOK, true},
		{"invalid key", http.StatusUnauthorized, false},
		{"other error", http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != customizationPath {
					t.Errorf("path = %s, want %s", r.URL.Path, customizationPath)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient()
			client.BaseURL = server.URL

			valid, _ := client.ValidateKey(context.Background(), "dash-key")
			if valid != tt.wantValid {
				t.Errorf("ValidateKey() = %v, want %v", valid, tt.wantValid)
			}
		})
	}
}

func TestClient_ValidateKey_Empty(t *testing.T) {
	client := NewClient()
	if valid, _ := client.ValidateKey(context.Background(), ""); valid {
		t.Error("ValidateKey() with empty key = true, want false")
	}
}
