package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

const (
	realtimeURL = "wss://dashscope-intl.aliyuncs.com/api-ws/v1/realtime"

	clonedRealtimeModel   = "qwen3-tts-vc-realtime-2025-11-27"
	designedRealtimeModel = "qwen3-tts-vd-realtime-2025-12-16"
)

type realtimeEvent struct {
	Type    string `json:"type"`
	Delta   string `json:"delta,omitempty"`
	Session any    `json:"session,omitempty"`
	Text    string `json:"text,omitempty"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SynthesizeCustom generates audio with a designed or cloned custom voice over
// the realtime websocket API, collecting PCM deltas until the server signals
// completion and returning the result as WAV.
func SynthesizeCustom(ctx context.Context, apiKey, text, voiceID, voiceType string) (*Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("no text provided")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key provided")
	}

	model := designedRealtimeModel
	if voiceType == "cloned" {
		model = clonedRealtimeModel
	}

	header := http.Header{}
	header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("%s?model=%s", realtimeURL, model), header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to realtime API: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() {
		_ = conn.Close()
	}()

	var pcm []byte
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("realtime connection failed: %w", err)
		}

		var event realtimeEvent
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}

		switch event.Type {
		case "session.created":
			update := map[string]any{
				"type": "session.update",
				"session": map[string]any{
					"voice":           voiceID,
					"response_format": "pcm",
					"sample_rate":     DefaultSampleRate,
					"mode":            "server_commit",
				},
			}
			if err := conn.WriteJSON(update); err != nil {
				return nil, fmt.Errorf("failed to configure session: %w", err)
			}

		case "session.updated":
			if err := conn.WriteJSON(map[string]any{
				"type": "input_text_buffer.append",
				"text": text,
			}); err != nil {
				return nil, fmt.Errorf("failed to send text: %w", err)
			}
			if err := conn.WriteJSON(map[string]any{
				"type": "input_text_buffer.commit",
			}); err != nil {
				return nil, fmt.Errorf("failed to commit text: %w", err)
			}

		case "response.audio.delta":
			if event.Delta == "" {
				continue
			}
			chunk, err := base64.StdEncoding.DecodeString(event.Delta)
			if err != nil {
				return nil, fmt.Errorf("failed to decode audio delta: %w", err)
			}
			pcm = append(pcm, chunk...)

		case "response.audio.done", "session.finished":
			if len(pcm) == 0 {
				return nil, fmt.Errorf("no audio received")
			}
			return &Audio{
				Base64: base64.StdEncoding.EncodeToString(PCMToWAV(pcm, DefaultSampleRate)),
				Format: "wav",
			}, nil

		case "error":
			return nil, fmt.Errorf("realtime API error: %s", event.Error.Message)
		}
	}
}
