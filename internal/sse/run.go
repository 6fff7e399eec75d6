package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/howard-nolan/vertexproxy/internal/catalog"
	"github.com/howard-nolan/vertexproxy/internal/respond"
)

// maxScanTokenSize enlarges bufio.Scanner's default 64KiB line buffer.
// A single content_block_delta or candidate line can carry a full
// base64 image or a long tool-call argument fragment and overrun the
// default before the scanner ever sees the trailing newline.
const maxScanTokenSize = 1024 * 1024

// anthropicStreamEvent mirrors the teacher's tagged-union decode of
// Anthropic's named SSE events: every possible field lives in one
// struct and stays zero-valued when the event type doesn't use it.
type anthropicStreamEvent struct {
	Type         string                    `json:"type"`
	Message      *anthropicEventMessage    `json:"message,omitempty"`
	ContentBlock *anthropicEventContentBlk `json:"content_block,omitempty"`
	Delta        *anthropicEventDelta      `json:"delta,omitempty"`
}

type anthropicEventMessage struct {
	ID string `json:"id"`
}

type anthropicEventContentBlk struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type anthropicEventDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// geminiStreamChunk is one `?alt=sse` event: the same shape as a full
// generateContent response, just with one incremental candidate.
type geminiStreamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Run consumes upstream's SSE body and re-emits an OpenAI-compatible
// chat.completion.chunk stream to w (spec.md §4.7). upstream.Body is
// always closed before Run returns. A mid-stream read fault or context
// cancellation is logged and ends the response silently: headers are
// already sent, so the only honest move left is to stop writing
// (spec.md §4.7, "mid-stream error handling").
func Run(ctx context.Context, w http.ResponseWriter, upstream *http.Response, provider catalog.Provider, canonicalModel, requestID string) {
	defer upstream.Body.Close()

	writer, err := NewWriter(w)
	if err != nil {
		log.Printf("request %s: %v", requestID, err)
		return
	}
	writer.SetHeaders()

	state := &State{CompletionID: respond.NewCompletionID()}

	if err := writer.WriteChunk(roleChunk(state, canonicalModel)); err != nil {
		log.Printf("request %s: writing role frame: %v", requestID, err)
		return
	}
	state.RoleFrameSent = true

	scanner := bufio.NewScanner(upstream.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	var toolCallEmitted bool
	var toolCallIndex int

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			log.Printf("request %s: client disconnected mid-stream", requestID)
			return
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		switch provider {
		case catalog.ProviderGoogle:
			if err := handleGeminiLine(writer, state, canonicalModel, payload); err != nil {
				log.Printf("request %s: %v", requestID, err)
				return
			}
		default:
			emitted, err := handleAnthropicLine(writer, state, canonicalModel, payload, toolCallIndex)
			if err != nil {
				log.Printf("request %s: %v", requestID, err)
				return
			}
			if emitted {
				toolCallEmitted = true
			}
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("request %s: reading upstream stream: %v", requestID, err)
		return
	}

	finish := "stop"
	if toolCallEmitted {
		finish = "tool_calls"
	}
	final := Chunk{
		ID:      state.CompletionID,
		Object:  "chat.completion.chunk",
		Model:   canonicalModel,
		Choices: []ChunkChoice{{Delta: Delta{}, FinishReason: finishReason(finish)}},
	}
	if err := writer.WriteChunk(final); err != nil {
		log.Printf("request %s: writing final frame: %v", requestID, err)
		return
	}
	state.FinalFrameSent = true

	if err := writer.WriteDone(); err != nil {
		log.Printf("request %s: writing done sentinel: %v", requestID, err)
		return
	}
	state.DoneSentinelSent = true
}

func roleChunk(state *State, model string) Chunk {
	return Chunk{
		ID:      state.CompletionID,
		Object:  "chat.completion.chunk",
		Model:   model,
		Choices: []ChunkChoice{{Delta: Delta{Role: "assistant"}}},
	}
}

func contentChunk(state *State, model, text string) Chunk {
	state.ChunkCount++
	return Chunk{
		ID:      state.CompletionID,
		Object:  "chat.completion.chunk",
		Model:   model,
		Choices: []ChunkChoice{{Delta: Delta{Content: text}}},
	}
}

// handleAnthropicLine decodes one Anthropic SSE payload and writes the
// corresponding OpenAI chunk(s), if any. It reports whether this line
// opened or continued a tool call.
func handleAnthropicLine(w *Writer, state *State, model, payload string, toolCallIndex int) (bool, error) {
	var event anthropicStreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return false, err
	}

	switch event.Type {
	case "content_block_start":
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			chunk := Chunk{
				ID:     state.CompletionID,
				Object: "chat.completion.chunk",
				Model:  model,
				Choices: []ChunkChoice{{Delta: Delta{ToolCalls: []ToolCallDelta{{
					Index:    toolCallIndex,
					ID:       event.ContentBlock.ID,
					Type:     "function",
					Function: &ToolCallFunctionDelta{Name: event.ContentBlock.Name},
				}}}}},
			}
			return true, w.WriteChunk(chunk)
		}
		return false, nil

	case "content_block_delta":
		if event.Delta == nil {
			return false, nil
		}
		switch event.Delta.Type {
		case "text_delta":
			return false, w.WriteChunk(contentChunk(state, model, event.Delta.Text))
		case "input_json_delta":
			chunk := Chunk{
				ID:     state.CompletionID,
				Object: "chat.completion.chunk",
				Model:  model,
				Choices: []ChunkChoice{{Delta: Delta{ToolCalls: []ToolCallDelta{{
					Index:    toolCallIndex,
					Function: &ToolCallFunctionDelta{Arguments: event.Delta.PartialJSON},
				}}}}},
			}
			return true, w.WriteChunk(chunk)
		}
		return false, nil

	case "message_stop":
		state.ReceivedTerminalUpstream = true
		return false, nil
	}

	return false, nil
}

func handleGeminiLine(w *Writer, state *State, model, payload string) error {
	var chunk geminiStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return err
	}
	if len(chunk.Candidates) == 0 {
		return nil
	}
	candidate := chunk.Candidates[0]
	if candidate.FinishReason != "" {
		state.ReceivedTerminalUpstream = true
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return nil
	}
	return w.WriteChunk(contentChunk(state, model, text.String()))
}
