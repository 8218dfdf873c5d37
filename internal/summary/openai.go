package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Babel/internal/core"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You summarize group chat transcripts in two or three sentences. " +
	"Mention who took part and the main topics. Reply in English."

var ErrEmptyCompletion = errors.New("empty completion")

// OpenAI asks a chat completion model for the digest.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

func (s *OpenAI) Summarize(ctx context.Context, window []core.SummaryLine) (string, error) {
	var transcript strings.Builder
	for _, l := range window {
		fmt.Fprintf(&transcript, "%s: %s\n", l.Username, l.Text)
	}
	if transcript.Len() == 0 {
		transcript.WriteString("(no messages)")
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(transcript.String()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
