package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAI implements the Oracle interface using OpenAI tool calling
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates a new OpenAI Oracle instance. baseURL may be empty to use the
// public API, in which case the key must look like a real OpenAI key.
func NewOpenAI(apiKey, modelName, baseURL string, timeout time.Duration) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" && (!strings.HasPrefix(apiKey, "sk-") || len(apiKey) < 40) {
		return nil, fmt.Errorf("invalid openai api key")
	}
	if modelName == "" {
		modelName = openai.GPT4o
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(cfg),
		model:   modelName,
		timeout: timeout,
	}, nil
}

// Call forces a call to fn and returns its arguments
func (o *OpenAI) Call(ctx context.Context, fn Function, doc Document) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if doc.IsText() {
		msg.Content = fn.Instruction + "\n\n" + doc.Text
	} else {
		dataURL := "data:" + doc.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(doc.Image)
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: fn.Instruction},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: []openai.ChatCompletionMessage{msg},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters(),
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: fn.Name},
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoResponse
	}

	reply := resp.Choices[0].Message
	for _, call := range reply.ToolCalls {
		if call.Function.Name == fn.Name {
			return []byte(call.Function.Arguments), nil
		}
	}
	if reply.FunctionCall != nil && reply.FunctionCall.Name == fn.Name {
		return []byte(reply.FunctionCall.Arguments), nil
	}
	return emptyArguments, nil
}

// Close is a no-op for the HTTP-based client
func (o *OpenAI) Close() error {
	return nil
}
