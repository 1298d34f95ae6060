package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client             *openai.Client
	model              string
	transcriptionModel string
}

func NewOpenAIClient(apiKey, model, transcriptionModel, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if transcriptionModel == "" {
		transcriptionModel = openai.Whisper1
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIClient{
		client:             client,
		model:              model,
		transcriptionModel: transcriptionModel,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("no response choices")
}

func (c *OpenAIClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	req := openai.AudioRequest{
		Model:    c.transcriptionModel,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatText,
		Language: "en",
	}
	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
