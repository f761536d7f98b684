package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const completionTemperature = 0.7

type CompletionService interface {
	Complete(ctx context.Context, messages []transfer.ChatMessage) (string, error)
}

type completionService struct {
	cfg    config.LLM
	client *http.Client
}

func NewCompletionService(cfg config.Config, client *http.Client) CompletionService {
	if client == nil {
		client = http.DefaultClient
	}
	return &completionService{cfg: cfg.LLM, client: client}
}

// Complete returns the first choice's content. Nothing is retried here.
func (s *completionService) Complete(ctx context.Context, messages []transfer.ChatMessage) (string, error) {
	body, err := json.Marshal(transfer.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: completionTemperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", &ExternalServiceError{Service: "llm", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ExternalServiceError{Service: "llm", StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var result transfer.ChatCompletionResponse
	decodeErr := json.Unmarshal(respBody, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		slog.Info("completion request failed", "status", resp.StatusCode, "error", msg)
		return "", &ExternalServiceError{Service: "llm", StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", &ExternalServiceError{Service: "llm", StatusCode: resp.StatusCode, Message: "malformed response: " + decodeErr.Error()}
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", &ExternalServiceError{Service: "llm", StatusCode: resp.StatusCode, Message: "empty completion content"}
	}

	return result.Choices[0].Message.Content, nil
}
