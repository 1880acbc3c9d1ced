package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// OpenAI is an OpenAI-compatible HTTP provider. Foundry Local exposes this
// API on localhost, so the defaults point there.
type OpenAI struct {
	apiURL   string
	apiKey   string
	model    string
	client   *http.Client
	maxIters int
}

// NewOpenAI creates a provider from environment variables.
// ARCOPS_LLM_URL (default http://localhost:5273/v1)
// ARCOPS_LLM_MODEL (default qwen2.5-1.5b)
// ARCOPS_LLM_API_KEY (default foundry-local)
// ARCOPS_MAX_TOOL_ITERATIONS (default 5)
func NewOpenAI() *OpenAI {
	apiURL := os.Getenv("ARCOPS_LLM_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5273/v1"
	}
	model := os.Getenv("ARCOPS_LLM_MODEL")
	if model == "" {
		model = "qwen2.5-1.5b"
	}
	apiKey := os.Getenv("ARCOPS_LLM_API_KEY")
	if apiKey == "" {
		apiKey = "foundry-local"
	}
	maxIters := 5
	if v := os.Getenv("ARCOPS_MAX_TOOL_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxIters = n
		}
	}
	return &OpenAI{
		apiURL:   apiURL,
		apiKey:   apiKey,
		model:    model,
		maxIters: maxIters,
		client:   &http.Client{Timeout: 300 * time.Second},
	}
}

// NewOpenAIWith creates a provider with explicit settings, used by the
// server wiring and tests.
func NewOpenAIWith(apiURL, apiKey, model string, maxIters int) *OpenAI {
	if maxIters <= 0 {
		maxIters = 5
	}
	return &OpenAI{
		apiURL:   apiURL,
		apiKey:   apiKey,
		model:    model,
		maxIters: maxIters,
		client:   &http.Client{Timeout: 300 * time.Second},
	}
}

// MaxIterations returns the configured max tool call iterations.
func (o *OpenAI) MaxIterations() int { return o.maxIters }

// Model returns the configured model id.
func (o *OpenAI) Model() string { return o.model }

// SetModel switches the model used for subsequent requests.
func (o *OpenAI) SetModel(model string) { o.model = model }

// Chat sends exactly one chat completion request. Failures return
// immediately so the caller can fail over or surface a remediation hint;
// nothing is retried here.
func (o *OpenAI) Chat(messages []Message, tools []ToolDefinition) (*Response, error) {
	body := map[string]any{
		"model":    o.model,
		"messages": messages,
	}
	if len(tools) > 0 {
		body["tools"] = tools
		body["tool_choice"] = "auto"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", o.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseProviderError(resp.StatusCode, data)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in LLM response")
	}

	choice := result.Choices[0]
	out := &Response{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}

	for _, tc := range choice.Message.ToolCalls {
		call := ToolCall{
			ID:   tc.ID,
			Type: tc.Type,
			Name: tc.Function.Name,
			Function: &FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
		// Pre-parse arguments for convenience.
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err == nil {
			call.Args = args
		}
		out.ToolCalls = append(out.ToolCalls, call)
	}

	return out, nil
}

// OpenAI API response types.
type chatCompletionResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatMessage struct {
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	ToolCalls []apiToolCall `json:"tool_calls,omitempty"`
}

type apiToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

type apiFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
