package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
	"github.com/trananhduc/event-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, genModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// Generate sends the transcript as a single user content block. Role
// distinction is not preserved on the wire; only content strings are sent.
func (g *Generator) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	contents := make([]string, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		contents = append(contents, msg.Content)
	}

	request := map[string]any{
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]any{
					{"text": strings.Join(contents, "\n")},
				},
			},
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.client.genModel)
	call := func(callCtx context.Context) error {
		return g.client.postJSON(callCtx, path, request, &response, "generate")
	}
	var err error
	if g.client.executor != nil {
		err = g.client.executor.Execute(ctx, "gemini.generate", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("gemini generate", err)
	}

	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("gemini generate: response has no candidates")
	}
	parts := response.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini generate: first candidate has no parts")
	}
	return parts[0].Text, nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requests := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		requests = append(requests, map[string]any{
			"model": "models/" + e.client.embedModel,
			"content": map[string]any{
				"parts": []map[string]any{
					{"text": text},
				},
			},
		})
	}

	var response struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:batchEmbedContents", e.client.embedModel)
	call := func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, path, map[string]any{"requests": requests}, &response, "embed")
	}
	var err error
	if e.client.executor != nil {
		err = e.client.executor.Execute(ctx, "gemini.embed", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("gemini embed", err)
	}

	vectors := make([][]float32, 0, len(response.Embeddings))
	for _, emb := range response.Embeddings {
		vectors = append(vectors, emb.Values)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
