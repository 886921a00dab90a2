package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// VertexClient holds the pre-configured generative model used to draft bios.
type VertexClient struct {
	BioModel   *genai.GenerativeModel
	baseClient *genai.Client
}

var _ services.TextGenerator = (*VertexClient)(nil)

// NewVertexClient creates a client for modelName in the given region.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	bioModel := baseClient.GenerativeModel(modelName)
	bioModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(services.BioSystemPrompt)},
	}
	bioModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "text/plain",
		Temperature:      genai.Ptr[float32](0.4),
		MaxOutputTokens:  genai.Ptr[int32](400),
	}

	return &VertexClient{
		BioModel:   bioModel,
		baseClient: baseClient,
	}, nil
}

// Generate sends prompt to the bio model and returns the concatenated text parts.
func (c *VertexClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.BioModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var contentBuilder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			contentBuilder.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(contentBuilder.String())
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
