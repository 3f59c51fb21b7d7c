package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chefai/internal/recipes"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var ErrEmptyResponse = errors.New("empty response from model")

type Generator interface {
	Generate(ctx context.Context, req Request) (recipes.Recipe, error)
}

type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ Generator = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

// recipeSchema mirrors recipes.Recipe without the fields assigned on save.
func recipeSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	list := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":        str("Название рецепта на русском языке"),
			"description":  str("Краткое описание блюда на русском"),
			"ingredients":  list("Список ингредиентов с количеством"),
			"instructions": list("Пошаговая инструкция приготовления"),
			"cookingTime":  str("Время приготовления (например, '30 минут')"),
			"difficulty":   str("Сложность (Легко, Средне, Сложно)"),
			"calories":     str("Примерная калорийность на порцию"),
		},
		Required:         []string{"title", "description", "ingredients", "instructions", "cookingTime", "difficulty"},
		PropertyOrdering: []string{"title", "description", "ingredients", "instructions", "cookingTime", "difficulty", "calories"},
	}
}

func (c *GeminiClient) contents(req Request) ([]*genai.Content, error) {
	var parts []*genai.Part
	switch req.Mode {
	case ModePhoto:
		img, err := req.imageBytes()
		if err != nil {
			return nil, invalid("Image data is not valid base64")
		}
		parts = []*genai.Part{
			genai.NewPartFromBytes(img, req.mimeType()),
			genai.NewPartFromText(photoPrompt),
		}
	case ModeFusion:
		parts = []*genai.Part{genai.NewPartFromText(fusionPrompt(req.Cuisine1, req.Cuisine2, req.Creativity))}
	default:
		return nil, invalid("Invalid mode")
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (recipes.Recipe, error) {
	if err := req.Validate(); err != nil {
		return recipes.Recipe{}, err
	}
	contents, err := c.contents(req)
	if err != nil {
		return recipes.Recipe{}, err
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    recipeSchema(),
		Temperature:       genai.Ptr(req.Temperature()),
	})
	if err != nil {
		return recipes.Recipe{}, fmt.Errorf("gemini generate: %w", err)
	}
	slog.InfoContext(ctx, "generated recipe", "mode", req.Mode, "model", c.model)
	return parseRecipe(resp.Text())
}

func parseRecipe(text string) (recipes.Recipe, error) {
	text = strings.TrimSpace(text)
	// some models still wrap JSON in a fence
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return recipes.Recipe{}, ErrEmptyResponse
	}
	var r recipes.Recipe
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return recipes.Recipe{}, fmt.Errorf("failed to parse model output: %w", err)
	}
	// the model never decides identity
	r.ID = ""
	r.CreatedAt = 0
	if err := r.Validate(); err != nil {
		return recipes.Recipe{}, fmt.Errorf("model returned an unusable recipe: %w", err)
	}
	return r, nil
}
