package services

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// LLMModelName is the GenAI model to use for a call.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite-preview-06-17"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.0-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

// outfitTemperature is intentionally high: creative outfit combinations are
// preferred over the safest pick.
const outfitTemperature = 1.2

type GeminiStylist struct {
	Model LLMModelName
}

func newGeminiClient(ctx context.Context) (*genai.Client, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, &ConfigurationError{Missing: "GOOGLE_API_KEY"}
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (g GeminiStylist) GenerateOutfit(ctx context.Context, prompt string) (*LLMResponse, error) {
	client, err := newGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{{Text: prompt}}
	result, err := client.Models.GenerateContent(ctx, g.Model.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 8000,
		Temperature:     floatPointer(outfitTemperature),
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}
	return readGenerateResult(result, g.Model)
}

// AnalyzeItemImage asks the model to tag a single clothing photo. One
// attempt, no timeout here: the ItemAnalyzer owns retry and deadline policy.
func (g GeminiStylist) AnalyzeItemImage(ctx context.Context, imageBytes []byte, mimeType string) (*LLMResponse, error) {
	client, err := newGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageBytes}},
		{Text: `Analyze this clothing item photo. Return JSON with fields:
- "name": short descriptive item name
- "category": one of Top, Bottom, Footwear, Outerwear, Accessory, Headwear, Dress
- "color": dominant color
- "material": one of Cotton, Linen, Wool, Denim, Leather, Silk, Synthetic, Knit, Other
- "styleTags": up to 5 style keywords (e.g. casual, formal, streetwear)
- "fit": fit descriptor (slim, regular, relaxed, oversized) or null`},
	}

	result, err := client.Models.GenerateContent(ctx, g.Model.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		CandidateCount:   1,
		MaxOutputTokens:  2000,
		Temperature:      floatPointer(0.4),
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}
	return readGenerateResult(result, g.Model)
}

func readGenerateResult(result *genai.GenerateContentResponse, model LLMModelName) (*LLMResponse, error) {
	var inputTokenCount, outputTokenCount, totalTokenCount int32
	if result.UsageMetadata != nil {
		inputTokenCount = result.UsageMetadata.PromptTokenCount
		outputTokenCount = result.UsageMetadata.CandidatesTokenCount
		totalTokenCount = result.UsageMetadata.TotalTokenCount
		fmt.Println("Input token count:", inputTokenCount)
		fmt.Println("Output token count:", outputTokenCount)
		fmt.Println("Total token count:", totalTokenCount)
	} else {
		fmt.Println("UsageMetadata is nil!")
	}

	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason)
		fmt.Println(result.PromptFeedback.BlockReasonMessage)
		return nil, fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}

	for _, c := range result.Candidates {
		for _, rating := range c.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content violation: blocked by safety setting %s", rating.Category)
			}
		}
	}

	return &LLMResponse{
		Response:         result.Text(),
		Model:            model.String(),
		InputTokenCount:  inputTokenCount,
		OutputTokenCount: outputTokenCount,
		TotalTokenCount:  totalTokenCount,
	}, nil
}
