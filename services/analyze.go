package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vestiapi/models"
	"vestiapi/textutil"
)

// ItemMetadata is the structured result of analyzing a single clothing photo.
type ItemMetadata struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Color     string   `json:"color"`
	Material  string   `json:"material"`
	StyleTags []string `json:"styleTags"`
	Fit       *string  `json:"fit"`
}

type ItemAnalysisProvider interface {
	AnalyzeItemImage(ctx context.Context, imageBytes []byte, mimeType string) (*LLMResponse, error)
}

// ItemAnalyzer runs image analysis with a per-attempt deadline. A timed-out
// attempt is terminal: the image is likely too large or the service is
// degraded, and repeating a 30s wait only burns quota. Other failures get
// retried with backoff.
type ItemAnalyzer struct {
	Provider ItemAnalysisProvider
	Timeout  time.Duration
	Retry    *RetryPolicy
}

func NewItemAnalyzer(provider ItemAnalysisProvider) *ItemAnalyzer {
	return &ItemAnalyzer{
		Provider: provider,
		Timeout:  30 * time.Second,
		Retry: &RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			Multiplier:  2,
			NonRetryable: func(err error) bool {
				var timeoutErr *AnalysisTimeoutError
				return errors.As(err, &timeoutErr)
			},
		},
	}
}

func (a *ItemAnalyzer) Analyze(ctx context.Context, imageBytes []byte, mimeType string) (*ItemMetadata, *LLMResponse, error) {
	var llmResp *LLMResponse

	attempts, err := a.Retry.Do(ctx, "item-analysis", func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, a.Timeout)
		defer cancel()

		resp, callErr := a.Provider.AnalyzeItemImage(attemptCtx, imageBytes, mimeType)
		if callErr != nil {
			if errors.Is(callErr, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
				return &AnalysisTimeoutError{After: a.Timeout}
			}
			return callErr
		}
		llmResp = resp
		return nil
	})
	if err != nil {
		var timeoutErr *AnalysisTimeoutError
		if errors.As(err, &timeoutErr) {
			return nil, nil, timeoutErr
		}
		return nil, nil, &AnalysisFailedError{Attempts: attempts, Err: err}
	}

	metadata, err := parseItemMetadata(llmResp.Response)
	if err != nil {
		return nil, llmResp, err
	}
	return metadata, llmResp, nil
}

func parseItemMetadata(raw string) (*ItemMetadata, error) {
	cleaned := StripCodeFences(raw)
	var metadata ItemMetadata
	if err := json.Unmarshal([]byte(cleaned), &metadata); err != nil {
		fmt.Printf("[Note: could not parse analysis response] %v\n", err)
		return nil, &MalformedResponseError{Reason: "invalid analysis JSON", Raw: raw}
	}
	metadata.Category = NormalizeCategory(metadata.Category)
	metadata.Material = NormalizeMaterial(metadata.Material)
	return &metadata, nil
}

var categoryAliases = map[string]models.Category{
	"shirt":    models.CategoryTop,
	"t-shirt":  models.CategoryTop,
	"tshirt":   models.CategoryTop,
	"blouse":   models.CategoryTop,
	"sweater":  models.CategoryTop,
	"hoodie":   models.CategoryTop,
	"pants":    models.CategoryBottom,
	"trousers": models.CategoryBottom,
	"jeans":    models.CategoryBottom,
	"skirt":    models.CategoryBottom,
	"shorts":   models.CategoryBottom,
	"shoes":    models.CategoryFootwear,
	"sneakers": models.CategoryFootwear,
	"boots":    models.CategoryFootwear,
	"sandals":  models.CategoryFootwear,
	"jacket":   models.CategoryOuterwear,
	"coat":     models.CategoryOuterwear,
	"blazer":   models.CategoryOuterwear,
	"hat":      models.CategoryHeadwear,
	"cap":      models.CategoryHeadwear,
	"beanie":   models.CategoryHeadwear,
	"dress":    models.CategoryDress,
	"gown":     models.CategoryDress,
}

// NormalizeCategory maps a free-form model answer onto the fixed category
// vocabulary. Unknown values land in Accessory rather than failing the whole
// analysis.
func NormalizeCategory(raw string) string {
	titled := textutil.TitleCaser.String(strings.TrimSpace(raw))
	for _, c := range models.Categories {
		if string(c) == titled {
			return titled
		}
	}
	if mapped, ok := categoryAliases[textutil.LowerCaser.String(strings.TrimSpace(raw))]; ok {
		return string(mapped)
	}
	return string(models.CategoryAccessory)
}

var materialAliases = map[string]models.Material{
	"polyester": models.MaterialSynthetic,
	"nylon":     models.MaterialSynthetic,
	"acrylic":   models.MaterialSynthetic,
	"spandex":   models.MaterialSynthetic,
	"elastane":  models.MaterialSynthetic,
	"cashmere":  models.MaterialWool,
	"tweed":     models.MaterialWool,
	"suede":     models.MaterialLeather,
	"canvas":    models.MaterialCotton,
	"chambray":  models.MaterialCotton,
	"satin":     models.MaterialSilk,
}

// NormalizeMaterial does the same for materials, defaulting to Other.
func NormalizeMaterial(raw string) string {
	titled := textutil.TitleCaser.String(strings.TrimSpace(raw))
	for _, m := range models.Materials {
		if string(m) == titled {
			return titled
		}
	}
	if mapped, ok := materialAliases[textutil.LowerCaser.String(strings.TrimSpace(raw))]; ok {
		return string(mapped)
	}
	return string(models.MaterialOther)
}
