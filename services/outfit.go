package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"vestiapi/models"
)

// RecommendationContext carries everything a single recommendation request
// needs besides the wardrobe itself. Built per request, never persisted.
type RecommendationContext struct {
	Weather         string
	Occasion        string
	Season          string
	PreferredStyles []string
	Silhouette      string
	GenderContext   string
	LockedItemIDs   []string
}

type ReasoningFields struct {
	WeatherMatch   string   `json:"weatherMatch"`
	ColorAnalysis  string   `json:"colorAnalysis"`
	Silhouette     string   `json:"silhouette"`
	Layering       string   `json:"layering"`
	OccasionFit    string   `json:"occasionFit"`
	StatementPiece string   `json:"statementPiece"`
	StyleScore     *float64 `json:"styleScore"`
}

type RecommendationResult struct {
	Outfit          []models.ClothingItem `json:"outfit"`
	ValidationScore int                   `json:"validationScore"`
	Iterations      int                   `json:"iterations"`
	AnalysisLog     []string              `json:"analysisLog"`
	Reasoning       ReasoningFields       `json:"reasoning"`

	LLMModel            string `json:"-"`
	LLMInputTokenCount  int32  `json:"-"`
	LLMOutputTokenCount int32  `json:"-"`
	LLMTotalTokenCount  int32  `json:"-"`
}

type LLMResponse struct {
	Response         string `json:"response"`
	Model            string `json:"model"`
	InputTokenCount  int32  `json:"input_token_count"`
	OutputTokenCount int32  `json:"output_token_count"`
	TotalTokenCount  int32  `json:"total_token_count"`
}

type OutfitLLMProvider interface {
	GenerateOutfit(ctx context.Context, prompt string) (*LLMResponse, error)
}

const (
	geminiRateKey     = "gemini"
	geminiMaxRequests = 10
	geminiRateWindow  = time.Minute
)

// OutfitOrchestrator runs the recommendation cycle: prompt, model call,
// parse, lock enforcement, completeness check, score normalization. The
// model call is not retried on this path.
type OutfitOrchestrator struct {
	LLM     OutfitLLMProvider
	Limiter *SlidingWindowLimiter
}

func (o *OutfitOrchestrator) Generate(ctx context.Context, wardrobe []models.ClothingItem, rc RecommendationContext) (*RecommendationResult, error) {
	var trail []string
	logf := func(format string, args ...interface{}) {
		line := fmt.Sprintf(format, args...)
		fmt.Println("[Outfit] " + line)
		trail = append(trail, line)
	}

	if o.Limiter != nil {
		if err := o.Limiter.Acquire(geminiRateKey, geminiMaxRequests, geminiRateWindow); err != nil {
			return nil, err
		}
	}

	prompt := BuildOutfitPrompt(wardrobe, rc)
	logf("Prompt built: %d wardrobe items, %d locked, occasion %q", len(wardrobe), len(rc.LockedItemIDs), rc.Occasion)

	llmResponse, err := o.LLM.GenerateOutfit(ctx, prompt)
	if err != nil {
		return nil, &ExternalServiceError{Service: "gemini", Err: err}
	}
	logf("Model %s responded, tokens in/out: %d/%d", llmResponse.Model, llmResponse.InputTokenCount, llmResponse.OutputTokenCount)

	selectedIDs, reasoning, err := parseOutfitResponse(llmResponse.Response)
	if err != nil {
		return nil, err
	}
	logf("Model selected %d item ids", len(selectedIDs))

	// identifier comparison is string based, numeric primary keys are
	// stringified before lookup
	byID := make(map[string]models.ClothingItem, len(wardrobe))
	for _, item := range wardrobe {
		byID[fmt.Sprint(item.ID)] = item
	}

	var outfit []models.ClothingItem
	for _, id := range selectedIDs {
		item, ok := byID[id]
		if !ok {
			logf("Model selected unknown item id %q, dropping it", id)
			continue
		}
		outfit = append(outfit, item)
	}

	outfit = enforceLockedItems(outfit, rc.LockedItemIDs, byID, logf)
	checkOutfitCompleteness(outfit, logf)

	score := NormalizeStyleScore(reasoning.StyleScore)
	logf("Style score normalized to %d", score)

	return &RecommendationResult{
		Outfit:              outfit,
		ValidationScore:     score,
		Iterations:          1,
		AnalysisLog:         trail,
		Reasoning:           reasoning,
		LLMModel:            llmResponse.Model,
		LLMInputTokenCount:  llmResponse.InputTokenCount,
		LLMOutputTokenCount: llmResponse.OutputTokenCount,
		LLMTotalTokenCount:  llmResponse.TotalTokenCount,
	}, nil
}

// StripCodeFences removes a markdown ```json wrapper the model likes to add
// even when told not to.
func StripCodeFences(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

func parseOutfitResponse(raw string) ([]string, ReasoningFields, error) {
	clean := StripCodeFences(raw)

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, ReasoningFields{}, &MalformedResponseError{Reason: fmt.Sprintf("not valid JSON: %v", err), Raw: clean}
	}

	rawIDs, ok := payload["selectedItemIds"]
	if !ok {
		return nil, ReasoningFields{}, &MalformedResponseError{Reason: "selectedItemIds array is missing", Raw: clean}
	}
	var idValues []interface{}
	if err := json.Unmarshal(rawIDs, &idValues); err != nil {
		return nil, ReasoningFields{}, &MalformedResponseError{Reason: "selectedItemIds is not an array", Raw: clean}
	}
	ids := make([]string, 0, len(idValues))
	for _, v := range idValues {
		if f, isNumber := v.(float64); isNumber {
			ids = append(ids, fmt.Sprintf("%.0f", f))
			continue
		}
		ids = append(ids, fmt.Sprint(v))
	}

	var reasoning ReasoningFields
	if rawReasoning, ok := payload["reasoning"]; ok {
		if err := json.Unmarshal(rawReasoning, &reasoning); err != nil {
			fmt.Println("[Outfit] Failed to parse reasoning fields, keeping them empty:", err)
		}
	}
	return ids, reasoning, nil
}

// enforceLockedItems repairs the model's free-form selection so that every
// locked id the wardrobe knows about ends up in the outfit. Best-effort
// structural repair, not a constraint solver: per missing locked item it
// evicts at most one non-locked item of the same category (first match) and
// appends the locked one; with no same-category conflict the selection just
// grows.
func enforceLockedItems(selection []models.ClothingItem, lockedIDs []string, wardrobe map[string]models.ClothingItem, logf func(format string, args ...interface{})) []models.ClothingItem {
	for _, lockedID := range lockedIDs {
		lockedItem, exists := wardrobe[lockedID]
		if !exists {
			logf("Locked item %q is not in the wardrobe, ignoring it", lockedID)
			continue
		}
		alreadyIn := false
		for _, item := range selection {
			if fmt.Sprint(item.ID) == lockedID {
				alreadyIn = true
				break
			}
		}
		if alreadyIn {
			continue
		}

		conflictAt := -1
		for i, item := range selection {
			if item.Category == lockedItem.Category && !slices.Contains(lockedIDs, fmt.Sprint(item.ID)) {
				conflictAt = i
				break
			}
		}
		if conflictAt >= 0 {
			logf("Replacing %q with locked item %q to keep one %s", selection[conflictAt].Name, lockedItem.Name, lockedItem.Category)
			selection = append(selection[:conflictAt], selection[conflictAt+1:]...)
		} else {
			logf("Adding locked item %q (%s), no conflicting selection to replace", lockedItem.Name, lockedItem.Category)
		}
		selection = append(selection, lockedItem)
	}
	return selection
}

// checkOutfitCompleteness warns, never fails, when the outfit is missing an
// upper or lower body piece.
func checkOutfitCompleteness(outfit []models.ClothingItem, logf func(format string, args ...interface{})) {
	hasTop := false
	hasBottom := false
	for _, item := range outfit {
		if slices.Contains(models.TopCategoryAliases, item.Category) {
			hasTop = true
		}
		if slices.Contains(models.BottomCategoryAliases, item.Category) {
			hasBottom = true
		}
	}
	if !hasTop {
		logf("Warning: no top selected for this outfit")
	}
	if !hasBottom {
		logf("Warning: no bottom selected for this outfit")
	}
}
