package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubAnalysisProvider struct {
	response string
	err      error
	failures int
	calls    int
}

func (s *stubAnalysisProvider) AnalyzeItemImage(ctx context.Context, imageBytes []byte, mimeType string) (*LLMResponse, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("transient upstream error")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &LLMResponse{Response: s.response, Model: "stub"}, nil
}

func instantAnalyzer(provider ItemAnalysisProvider) *ItemAnalyzer {
	analyzer := NewItemAnalyzer(provider)
	analyzer.Retry.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return analyzer
}

func TestAnalyzeSuccess(t *testing.T) {
	provider := &stubAnalysisProvider{response: `{
		"name": "Navy crewneck", "category": "Top", "color": "navy",
		"material": "Cotton", "styleTags": ["casual"], "fit": "relaxed"
	}`}
	analyzer := instantAnalyzer(provider)

	metadata, llmResp, err := analyzer.Analyze(context.Background(), []byte("img"), "image/jpeg")
	assert.NoError(t, err)
	assert.Equal(t, "Navy crewneck", metadata.Name)
	assert.Equal(t, "Top", metadata.Category)
	assert.Equal(t, "Cotton", metadata.Material)
	assert.Equal(t, []string{"casual"}, metadata.StyleTags)
	assert.Equal(t, "stub", llmResp.Model)
	assert.Equal(t, 1, provider.calls)
}

func TestAnalyzeRetriesTransientFailure(t *testing.T) {
	provider := &stubAnalysisProvider{
		response: `{"name": "Jeans", "category": "Bottom", "color": "blue", "material": "Denim"}`,
		failures: 1,
	}
	analyzer := instantAnalyzer(provider)

	metadata, _, err := analyzer.Analyze(context.Background(), []byte("img"), "image/jpeg")
	assert.NoError(t, err)
	assert.Equal(t, "Jeans", metadata.Name)
	assert.Equal(t, 2, provider.calls)
}

func TestAnalyzeExhaustsRetries(t *testing.T) {
	provider := &stubAnalysisProvider{err: errors.New("persistent upstream error")}
	analyzer := instantAnalyzer(provider)

	_, _, err := analyzer.Analyze(context.Background(), []byte("img"), "image/jpeg")
	var failed *AnalysisFailedError
	assert.True(t, errors.As(err, &failed), err)
	assert.Equal(t, 3, failed.Attempts)
	assert.Equal(t, 3, provider.calls)
}

func TestAnalyzeTimeoutIsTerminal(t *testing.T) {
	provider := &stubAnalysisProvider{err: context.DeadlineExceeded}
	analyzer := instantAnalyzer(provider)

	_, _, err := analyzer.Analyze(context.Background(), []byte("img"), "image/jpeg")
	var timeout *AnalysisTimeoutError
	assert.True(t, errors.As(err, &timeout), err)
	// no second attempt after a timeout
	assert.Equal(t, 1, provider.calls)
}

func TestAnalyzeMalformedMetadata(t *testing.T) {
	provider := &stubAnalysisProvider{response: "sorry, I cannot help with that"}
	analyzer := instantAnalyzer(provider)

	_, llmResp, err := analyzer.Analyze(context.Background(), []byte("img"), "image/jpeg")
	var malformed *MalformedResponseError
	assert.True(t, errors.As(err, &malformed), err)
	assert.NotNil(t, llmResp)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "Top", NormalizeCategory("top"))
	assert.Equal(t, "Top", NormalizeCategory(" T-Shirt "))
	assert.Equal(t, "Bottom", NormalizeCategory("JEANS"))
	assert.Equal(t, "Footwear", NormalizeCategory("sneakers"))
	assert.Equal(t, "Dress", NormalizeCategory("gown"))
	assert.Equal(t, "Accessory", NormalizeCategory("spaceship"))
}

func TestNormalizeMaterial(t *testing.T) {
	assert.Equal(t, "Cotton", NormalizeMaterial("cotton"))
	assert.Equal(t, "Synthetic", NormalizeMaterial("Polyester"))
	assert.Equal(t, "Wool", NormalizeMaterial("cashmere"))
	assert.Equal(t, "Leather", NormalizeMaterial("suede"))
	assert.Equal(t, "Other", NormalizeMaterial("vibranium"))
}
