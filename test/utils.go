package test

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"vestiapi/models"
	"vestiapi/services"

	"github.com/golang-jwt/jwt/v4"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", userPk, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	log.Println(JsonString(param))
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func NewJSONAuthRequestRaw(method string, target string, userPk string, json string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(json))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func Int64Pointer(i int64) *int64 {
	return &i
}

func NewRefString(data string) *string {
	return &data
}

func FakeUser(db *gorm.DB) *models.UserAccount {
	user := &models.UserAccount{
		Name:     "OurName",
		Email:    "email@example.com",
		GoogleID: "12232",
		Platform: models.PlatformIOS,
		LastIp:   "123.122.122.122",
	}
	db.Create(&user)
	tokenDb := models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      "android",
		Token:         "cX-UZ3zwQEiPt-2GJkG2gA:APA91bGqRflaGrJrnynhRwZ442HdgUjVcO7mWMFnx6IwAdJ9RRKopvSP4QU7hbvTmk1XAp8XGvtHZLvo5JmOPTVKBbGqqvhfbZWKlXA9csEjx1hgpNvrWepU-rqG1sxS8_WCF5cGZchf",
		Active:        true,
	}
	db.Save(&tokenDb)
	db.First(&user, user.ID)

	return user
}

func FakeItem(db *gorm.DB, ownerID uint, name string, category models.Category) *models.ClothingItem {
	item := &models.ClothingItem{
		Name:     name,
		OwnerID:  ownerID,
		Category: category,
		Color:    "navy",
		Material: models.MaterialCotton,
	}
	db.Create(&item)
	return item
}

type GoogleServiceMock struct{}

func (gsm GoogleServiceMock) ValidateIdToken(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error) {

	return &idtoken.Payload{Issuer: "Issue", Audience: "AAA", Expires: 119919191919, IssuedAt: 12312321321, Subject: "fake@example.com", Claims: map[string]interface{}{
		"email":   "fake@example.com",
		"picture": "pictureurl",
		"sub":     "123googleid",
	}}, nil

}

type AWSProviderMock struct {
	MockUrl      string
	DeletedFiles []string
}

func (awsService *AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService *AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {

	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return awsService.MockUrl, nil
}

func (awsService *AWSProviderMock) UploadToPresignedURL(ctx context.Context, bucketName, url string, fileContent []byte) (string, int, error) {
	return url, 204, nil
}

func (awsService *AWSProviderMock) DeleteFile(ctx context.Context, bucketName, fileKey string) error {
	awsService.DeletedFiles = append(awsService.DeletedFiles, fileKey)
	return nil
}

type URLCacheMock struct {
	MockUrl string
}

func (m *URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	return m.MockUrl, nil
}

// MockOutfitLLM returns a canned stylist answer. Response overrides the
// default, Err forces a provider failure.
type MockOutfitLLM struct {
	Response string
	Err      error

	LastPrompt string
}

func (m *MockOutfitLLM) GenerateOutfit(ctx context.Context, prompt string) (*services.LLMResponse, error) {
	m.LastPrompt = prompt
	if m.Err != nil {
		return nil, m.Err
	}
	response := m.Response
	if response == "" {
		response = `{
			"selectedItemIds": ["1", "2"],
			"reasoning": {
				"weatherMatch": "Light layers for a mild day.",
				"colorAnalysis": "Navy and white, one accent.",
				"silhouette": "Relaxed top over slim bottom.",
				"layering": "Single layer is enough.",
				"occasionFit": "Fits a casual outing.",
				"statementPiece": "The navy top.",
				"styleScore": 8
			}
		}`
	}
	return &services.LLMResponse{
		Response:         response,
		Model:            "gemini-2.5-flash",
		InputTokenCount:  10,
		OutputTokenCount: 13,
		TotalTokenCount:  23,
	}, nil
}

// MockAnalysisProvider returns canned item metadata, or fails Failures times
// before succeeding.
type MockAnalysisProvider struct {
	Response string
	Err      error
	Failures int

	Calls int
}

func (m *MockAnalysisProvider) AnalyzeItemImage(ctx context.Context, imageBytes []byte, mimeType string) (*services.LLMResponse, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Calls <= m.Failures {
		return nil, fmt.Errorf("transient analysis error")
	}
	response := m.Response
	if response == "" {
		response = `{
			"name": "Navy crewneck",
			"category": "Top",
			"color": "navy",
			"material": "Cotton",
			"styleTags": ["casual", "minimal"],
			"fit": "regular"
		}`
	}
	return &services.LLMResponse{
		Response:         response,
		Model:            "gemini-2.5-flash",
		InputTokenCount:  10,
		OutputTokenCount: 13,
		TotalTokenCount:  23,
	}, nil
}

type WeatherMock struct {
	Snapshot *services.WeatherSnapshot
	Err      error
}

func (m *WeatherMock) Current(ctx context.Context, lat, lon float64) (*services.WeatherSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Snapshot != nil {
		return m.Snapshot, nil
	}
	return services.FallbackWeather(), nil
}
