package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"vestiapi/dbhelper"
	"vestiapi/models"
	"vestiapi/services"
	"vestiapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestServer(db *gorm.DB) *echo.Echo {
	return SetupServer(
		db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, &test.URLCacheMock{},
		&test.WeatherMock{}, &test.MockOutfitLLM{}, services.NewSlidingWindowLimiter(),
		nil, nil, nil,
	)
}

func TestAuthGoogle(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	param := models.GoogleAuthSignIn{
		IdToken:  "fake-google-id-token",
		Platform: "ios",
	}
	req := test.NewJSONRequest("POST", "/auth/google", param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.SignInOut
	json.Unmarshal(rec.Body.Bytes(), &resp)

	assert.Equal(t, "fake@example.com", resp.Email, resp)
	assert.Equal(t, true, resp.New, resp)
	assert.Equal(t, "pictureurl", resp.Avatar, resp)
	assert.NotEmpty(t, resp.AccessToken, resp)
	assert.NotEmpty(t, resp.RefreshToken, resp)

	var user models.UserAccount
	db.First(&user, "email = ?", "fake@example.com")

	assert.Equal(t, "fake@example.com", user.Email)
	assert.Equal(t, "123googleid", user.GoogleID)
	assert.Equal(t, models.PlatformIOS, user.Platform)

	// second sign in resolves to the same account
	req2 := test.NewJSONRequest("POST", "/auth/google", param)
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req2)

	assert.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
	var resp2 models.SignInOut
	json.Unmarshal(rec2.Body.Bytes(), &resp2)
	assert.Equal(t, false, resp2.New, resp2)
	assert.Equal(t, fmt.Sprint(user.ID), resp2.Id)

	var count int64
	db.Model(&models.UserAccount{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthGoogleBadPlatform(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	param := models.GoogleAuthSignIn{
		IdToken:  "fake-google-id-token",
		Platform: "windowsphone",
	}
	req := test.NewJSONRequest("POST", "/auth/google", param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestRefreshToken(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	userDb := test.FakeUser(db)
	refreshToken, err := GenerateRefreshToken(fmt.Sprint(userDb.ID))
	if err != nil {
		fmt.Println("Error generating refesh", err)
	}
	param := echo.Map{
		"refresh_token": refreshToken,
	}
	req := test.NewJSONRequest("POST", "/auth/refresh-token", param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp echo.Map
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.NotEmpty(t, resp["access_token"])
	assert.NotEmpty(t, resp["refresh_token"])
}

func TestRefreshTokenGarbage(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	req := test.NewJSONRequest("POST", "/auth/refresh-token", echo.Map{"refresh_token": "not-a-jwt"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestMe(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	user := test.FakeUser(db)
	user.PreferredStyles = []string{"minimal"}
	db.Save(&user)

	req := test.NewJSONAuthRequest("GET", "/auth/me", fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.UserMeOut
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, fmt.Sprint(user.ID), resp.Id)
	assert.Equal(t, user.Email, resp.Email)
	assert.Equal(t, []string{"minimal"}, resp.PreferredStyles)
	assert.Equal(t, "free", resp.Subscription)
}

func TestRegisterAndDeletePush(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	user := test.FakeUser(db)

	param := models.UserPushIn{Token: "device-token-1", Platform: "android"}
	req := test.NewJSONAuthRequest("POST", "/auth/register-push", fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token models.UserPushToken
	db.Where("token = ?", "device-token-1").First(&token)
	assert.Equal(t, user.ID, token.UserAccountID)
	assert.True(t, token.Active)

	// registering the same token again does not duplicate
	req = test.NewJSONAuthRequest("POST", "/auth/register-push", fmt.Sprint(user.ID), param)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var tokenCount int64
	db.Model(&models.UserPushToken{}).Where("token = ?", "device-token-1").Count(&tokenCount)
	assert.Equal(t, int64(1), tokenCount)

	req = test.NewJSONAuthRequest("POST", "/auth/delete-push", fmt.Sprint(user.ID), param)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	db.Model(&models.UserPushToken{}).Where("token = ?", "device-token-1").Count(&tokenCount)
	assert.Equal(t, int64(0), tokenCount)
}

func TestDeleteAccount(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	user := test.FakeUser(db)
	req := test.NewJSONAuthRequest("POST", "/auth/delete-account", fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.UserAccount
	db.First(&updated, user.ID)
	assert.NotNil(t, updated.ConfirmedDeleteDate)
}
