package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vestiapi/dbhelper"
	"vestiapi/models"
	"vestiapi/services"
	"vestiapi/test"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// fakeImageServer stands in for the presigned R2 download URL.
func fakeImageServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// minimal JPEG magic so DetectContentType sees an image
		w.Write([]byte("\xff\xd8\xff\xe0fakejpegbytes"))
	}))
}

func pendingItem(db *gorm.DB, ownerID uint) *models.ClothingItem {
	key := "wardrobe/1/photo.jpg"
	item := &models.ClothingItem{
		Name:           "New item",
		OwnerID:        ownerID,
		Category:       models.CategoryAccessory,
		Material:       models.MaterialOther,
		ImageURL:       &key,
		AnalysisStatus: "pending",
	}
	db.Create(&item)
	return item
}

func TestHandleItemAnalysisTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	server := fakeImageServer()
	defer server.Close()

	user := test.FakeUser(db)
	item := pendingItem(db, user.ID)

	task, err := NewItemAnalysisTask(item.ID)
	assert.NoError(t, err)
	assert.Equal(t, "analyze:item", task.Type())

	provider := &test.MockAnalysisProvider{}
	analyzer := services.NewItemAnalyzer(provider)
	awsMock := &test.AWSProviderMock{MockUrl: server.URL}

	// fbApp nil: push is skipped, analysis still completes
	err = HandleItemAnalysisTask(context.Background(), task, db, analyzer, awsMock, nil)
	assert.NoError(t, err)

	var updated models.ClothingItem
	db.First(&updated, item.ID)
	assert.Equal(t, "completed", updated.AnalysisStatus)
	assert.Equal(t, "Navy crewneck", updated.Name)
	assert.Equal(t, models.CategoryTop, updated.Category)
	assert.Equal(t, "navy", updated.Color)
	assert.Equal(t, models.MaterialCotton, updated.Material)
	assert.Len(t, updated.StyleTags, 2)
	assert.Equal(t, "regular", *updated.Fit)
	assert.Equal(t, "uploaded", updated.ImageStatus)
	assert.Nil(t, updated.AnalysisErrorMessage)
	assert.Equal(t, 1, provider.Calls)
}

func TestHandleItemAnalysisTaskTimeout(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	server := fakeImageServer()
	defer server.Close()

	user := test.FakeUser(db)
	item := pendingItem(db, user.ID)

	task, _ := NewItemAnalysisTask(item.ID)
	provider := &test.MockAnalysisProvider{Err: context.DeadlineExceeded}
	analyzer := services.NewItemAnalyzer(provider)
	awsMock := &test.AWSProviderMock{MockUrl: server.URL}

	err := HandleItemAnalysisTask(context.Background(), task, db, analyzer, awsMock, nil)
	// analyzer exhausted its policy, no asynq retry on top
	assert.NoError(t, err)

	var updated models.ClothingItem
	db.First(&updated, item.ID)
	assert.Equal(t, "failed", updated.AnalysisStatus)
	assert.NotNil(t, updated.AnalysisErrorMessage)
	// a timed out attempt is terminal
	assert.Equal(t, 1, provider.Calls)
}

func TestHandleItemAnalysisTaskMissingItem(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	task, _ := NewItemAnalysisTask(424242)
	analyzer := services.NewItemAnalyzer(&test.MockAnalysisProvider{})

	err := HandleItemAnalysisTask(context.Background(), task, db, analyzer, &test.AWSProviderMock{}, nil)
	assert.Error(t, err)
}

func TestNewItemAnalysisTaskPayload(t *testing.T) {
	task, err := NewItemAnalysisTask(7)
	assert.NoError(t, err)

	var payload ItemAnalysisPayload
	assert.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, uint(7), payload.ItemID)
}

func TestHandleRetentionSweepTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	user := test.FakeUser(db)

	stale := models.OutfitRecommendation{OwnerID: user.ID, Occasion: "old"}
	stale.CreatedAt = time.Now().Add(-100 * 24 * time.Hour)
	db.Create(&stale)
	fresh := models.OutfitRecommendation{OwnerID: user.ID, Occasion: "fresh"}
	db.Create(&fresh)

	item := test.FakeItem(db, user.ID, "White tee", models.CategoryTop)
	oldOutfit := models.LoggedOutfit{
		OwnerID:    user.ID,
		OutfitDate: time.Now().Add(-400 * 24 * time.Hour),
		Items:      []models.ClothingItem{*item},
	}
	db.Create(&oldOutfit)
	recentOutfit := models.LoggedOutfit{
		OwnerID:    user.ID,
		OutfitDate: time.Now().Add(-24 * time.Hour),
	}
	db.Create(&recentOutfit)

	task, err := NewRetentionSweepTask()
	assert.NoError(t, err)
	assert.Equal(t, "maintenance:retention_sweep", task.Type())

	err = HandleRetentionSweepTask(context.Background(), task, db)
	assert.NoError(t, err)

	var recs []models.OutfitRecommendation
	db.Find(&recs)
	assert.Len(t, recs, 1)
	assert.Equal(t, "fresh", recs[0].Occasion)

	var outfits []models.LoggedOutfit
	db.Find(&outfits)
	assert.Len(t, outfits, 1)
	assert.Equal(t, recentOutfit.ID, outfits[0].ID)

	// the worn item itself survives the sweep
	var itemCount int64
	db.Model(&models.ClothingItem{}).Count(&itemCount)
	assert.Equal(t, int64(1), itemCount)
}
