package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"vestiapi/models"
	"vestiapi/services"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type ItemAnalysisPayload struct {
	ItemID uint `json:"item_id"`
}

type RetentionSweepPayload struct{}

func NewItemAnalysisTask(itemID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ItemAnalysisPayload{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask("analyze:item", payload), nil

}

func NewRetentionSweepTask() (*asynq.Task, error) {
	payload, err := json.Marshal(RetentionSweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask("maintenance:retention_sweep", payload), nil

}

func getFileForItem(awsService services.AWSServiceProvider, item models.ClothingItem) ([]byte, string, error) {
	bucketName := os.Getenv("R2_BUCKET_NAME")
	fmt.Printf("[Item: %v] Bucket name: %s\n", item.ID, bucketName)
	fmt.Printf("[Item: %v] Request presigned download url.. ", item.ID)
	if item.ImageURL == nil {
		return nil, "", fmt.Errorf("[Item: %v] Image URL is nil", item.ID)
	}
	fileUrl, err := awsService.GetPresignedR2FileReadURL(context.TODO(), bucketName, *item.ImageURL)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Item: %v] Error on getting presigned URL for file %s", item.ID, *item.ImageURL))
		return nil, "", err
	}
	fmt.Printf("Downloading... %s\n", fileUrl)
	fileBytes, err := services.ReadFileFromUrl(fileUrl)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Item: %v] Error on downloading file %s: %v", item.ID, *item.ImageURL, err))
		return nil, "", err
	}

	mimeType := http.DetectContentType(fileBytes)
	return fileBytes, mimeType, nil
}

// HandleItemAnalysisTask downloads the item photo and asks the model to tag
// it. The analyzer owns the retry and timeout policy, this handler only maps
// the outcome onto the item row.
func HandleItemAnalysisTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, analyzer *services.ItemAnalyzer,
	awsService services.AWSServiceProvider, fbApp *firebase.App) error {
	var payload ItemAnalysisPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[Item: %v] Start Analysis\n", payload.ItemID)
	var item models.ClothingItem
	res := db.First(&item, payload.ItemID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving item for analysis %v", payload.ItemID))
		return res.Error
	}

	fileBytes, mimeType, err := getFileForItem(awsService, item)
	if err != nil {
		saveItemAnalysisFail(db, item, "Failed to read item photo, please upload it again", true)
		sentry.CaptureException(fmt.Errorf("[Item: %v] Error on getting file: %v", payload.ItemID, err))
		return err
	}
	fmt.Printf("[Item: %v] Downloaded file size: %d bytes, mime: %s\n", payload.ItemID, len(fileBytes), mimeType)

	metadata, llmResponse, err := analyzer.Analyze(ctx, fileBytes, mimeType)
	if err != nil {
		fmt.Printf("[Item: %v] Analysis failed: %v\n", payload.ItemID, err)
		sentry.CaptureException(fmt.Errorf("[Item: %v] Analysis failed: %v", payload.ItemID, err))
		// analyzer retries are exhausted at this point, no asynq retry on top
		saveItemAnalysisFail(db, item, "We could not analyze this photo, please fill in the details manually", false)
		return nil
	}
	if llmResponse != nil {
		fmt.Printf("[Item: %v] LLM Processed: IT: %d, OT: %d, TT: %d\n", payload.ItemID, llmResponse.InputTokenCount, llmResponse.OutputTokenCount, llmResponse.TotalTokenCount)
	}

	if metadata.Name != "" {
		item.Name = metadata.Name
	}
	item.Category = models.Category(metadata.Category)
	item.Color = metadata.Color
	item.Material = models.Material(metadata.Material)
	item.StyleTags = metadata.StyleTags
	item.Fit = metadata.Fit
	item.ImageStatus = "uploaded"
	item.AnalysisStatus = "completed"
	item.AnalysisErrorMessage = nil
	tx := db.Save(&item)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on saving item %v", payload.ItemID))
		return tx.Error
	}
	fmt.Printf("[Item: %v] Analysis finished succesfully..", payload.ItemID)

	var owner models.UserAccount
	if err := db.First(&owner, item.OwnerID).Error; err == nil && owner.ReceiveNotifications && fbApp != nil {
		fmt.Printf("[Item: %v] Sending notification to user %v\n", payload.ItemID, item.OwnerID)
		services.SendNotification(fbApp, db, item.OwnerID, "Item Analyzed", fmt.Sprintf("Your item %s is tagged and ready", item.Name), map[string]string{"item_id": fmt.Sprintf("%d", item.ID), "type": "item_analyzed"})
	}
	return nil
}

func saveItemAnalysisFail(db *gorm.DB, item models.ClothingItem, msg string, shouldRetry bool) error {
	item.AnalysisRetryTimes = item.AnalysisRetryTimes + 1
	item.AnalysisErrorMessage = &msg
	if !shouldRetry || item.AnalysisRetryTimes >= 3 {

		item.AnalysisStatus = "failed"
	}
	tx := db.Save(&item)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail Item %v] Error on saving item for failed status", item.ID))
		return tx.Error
	}
	return nil
}

const recommendationRetention = 90 * 24 * time.Hour
const loggedOutfitRetention = 365 * 24 * time.Hour

// HandleRetentionSweepTask drops recommendation history older than 90 days
// and logged outfits older than a year. Runs on the scheduler.
func HandleRetentionSweepTask(ctx context.Context, t *asynq.Task, db *gorm.DB) error {
	fmt.Printf("[Retention] Sweep started\n")

	recommendationCutoff := time.Now().Add(-recommendationRetention)
	result := db.Where("created_at < ?", recommendationCutoff).Delete(&models.OutfitRecommendation{})
	if result.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Retention] Error deleting old recommendations: %v", result.Error))
		return result.Error
	}
	fmt.Printf("[Retention] Deleted %d recommendations older than %s\n", result.RowsAffected, recommendationCutoff.Format("2006-01-02"))

	outfitCutoff := time.Now().Add(-loggedOutfitRetention)
	var staleOutfits []models.LoggedOutfit
	if err := db.Where("outfit_date < ?", outfitCutoff).Find(&staleOutfits).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[Retention] Error fetching old outfits: %v", err))
		return err
	}
	for _, outfit := range staleOutfits {
		// clear join rows first
		if err := db.Model(&outfit).Association("Items").Clear(); err != nil {
			sentry.CaptureException(fmt.Errorf("[Retention] Error clearing outfit %v items: %v", outfit.ID, err))
			continue
		}
		if err := db.Delete(&outfit).Error; err != nil {
			sentry.CaptureException(fmt.Errorf("[Retention] Error deleting outfit %v: %v", outfit.ID, err))
		}
	}
	fmt.Printf("[Retention] Deleted %d logged outfits older than %s\n", len(staleOutfits), outfitCutoff.Format("2006-01-02"))
	return nil
}
