package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"vestiapi/models"
	"vestiapi/services"
	"vestiapi/tasks"
	"vestiapi/textutil"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const freeItemLimit = 20

type CreateItemIn struct {
	Name      string   `json:"name" validate:"omitempty,max=100"`
	FileName  *string  `json:"file_name" validate:"required,max=200"`
	Category  string   `json:"category" validate:"omitempty,category"`
	Color     string   `json:"color" validate:"omitempty,max=40"`
	Material  string   `json:"material" validate:"omitempty,material"`
	StyleTags []string `json:"style_tags" validate:"omitempty,max=5,dive,max=40"`
	Fit       *string  `json:"fit" validate:"omitempty,max=40"`
	AutoTag   *bool    `json:"auto_tag" validate:"required"`
}

type UpdateItemIn struct {
	Name      *string  `json:"name" validate:"omitempty,max=100"`
	Category  *string  `json:"category" validate:"omitempty,category"`
	Color     *string  `json:"color" validate:"omitempty,max=40"`
	Material  *string  `json:"material" validate:"omitempty,material"`
	StyleTags []string `json:"style_tags" validate:"omitempty,max=5,dive,max=40"`
	Fit       *string  `json:"fit" validate:"omitempty,max=40"`
	Favorite  *bool    `json:"favorite"`
}

type LogWearIn struct {
	ItemIDs        []uint   `json:"item_ids" validate:"required,min=1,max=15"`
	OutfitDate     *string  `json:"outfit_date" validate:"omitempty,datetime=2006-01-02"`
	FeedbackRating *int     `json:"feedback_rating" validate:"omitempty,min=1,max=5"`
	Weather        *string  `json:"weather" validate:"omitempty,max=300"`
	Lat            *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon            *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
}

type ItemResponse struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Color          string   `json:"color"`
	Material       string   `json:"material"`
	StyleTags      []string `json:"style_tags"`
	Fit            *string  `json:"fit"`
	Favorite       bool     `json:"favorite"`
	WearCount      int      `json:"wear_count"`
	LastWornAt     *string  `json:"last_worn_at"`
	AnalysisStatus string   `json:"analysis_status"`
	Uri            *string  `json:"uri,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

type ItemCreatedResponse struct {
	Item          ItemResponse `json:"item"`
	FileUploadUrl string       `json:"file_upload_url"`
}

type WardrobeListResponse struct {
	Tops        []ItemResponse `json:"tops"`
	Bottoms     []ItemResponse `json:"bottoms"`
	Footwear    []ItemResponse `json:"footwear"`
	Outerwear   []ItemResponse `json:"outerwear"`
	Accessories []ItemResponse `json:"accessories"`
	Headwear    []ItemResponse `json:"headwear"`
	Dresses     []ItemResponse `json:"dresses"`
}

type WardrobeController struct {
	AWSService  services.AWSServiceProvider
	FirebaseApp *firebase.App
	URLCache    services.URLCacheServiceProvider
	Weather     services.WeatherProvider
}

func (controller *WardrobeController) WardrobeRoutes(g *echo.Group) {
	g.POST("/items", controller.CreateItem)
	g.GET("/items", controller.ListItems)
	g.PATCH("/items/:itemId", controller.UpdateItem)
	g.DELETE("/items/:itemId", controller.DeleteItem)
	g.POST("/wear", controller.LogWear)
	g.GET("/outfits", controller.ListLoggedOutfits)
	g.DELETE("/outfits/:outfitId", controller.DeleteLoggedOutfit)
}

func (controller *WardrobeController) CreateItem(c echo.Context) error {
	var req CreateItemIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if err := c.Validate(req); err != nil {
		return ValidationErrorJSON(c, err)
	}

	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	if req.FileName == nil || *req.FileName == "" {
		sentry.CaptureException(fmt.Errorf("Image was not provided when creating item %s, user %v", req.Name, user.ID))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Sorry, it seems image was not provided, please try again"})
	}
	if string(user.Subscription) == "free" {
		var totalItemCount int64
		if err := db.Model(&models.ClothingItem{}).Where("owner_id = ?", user.ID).Count(&totalItemCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get wardrobe data"})
		}
		fmt.Printf("[User %v] Free plan, item count: %v", user.ID, totalItemCount)
		if totalItemCount >= freeItemLimit {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the free limit of %v items, please subscribe", freeItemLimit)})
		}
	}

	if user.EnforcedDailyItemLimit != nil {
		var dailyItemCount int64
		today := time.Now().UTC().Format("2006-01-02")
		if err := db.Model(&models.ClothingItem{}).Where("owner_id = ? AND DATE(created_at) = ?", user.ID, today).Count(&dailyItemCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get wardrobe data"})
		}
		fmt.Printf("[User %v] Enforced daily limit, item count: %v", user.ID, dailyItemCount)
		if dailyItemCount >= int64(*user.EnforcedDailyItemLimit) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the limit of %v daily items. Please wait for the next day.", *user.EnforcedDailyItemLimit)})
		}
	}

	name := req.Name
	if name == "" {
		// placeholder until analysis (or the user) names it
		name = fmt.Sprintf("%s %s", textutil.TitleCaser.String(textutil.RandomAdjective()), textutil.RandomNounlike())
	}
	item := models.ClothingItem{
		Name:      name,
		OwnerID:   user.ID,
		Category:  models.ScanCategory(req.Category),
		Color:     req.Color,
		Material:  models.ScanMaterial(req.Material),
		StyleTags: req.StyleTags,
		Fit:       req.Fit,
	}
	var bucketName = services.GetEnv("R2_BUCKET_NAME", "")
	safeFileName := fmt.Sprintf("wardrobe/%v/%s", user.ID, *req.FileName)

	uploadUrl, presignErr := controller.AWSService.PresignLink(context.Background(), bucketName, safeFileName)
	item.ImageURL = &safeFileName
	if presignErr != nil {
		log.Printf("Unable to presign generate for %s!, %s", item.Name, presignErr)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Error while creating item with attachment",
		})
	}
	if err := db.Create(&item).Error; err != nil {
		sentry.CaptureException(err)
		return err
	}
	if req.AutoTag != nil && *req.AutoTag {
		item.AnalysisStatus = "pending"
		if err := db.Save(&item).Error; err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to update item status, please try again"})
		}
		task, err := tasks.NewItemAnalysisTask(item.ID)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process item, please try again"})
		}
		info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("analyze"))
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process item, please try again"})
		}
		fmt.Println("[Queue] Analyze item task submitted, Item ID: ", item.ID, " Task ID: ", info.ID)
	}

	response := ItemCreatedResponse{
		Item:          itemToResponse(item, nil),
		FileUploadUrl: uploadUrl,
	}

	return c.JSON(http.StatusCreated, response)
}

func itemToResponse(item models.ClothingItem, uri *string) ItemResponse {
	var lastWorn *string
	if item.LastWornAt != nil {
		lastWorn = StrPointer(item.LastWornAt.Format("2006-01-02T15:04:05Z"))
	}
	return ItemResponse{
		ID:             item.ID,
		Name:           item.Name,
		Category:       string(item.Category),
		Color:          item.Color,
		Material:       string(item.Material),
		StyleTags:      item.StyleTags,
		Fit:            item.Fit,
		Favorite:       item.Favorite,
		WearCount:      item.WearCount,
		LastWornAt:     lastWorn,
		AnalysisStatus: item.AnalysisStatus,
		Uri:            uri,
		CreatedAt:      item.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      item.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// populatePresignedItemImages enriches raw items with presigned read URLs
// concurrently, with a failsafe for when the cache system itself fails.
func (controller *WardrobeController) populatePresignedItemImages(ctx context.Context, items []models.ClothingItem) []ItemResponse {
	if len(items) == 0 {
		return []ItemResponse{}
	}

	var wg sync.WaitGroup
	processedResponses := make([]ItemResponse, len(items))
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")

	for i, wardrobeItem := range items {
		wg.Add(1)
		go func(index int, item models.ClothingItem) {
			defer wg.Done()

			var imageUrl string
			if item.ImageURL != nil && *item.ImageURL != "" {
				objectKey := *item.ImageURL

				url, err := controller.URLCache.GetReadURL(ctx, objectKey)

				if err == nil {
					imageUrl = url
				} else {
					// The cache system itself failed, bypass it and hit R2
					// directly.
					log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)

					sentry.WithScope(func(scope *sentry.Scope) {
						scope.SetTag("failure_type", "cache_system")
						scope.SetExtra("objectKey", objectKey)
						sentry.CaptureException(err)
					})

					fallbackUrl, fallbackErr := controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
					if fallbackErr != nil {
						log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
						sentry.CaptureException(fallbackErr)
						// imageUrl remains empty, but we don't fail the entire request.
					} else {
						imageUrl = fallbackUrl
					}
				}
			}
			processedResponses[index] = itemToResponse(item, &imageUrl)
		}(i, wardrobeItem)
	}

	wg.Wait()
	return processedResponses
}

func (controller *WardrobeController) ListItems(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var items []models.ClothingItem
	if err := db.Where("owner_id = ?", user.ID).Order("created_at desc").Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch wardrobe"})
	}
	processedResponses := controller.populatePresignedItemImages(c.Request().Context(), items)

	response := WardrobeListResponse{
		Tops:        []ItemResponse{},
		Bottoms:     []ItemResponse{},
		Footwear:    []ItemResponse{},
		Outerwear:   []ItemResponse{},
		Accessories: []ItemResponse{},
		Headwear:    []ItemResponse{},
		Dresses:     []ItemResponse{},
	}

	for _, resp := range processedResponses {
		switch resp.Category {
		case string(models.CategoryTop):
			response.Tops = append(response.Tops, resp)
		case string(models.CategoryBottom):
			response.Bottoms = append(response.Bottoms, resp)
		case string(models.CategoryFootwear):
			response.Footwear = append(response.Footwear, resp)
		case string(models.CategoryOuterwear):
			response.Outerwear = append(response.Outerwear, resp)
		case string(models.CategoryHeadwear):
			response.Headwear = append(response.Headwear, resp)
		case string(models.CategoryDress):
			response.Dresses = append(response.Dresses, resp)
		default:
			response.Accessories = append(response.Accessories, resp)
		}
	}

	return c.JSON(http.StatusOK, response)
}

func (controller *WardrobeController) UpdateItem(c echo.Context) error {
	var itemId uint
	if err := echo.PathParamsBinder(c).Uint("itemId", &itemId).BindError(); err != nil {
		return echo.ErrBadRequest
	}
	var req UpdateItemIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return ValidationErrorJSON(c, err)
	}

	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var item models.ClothingItem
	result := db.Where("id = ? and owner_id = ?", itemId, user.ID).Take(&item)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return echo.ErrNotFound
	}
	if result.Error != nil {
		fmt.Println("Failed to fetch item", result.Error)
		return echo.ErrInternalServerError
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = models.ScanCategory(*req.Category)
	}
	if req.Color != nil {
		item.Color = *req.Color
	}
	if req.Material != nil {
		item.Material = models.ScanMaterial(*req.Material)
	}
	if req.StyleTags != nil {
		item.StyleTags = req.StyleTags
	}
	if req.Fit != nil {
		item.Fit = req.Fit
	}
	if req.Favorite != nil {
		item.Favorite = *req.Favorite
	}
	if err := db.Save(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update item"})
	}
	return c.JSON(http.StatusOK, itemToResponse(item, nil))
}

func (controller *WardrobeController) DeleteItem(c echo.Context) error {
	var itemId uint
	if err := echo.PathParamsBinder(c).Uint("itemId", &itemId).BindError(); err != nil {
		return echo.ErrBadRequest
	}
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var item models.ClothingItem
	result := db.Where("id = ? and owner_id = ?", itemId, user.ID).Take(&item)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return echo.ErrNotFound
	}
	if result.Error != nil {
		fmt.Println("Failed to fetch item", result.Error)
		return echo.ErrInternalServerError
	}

	// outfit log references go first, the join table has no cascade
	if err := db.Exec("DELETE FROM logged_outfit_items WHERE clothing_item_id = ?", item.ID).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete item"})
	}
	if err := db.Delete(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete item"})
	}

	// blob cleanup is best effort, the row is already gone
	if item.ImageURL != nil && *item.ImageURL != "" {
		bucketName := services.GetEnv("R2_BUCKET_NAME", "")
		if err := controller.AWSService.DeleteFile(c.Request().Context(), bucketName, *item.ImageURL); err != nil {
			log.Printf("WARNING: could not delete blob '%s' for item %v: %v", *item.ImageURL, item.ID, err)
			sentry.CaptureException(err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (controller *WardrobeController) LogWear(c echo.Context) error {
	var req LogWearIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return ValidationErrorJSON(c, err)
	}

	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var items []models.ClothingItem
	if err := db.Where("owner_id = ? and id in ?", user.ID, req.ItemIDs).Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch wardrobe"})
	}
	if len(items) != len(req.ItemIDs) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Some of the items do not exist in your wardrobe"})
	}

	outfitDate := time.Now().UTC()
	if req.OutfitDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.OutfitDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid outfit date"})
		}
		outfitDate = parsed
	}

	// the snapshot the client saw wins, otherwise fetch for the coords
	weatherSnapshot := req.Weather
	if weatherSnapshot == nil && req.Lat != nil && req.Lon != nil {
		snapshot, err := controller.Weather.Current(c.Request().Context(), *req.Lat, *req.Lon)
		if err != nil {
			fmt.Printf("[Note: weather fetch failed, logging fallback snapshot] %v\n", err)
			snapshot = services.FallbackWeather()
		}
		weatherSnapshot = services.StrPointer(snapshot.Summary())
	}

	outfit := models.LoggedOutfit{
		OwnerID:         user.ID,
		OutfitDate:      outfitDate,
		FeedbackRating:  req.FeedbackRating,
		WeatherSnapshot: weatherSnapshot,
		Items:           items,
	}
	if err := db.Create(&outfit).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to log outfit"})
	}

	now := time.Now().UTC()
	result := db.Model(&models.ClothingItem{}).Where("owner_id = ? and id in ?", user.ID, req.ItemIDs).Updates(map[string]interface{}{
		"wear_count":   gorm.Expr("wear_count + 1"),
		"last_worn_at": &now,
	})
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update wear counts"})
	}
	fmt.Println("Logged outfit ", outfit.ID, " for user ", user.ID, " items: ", len(items))

	return c.JSON(http.StatusCreated, echo.Map{
		"outfit_id":   outfit.ID,
		"outfit_date": outfit.OutfitDate.Format("2006-01-02"),
		"items":       len(items),
	})
}

func (controller *WardrobeController) ListLoggedOutfits(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var outfits []models.LoggedOutfit
	if err := db.Preload("Items").Where("owner_id = ?", user.ID).Order("outfit_date desc").Limit(100).Find(&outfits).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch outfits"})
	}
	return c.JSON(http.StatusOK, echo.Map{"outfits": outfits})
}

func (controller *WardrobeController) DeleteLoggedOutfit(c echo.Context) error {
	var outfitId uint
	if err := echo.PathParamsBinder(c).Uint("outfitId", &outfitId).BindError(); err != nil {
		return echo.ErrBadRequest
	}
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var outfit models.LoggedOutfit
	result := db.Where("id = ? and owner_id = ?", outfitId, user.ID).Take(&outfit)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return echo.ErrNotFound
	}
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return echo.ErrInternalServerError
	}

	// drop join rows before the outfit itself
	if err := db.Model(&outfit).Association("Items").Clear(); err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	if err := db.Delete(&outfit).Error; err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
