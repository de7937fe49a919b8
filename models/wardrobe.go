package models

import (
	"time"

	"github.com/lib/pq"
)

type ClothingItem struct {
	JsonModel
	Name     string      `json:"name"`
	Owner    UserAccount `json:"-"`
	OwnerID  uint        `json:"-"`
	Category Category    `sql:"type:ENUM('Top', 'Bottom', 'Footwear', 'Outerwear', 'Accessory', 'Headwear', 'Dress')" json:"category"`
	Color    string      `json:"color"`
	Material Material    `sql:"type:ENUM('Cotton', 'Linen', 'Wool', 'Denim', 'Leather', 'Silk', 'Synthetic', 'Knit', 'Other')" json:"material"`

	StyleTags pq.StringArray `gorm:"type:text[]" json:"style_tags"`
	Fit       *string        `json:"fit"` // e.g. slim, relaxed, oversized
	Favorite  bool           `gorm:"default:false" json:"favorite"`

	WearCount  int        `gorm:"default:0" json:"wear_count"`
	LastWornAt *time.Time `json:"last_worn_at"`

	// object key in the image bucket
	ImageURL    *string `json:"image_url"`
	ImageStatus string  `gorm:"default:draft" json:"image_status"` // draft, uploaded

	AnalysisStatus       string  `gorm:"default:idle" json:"analysis_status"` // idle, pending, completed, failed
	AnalysisRetryTimes   int     `json:"analysis_retry_times"`
	AnalysisErrorMessage *string `json:"analysis_error_message"`
}

// LoggedOutfit is a record of an outfit actually worn. Immutable once
// created, except for deletion.
type LoggedOutfit struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`

	OutfitDate      time.Time      `json:"outfit_date"`
	FeedbackRating  *int           `json:"feedback_rating"`
	WeatherSnapshot *string        `gorm:"type:text" json:"weather_snapshot"`
	Items           []ClothingItem `gorm:"many2many:logged_outfit_items;" json:"items"`
}

// OutfitRecommendation keeps the history of generated recommendations so the
// retention sweep has something to delete after 90 days.
type OutfitRecommendation struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`

	Occasion        string         `json:"occasion"`
	Season          string         `json:"season"`
	WeatherSummary  string         `json:"weather_summary"`
	LockedItemIDs   pq.StringArray `gorm:"type:text[]" json:"locked_item_ids"`
	SelectedItemIDs pq.StringArray `gorm:"type:text[]" json:"selected_item_ids"`
	ValidationScore int            `json:"validation_score"`
	ReasoningJSON   *string        `gorm:"type:text" json:"-"`

	LLMModel            *string `json:"llm_model"`
	LLMInputTokenCount  *int32  `json:"llm_input_token_count"`
	LLMOutputTokenCount *int32  `json:"llm_output_token_count"`
	LLMTotalTokenCount  *int32  `json:"llm_total_token_count"`
}
