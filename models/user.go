package models

import (
	"time"

	"github.com/lib/pq"
)

type UserAccount struct {
	JsonModel
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Banned   bool   `gorm:"default:false" json:"-"`
	LastIp   string `json:"-"`
	GoogleID string `json:"-"`
	AppleID  string `json:"-"`
	Platform Platform `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`

	Subscription        Subscription `gorm:"default:free" json:"subscription"`
	ExpirationDate      *time.Time   `json:"-"`
	ConfirmedDeleteDate *time.Time   `json:"-"`

	ReceiveNotifications bool `gorm:"default:true" json:"receive_notifications"`

	// user app image/avatar, object key in the image bucket
	AvatarURL *string `json:"avatar_url"`

	// style preference snapshot sent with every recommendation prompt
	PreferredStyles pq.StringArray `gorm:"type:text[]" json:"preferred_styles"`
	Silhouette      *string        `json:"silhouette"`
	GenderContext   *string        `json:"gender_context"`

	EnforcedDailyItemLimit *int32 `json:"enforced_daily_item_limit"`
}

type UserPushToken struct {
	JsonModel
	UserAccountID uint
	UserAccount   UserAccount `json:"user_account"`
	Platform      Platform    `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	Token         string      `json:"token"`
	Active        bool        `gorm:"default:false" json:"-"`
}

type UserPushIn struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,platform"`
}

type UserSettingsIn struct {
	ReceiveNotifications bool     `json:"receive_notifications"`
	PreferredStyles      []string `json:"preferred_styles" validate:"omitempty,max=10,dive,max=40"`
	Silhouette           *string  `json:"silhouette" validate:"omitempty,max=40"`
	GenderContext        *string  `json:"gender_context" validate:"omitempty,max=40"`
}
