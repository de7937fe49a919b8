package telegram

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"vestiapi/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"
)

var usernames string = os.Getenv("TG_ADMINS") //separated by comma from env

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

func isAdmin(username string) bool {
	for _, admin := range strings.Split(usernames, ",") {
		if admin != "" && admin == username {
			return true
		}
	}
	return false
}

func statsMessage(db *gorm.DB) string {
	var userCount, itemCount, outfitCount, recCount int64
	db.Model(&models.UserAccount{}).Count(&userCount)
	db.Model(&models.ClothingItem{}).Count(&itemCount)
	db.Model(&models.LoggedOutfit{}).Count(&outfitCount)
	db.Model(&models.OutfitRecommendation{}).Count(&recCount)

	var todayRecCount int64
	db.Model(&models.OutfitRecommendation{}).Where("created_at > ?", time.Now().Add(-24*time.Hour)).Count(&todayRecCount)

	b := strings.Builder{}
	b.WriteString("```\n")
	b.WriteString(fmt.Sprintf("Users:            %v\n", userCount))
	b.WriteString(fmt.Sprintf("Items:            %v\n", itemCount))
	b.WriteString(fmt.Sprintf("Logged outfits:   %v\n", outfitCount))
	b.WriteString(fmt.Sprintf("Recommendations:  %v (24h: %v)\n", recCount, todayRecCount))
	b.WriteString("```\n/stats /stuck")
	return b.String()
}

func stuckMessage(db *gorm.DB) string {
	var stuck []models.ClothingItem
	db.Where("analysis_status = ? and created_at < ?", "pending", time.Now().Add(-15*time.Minute)).
		Order("created_at").Limit(20).Find(&stuck)
	if len(stuck) == 0 {
		return "No items stuck in analysis ✅"
	}
	b := strings.Builder{}
	b.WriteString("```\n")
	for _, item := range stuck {
		b.WriteString(fmt.Sprintf("#%v retries: %v  🕐 %s\n", item.ID, item.AnalysisRetryTimes, item.CreatedAt.Format("2006-01-02 15:04")))
	}
	b.WriteString("```\n/stats /stuck")
	return b.String()
}

// RunAdminBot is a long poll loop answering /stats and /stuck for the admin
// usernames from TG_ADMINS. Meant to run in its own goroutine on the worker.
func RunAdminBot(db *gorm.DB) {

	if usernames == "" {
		usernames = "formality8765"
	}
	bot, err := tgbotapi.NewBotAPI(os.Getenv("TG_TOKEN"))
	if err != nil {
		println("Error tg bot init")
		log.Panic(err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)
		if !isAdmin(update.Message.From.UserName) {
			continue
		}

		var text string
		switch update.Message.Command() {
		case "start", "stats":
			text = statsMessage(db)
		case "stuck":
			text = stuckMessage(db)
		default:
			text = "Commands: /stats /stuck"
		}
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
		msg.ParseMode = "markdown"
		bot.Send(msg)
	}

}
