package controllers

import (
	"net/http"

	"vestiapi/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ProfileController struct {
}

func (controller *ProfileController) ProfileRoutes(g *echo.Group) {
	g.GET("/settings", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		return c.JSON(http.StatusOK, models.UserSettingsIn{
			ReceiveNotifications: user.ReceiveNotifications,
			PreferredStyles:      user.PreferredStyles,
			Silhouette:           user.Silhouette,
			GenderContext:        user.GenderContext,
		})
	})

	g.POST("/settings", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		var settingsIn = new(models.UserSettingsIn)
		db := c.Get("__db").(*gorm.DB)
		if err := c.Bind(settingsIn); err != nil {
			return err
		}
		if err := c.Validate(settingsIn); err != nil {
			return ValidationErrorJSON(c, err)
		}
		user.ReceiveNotifications = settingsIn.ReceiveNotifications
		if settingsIn.PreferredStyles != nil {
			user.PreferredStyles = settingsIn.PreferredStyles
		}
		if settingsIn.Silhouette != nil {
			user.Silhouette = settingsIn.Silhouette
		}
		if settingsIn.GenderContext != nil {
			user.GenderContext = settingsIn.GenderContext
		}
		db.Save(&user)
		return c.JSON(http.StatusOK, settingsIn)
	})
}
