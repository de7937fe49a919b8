package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"vestiapi/models"
	"vestiapi/services"

	firebase "firebase.google.com/go/v4"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

type FieldValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationFailure carries every failed field so handlers can report them
// all at once instead of one opaque string.
type ValidationFailure struct {
	Fields []FieldValidationError
}

func (v *ValidationFailure) Error() string {
	parts := make([]string, len(v.Fields))
	for i, field := range v.Fields {
		parts[i] = field.Message
	}
	return strings.Join(parts, "; ")
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		failure := &ValidationFailure{}
		for _, fe := range fieldErrs {
			failure.Fields = append(failure.Fields, FieldValidationError{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()),
			})
		}
		return failure
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func ValidationErrorJSON(c echo.Context, err error) error {
	var failure *ValidationFailure
	if errors.As(err, &failure) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Validation failed", "fields": failure.Fields})
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func SetupServer(
	db *gorm.DB,
	googleService services.GoogleServiceProvider,
	awsService services.AWSServiceProvider,
	urlCache services.URLCacheServiceProvider,
	weatherService services.WeatherProvider,
	llm services.OutfitLLMProvider,
	limiter *services.SlidingWindowLimiter,
	firebaseApp *firebase.App,
	asynqClient *asynq.Client,
	asynqInspector *asynq.Inspector,
) *echo.Echo {

	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("Failed to initialize AWS provider: S3")
	}

	e := echo.New()
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("category", models.ValidateCategory)
	v.RegisterValidation("material", models.ValidateMaterial)
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			c.Set("__asynqinspector", asynqInspector)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	authGroup := e.Group("auth")

	controller := AuthController{Google: googleService, FirebaseApp: firebaseApp}
	controller.AuthRoutes(authGroup)

	apiGroup := e.Group("api", echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))))
	apiGroup.Use(UserMiddleware)

	profileController := ProfileController{}
	profileGroup := apiGroup.Group("/profile")
	profileController.ProfileRoutes(profileGroup)

	wardrobeController := WardrobeController{AWSService: awsService, FirebaseApp: firebaseApp, URLCache: urlCache, Weather: weatherService}
	wardrobeGroup := apiGroup.Group("/wardrobe")
	wardrobeController.WardrobeRoutes(wardrobeGroup)

	recommendController := RecommendController{LLM: llm, Weather: weatherService, Limiter: limiter}
	recommendGroup := apiGroup.Group("/recommendations")
	recommendController.RecommendRoutes(recommendGroup)

	weatherController := WeatherController{Weather: weatherService}
	weatherGroup := apiGroup.Group("/weather")
	weatherController.WeatherRoutes(weatherGroup)

	return e
}
