package models

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

type Category string

const (
	CategoryTop       Category = "Top"
	CategoryBottom    Category = "Bottom"
	CategoryFootwear  Category = "Footwear"
	CategoryOuterwear Category = "Outerwear"
	CategoryAccessory Category = "Accessory"
	CategoryHeadwear  Category = "Headwear"
	CategoryDress     Category = "Dress"
)

var Categories = []Category{
	CategoryTop, CategoryBottom, CategoryFootwear, CategoryOuterwear,
	CategoryAccessory, CategoryHeadwear, CategoryDress,
}

// Fixed alias vocabularies used by the outfit completeness check. A dress
// covers both the upper and lower body slot.
var TopCategoryAliases = []Category{CategoryTop, CategoryDress}
var BottomCategoryAliases = []Category{CategoryBottom, CategoryDress}

func (c *Category) Scan(value interface{}) error {
	*c = Category(value.(string))
	return nil
}

func (c Category) Value() (string, error) {
	return string(c), nil
}

// ScanCategory falls back to Accessory for anything outside the vocabulary.
func ScanCategory(value string) Category {
	if ValidateCategoryRaw(value) {
		return Category(value)
	}
	return CategoryAccessory
}

var categoryRule = regexp.MustCompile(`^(Top|Bottom|Footwear|Outerwear|Accessory|Headwear|Dress)$`)

func ValidateCategory(fl validator.FieldLevel) bool {
	return categoryRule.MatchString(fl.Field().String())
}

func ValidateCategoryRaw(value string) bool {
	return categoryRule.MatchString(value)
}

type Material string

const (
	MaterialCotton    Material = "Cotton"
	MaterialLinen     Material = "Linen"
	MaterialWool      Material = "Wool"
	MaterialDenim     Material = "Denim"
	MaterialLeather   Material = "Leather"
	MaterialSilk      Material = "Silk"
	MaterialSynthetic Material = "Synthetic"
	MaterialKnit      Material = "Knit"
	MaterialOther     Material = "Other"
)

var Materials = []Material{
	MaterialCotton, MaterialLinen, MaterialWool, MaterialDenim,
	MaterialLeather, MaterialSilk, MaterialSynthetic, MaterialKnit,
	MaterialOther,
}

func (m *Material) Scan(value interface{}) error {
	*m = Material(value.(string))
	return nil
}

func (m Material) Value() (string, error) {
	return string(m), nil
}

func ScanMaterial(value string) Material {
	if ValidateMaterialRaw(value) {
		return Material(value)
	}
	return MaterialOther
}

var materialRule = regexp.MustCompile(`^(Cotton|Linen|Wool|Denim|Leather|Silk|Synthetic|Knit|Other)$`)

func ValidateMaterial(fl validator.FieldLevel) bool {
	return materialRule.MatchString(fl.Field().String())
}

func ValidateMaterialRaw(value string) bool {
	return materialRule.MatchString(value)
}
