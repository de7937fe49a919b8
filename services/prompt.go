package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"vestiapi/models"
)

// stylingPreamble is the house styling philosophy the model is asked to
// apply. It is data, not logic: the builder never interprets these rules.
const stylingPreamble = `You are an expert personal stylist. Apply these styling principles:
1. Sandwich rule: pair the footwear color with the color of the top or outerwear for visual symmetry.
2. Fit contrast: combine a fitted piece with a relaxed piece, never all-tight or all-baggy.
3. Material mixing: mix at most two or three textures that complement each other (e.g. denim with knit, leather with cotton).
4. Use at most three non-neutral dominant colors across the whole outfit. Black, white, grey, navy, beige and denim count as neutral.
5. Designate exactly one item as the hero piece, the visual focal point of the outfit. Everything else supports it.`

const outputSchemaInstruction = `Respond ONLY with a JSON object, no markdown, in exactly this shape:
{
  "selectedItemIds": ["<id>", "..."],
  "reasoning": {
    "weatherMatch": "<why the outfit suits the weather>",
    "colorAnalysis": "<color harmony explanation>",
    "silhouette": "<fit and silhouette explanation>",
    "layering": "<layering explanation>",
    "occasionFit": "<why it suits the occasion>",
    "statementPiece": "<which item is the hero piece and why>",
    "styleScore": <integer 1-10>
  }
}`

// itemProjection is the token-light view of a wardrobe item the model sees.
type itemProjection struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Color     string   `json:"color"`
	StyleTags []string `json:"styleTags,omitempty"`
	Material  string   `json:"material"`
	Fit       *string  `json:"fit,omitempty"`
	Favorite  bool     `json:"favorite"`
}

// BuildOutfitPrompt serializes the wardrobe and context into a single
// instruction block. Pure: no I/O, no side effects; this is the only place
// fashion rules are encoded.
func BuildOutfitPrompt(wardrobe []models.ClothingItem, rc RecommendationContext) string {
	projections := make([]itemProjection, 0, len(wardrobe))
	for _, item := range wardrobe {
		projections = append(projections, itemProjection{
			ID:        fmt.Sprint(item.ID),
			Name:      item.Name,
			Category:  string(item.Category),
			Color:     item.Color,
			StyleTags: item.StyleTags,
			Material:  string(item.Material),
			Fit:       item.Fit,
			Favorite:  item.Favorite,
		})
	}
	wardrobeJSON, err := json.Marshal(projections)
	if err != nil {
		// projections contain only plain fields, this cannot realistically fail
		wardrobeJSON = []byte("[]")
	}

	var b strings.Builder
	b.WriteString(stylingPreamble)
	b.WriteString("\n\nContext:\n")
	fmt.Fprintf(&b, "- Weather: %s\n", valueOrUnknown(rc.Weather))
	fmt.Fprintf(&b, "- Occasion: %s\n", valueOrUnknown(rc.Occasion))
	fmt.Fprintf(&b, "- Season: %s\n", valueOrUnknown(rc.Season))
	if len(rc.PreferredStyles) > 0 {
		fmt.Fprintf(&b, "- Preferred styles: %s\n", strings.Join(rc.PreferredStyles, ", "))
	}
	if rc.Silhouette != "" {
		fmt.Fprintf(&b, "- Preferred silhouette: %s\n", rc.Silhouette)
	}
	if rc.GenderContext != "" {
		fmt.Fprintf(&b, "- Gender context: %s\n", rc.GenderContext)
	}

	if len(rc.LockedItemIDs) > 0 {
		fmt.Fprintf(&b, "\nMandatory anchor items. These item ids MUST appear in selectedItemIds, build the outfit around them: %s\n", strings.Join(rc.LockedItemIDs, ", "))
	}

	b.WriteString("\nWardrobe inventory (select ONLY from these items, by id):\n")
	b.Write(wardrobeJSON)
	b.WriteString("\n\n")
	b.WriteString(outputSchemaInstruction)
	return b.String()
}

func valueOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
