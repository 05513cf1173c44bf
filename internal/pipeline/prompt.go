package pipeline

import (
	"fmt"
	"strings"
)

// PersonAttributes describes the subject for identity prompts.
type PersonAttributes struct {
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
	Gender   string  `json:"gender"`
	Age      int     `json:"age"`
}

// DefaultPerson is used when the caller supplies no attributes.
func DefaultPerson() PersonAttributes {
	return PersonAttributes{HeightCM: 175, WeightKG: 85, Gender: "male", Age: 26}
}

func (p PersonAttributes) withDefaults() PersonAttributes {
	def := DefaultPerson()
	if p.HeightCM <= 0 {
		p.HeightCM = def.HeightCM
	}
	if p.WeightKG <= 0 {
		p.WeightKG = def.WeightKG
	}
	if strings.TrimSpace(p.Gender) == "" {
		p.Gender = def.Gender
	}
	if p.Age <= 0 {
		p.Age = def.Age
	}
	return p
}

// EnvironmentAttributes describes the outfit and setting of the shot.
type EnvironmentAttributes struct {
	ApparelType     string `json:"apparel_type"`
	InferredSetting string `json:"inferred_setting"`
	VisualCues      string `json:"visual_cues"`
}

const (
	DefaultDescription = "Full body portrait"
	DefaultSetting     = "studio"
	DefaultVisualCues  = "professional lighting"
)

func (e EnvironmentAttributes) withDefaults() EnvironmentAttributes {
	if strings.TrimSpace(e.InferredSetting) == "" {
		e.InferredSetting = DefaultSetting
	}
	if strings.TrimSpace(e.VisualCues) == "" {
		e.VisualCues = DefaultVisualCues
	}
	return e
}

// ApparelDescription joins the outfit names into one phrase. A single name is
// used alone; two become "{top} with {bottom}".
func ApparelDescription(top, bottom string) string {
	top, bottom = strings.TrimSpace(top), strings.TrimSpace(bottom)
	switch {
	case top != "" && bottom != "":
		return top + " with " + bottom
	case top != "":
		return top
	default:
		return bottom
	}
}

// CombinedPrompt is the single-stage try-on prompt. Image 1 carries identity,
// framing and background; images 2 and 3 carry the outfit.
func CombinedPrompt(description string, env EnvironmentAttributes, hasOutfits bool) string {
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}
	outfit := "No outfit reference provided."
	if hasOutfits {
		outfit = "Outfit references provided."
	}
	if env.ApparelType != "" {
		outfit += " Outfit: " + env.ApparelType + "."
	}

	var b strings.Builder
	b.WriteString(description)
	b.WriteString("\n\nInstruction: Use the reference images as follows:\n")
	b.WriteString("- Image 1: Face and full-body reference. Preserve the framing, distance and head-to-toe composition from this image. Do NOT crop or zoom so the head fills the frame.\n")
	b.WriteString("- Image 2: Top wear.\n")
	b.WriteString("- Image 3: Bottom wear.\n")
	b.WriteString("Important: Do not preserve the clothing from Image 1 but must preserve face, full-body framing and background from Image 1.\n")
	fmt.Fprintf(&b, "Background/setting: %s. Visual cues: %s.\n", env.InferredSetting, env.VisualCues)
	b.WriteString(outfit)
	b.WriteString("\n\nProduce a high-quality, photorealistic full-body image consistent with the prompt and references. Cinematic lighting, sharp focus.")
	return b.String()
}

// IdentityPrompt drives the first stage of a two-stage run.
func IdentityPrompt(person PersonAttributes, env EnvironmentAttributes, description string) string {
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}
	return fmt.Sprintf(
		"%s. Height: %g cm, Weight: %g kg, Age: %d, Gender: %s. Apparel: %s, Setting: %s, Visual cues: %s. Identity must match reference image.",
		description, person.HeightCM, person.WeightKG, person.Age, person.Gender,
		env.ApparelType, env.InferredSetting, env.VisualCues,
	)
}

var outfitRoles = []string{"top wear", "bottom wear", "shoes", "accessories"}

// OutfitEditPrompt drives the second stage. Image 1 is the identity result;
// outfit references follow from image 2, up to four roles.
func OutfitEditPrompt(outfitCount int) string {
	var b strings.Builder
	b.WriteString("Without changing the face of the person and body shape, edit the image using reference images to apply clothing and accessories:\n")
	for i := 0; i < outfitCount && i < len(outfitRoles); i++ {
		fmt.Fprintf(&b, "- Image %d: %s reference image.\n", i+2, outfitRoles[i])
	}
	b.WriteString("Preserve face, body shape, background, and lighting from base image.")
	return b.String()
}

// VideoPrompt is the motion prompt sent to every video model.
func VideoPrompt(apparel, motion string) string {
	return fmt.Sprintf(
		"A professional video of a person in a realistic setting. Outfit: %s. Motion: %s Professional lighting, clear video quality, smooth motion, no talking.",
		apparel, motion,
	)
}
