package extract

import "github.com/ppiankov/reltext/internal/model"

// FeatureTense is the morphological feature carrying verb tense
const FeatureTense = "Tense"

// ClassifyTense maps a token's morphological features to a coarse tense.
// Missing features give TenseNone. Values other than Past and Pres are
// classified as future.
func ClassifyTense(feats map[string]string) model.Tense {
	if len(feats) == 0 {
		return model.TenseNone
	}
	switch v := feats[FeatureTense]; v {
	case "":
		return model.TenseNone
	case "Past":
		return model.TensePast
	case "Pres":
		return model.TensePresent
	default:
		return model.TenseFuture
	}
}
