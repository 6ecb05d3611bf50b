package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"led-display/internal/models"
)

// Fields on slide payloads that change on every feed refresh without the
// content itself changing. They are stripped before hashing so a re-fetch of
// identical external data does not trigger writes, broadcasts or re-renders.
var volatileDataKeys = map[string]bool{
	"lastFetched": true,
	"fetchedAt":   true,
	"lastChecked": true,
}

// slideProjection is the hashed view of a slide: semantic fields only.
type slideProjection struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Type     models.SlideType `json:"type"`
	Active   bool             `json:"active"`
	Duration float64          `json:"duration"`
	Data     map[string]any   `json:"data"`
}

// HashSlides produces a stable digest over the semantic projection of a
// slide sequence. encoding/json sorts map keys, so the digest is independent
// of key insertion order. Order of the slides themselves is semantic
// (display order) and therefore part of the digest.
func HashSlides(slides []models.Slide) string {
	projs := make([]slideProjection, 0, len(slides))
	for _, s := range slides {
		projs = append(projs, slideProjection{
			ID:       s.ID,
			Name:     s.Name,
			Type:     s.Type,
			Active:   s.Active,
			Duration: s.Duration,
			Data:     stripVolatile(s.Data),
		})
	}
	return HashPayload(projs)
}

// HashPayload digests any JSON-encodable value. Used for combined feed
// payloads as well as the slide projection.
func HashPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Non-encodable values cannot come from our documents; hash the
		// error text so the result is still deterministic.
		b = []byte(err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// stripVolatile deep-copies a payload map without volatile bookkeeping keys,
// at any nesting depth.
func stripVolatile(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if volatileDataKeys[k] {
			continue
		}
		out[k] = stripVolatileValue(v)
	}
	return out
}

func stripVolatileValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return stripVolatile(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = stripVolatileValue(e)
		}
		return out
	default:
		return v
	}
}
