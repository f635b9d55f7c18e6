package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/textnorm"
)

// CacheKey derives the result-cache key for an article. Text is folded so
// case, accents and spacing do not split the cache; cause order does not
// matter.
func CacheKey(a model.ArticleContext, topN int) string {
	causes := make([]string, 0, len(a.Causes))
	for _, c := range a.Causes {
		if f := textnorm.Fold(c); f != "" {
			causes = append(causes, f)
		}
	}
	slices.Sort(causes)
	causes = slices.Compact(causes)

	parts := []string{
		textnorm.Fold(a.Title + " " + a.Description),
		textnorm.Fold(a.Entities.Geography.Country),
		textnorm.Fold(a.Entities.Geography.Region),
		textnorm.Fold(a.Entities.Geography.City),
		strings.Join(causes, ","),
		strconv.Itoa(topN),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "rec:" + hex.EncodeToString(sum[:])
}
