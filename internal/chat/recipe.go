package chat

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm"
)

var (
	reHours   = regexp.MustCompile(`(?i)(\d+)\s*h(?:our)?`)
	reMinutes = regexp.MustCompile(`(?i)(\d+)\s*m(?:in)?`)
	reDigit   = regexp.MustCompile(`\d`)
	reFenced  = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \t]*\r?\n(.*?)\r?\n?```$")

	recipeSchema = llm.MustCompileSchema("recipe.json", llm.BuildRecipeSchema())
)

// ExtractRecipe reads the recipe object out of an assistant reply. The reply
// must be one JSON object with a title, optionally wrapped in a single code
// fence. Anything else is conversation and yields false.
func ExtractRecipe(reply string) (*entity.RecipeDraft, bool) {
	obj, ok := parseRecipeObject(reply)
	if !ok {
		return nil, false
	}
	title, _ := obj["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, false
	}

	d := &entity.RecipeDraft{
		Title:        title,
		Ingredients:  stringList(obj["ingredients"]),
		Instructions: stringList(obj["instructions"]),
	}
	if s, ok := obj["summary"].(string); ok && strings.TrimSpace(s) != "" {
		s = strings.TrimSpace(s)
		d.Summary = &s
	}
	if m, ok := ParsePrepTime(obj["prep_time"]); ok {
		d.PrepMinutes = &m
	}
	d.AvailableCount = countOf(obj["available_ingredients"])
	if _, ok := obj["total_ingredients"]; ok {
		d.TotalCount = countOf(obj["total_ingredients"])
	} else {
		d.TotalCount = len(d.Ingredients)
	}
	return d, true
}

// ValidateRecipe reports schema violations of a decoded recipe object.
func ValidateRecipe(reply string) error {
	obj, ok := parseRecipeObject(reply)
	if !ok {
		return nil
	}
	return llm.ValidateValue(recipeSchema, obj)
}

func parseRecipeObject(reply string) (map[string]any, bool) {
	s := strings.TrimSpace(reply)
	if m := reFenced.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// ParsePrepTime converts a prep time into minutes. Numbers are kept, strings
// are read as hour and minute tokens ("1 hr 30 mins" is 90) and fall back to
// the digits they contain. It reports false when nothing numeric is found.
func ParsePrepTime(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(math.Round(x)), true
	case int:
		return x, true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return int(math.Round(f)), true
		}
		return 0, false
	case string:
		return parsePrepTimeText(x)
	}
	return 0, false
}

func parsePrepTimeText(s string) (int, bool) {
	total, matched := 0, false
	for _, m := range reHours.FindAllStringSubmatch(s, -1) {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
		matched = true
	}
	for _, m := range reMinutes.FindAllStringSubmatch(s, -1) {
		n, _ := strconv.Atoi(m[1])
		total += n
		matched = true
	}
	if matched {
		return total, true
	}

	digits := strings.Join(reDigit.FindAllString(s, -1), "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func stringList(v any) []string {
	var out []string
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			var s string
			switch ev := e.(type) {
			case string:
				s = ev
			case nil:
				continue
			default:
				b, _ := json.Marshal(ev)
				s = string(b)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, line := range strings.Split(x, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func countOf(v any) int {
	switch x := v.(type) {
	case float64:
		if x < 0 || math.IsNaN(x) {
			return 0
		}
		return int(x)
	case []any:
		return len(x)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil && n >= 0 {
			return n
		}
	}
	return 0
}
