package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/campuslostfound/lostfound/internal/model"
)

// BuildPrompt renders the comparison request for a pair. Both reports carry every
// field the oracle may weigh, including the image reference.
func BuildPrompt(lost, found *model.Report) string {
	var b strings.Builder
	b.WriteString("Compare these two items and determine if they could be the same item. ")
	b.WriteString("Consider the title, category, description, location, date and any image provided.\n\n")
	writeItem(&b, lost)
	b.WriteString("\n")
	writeItem(&b, found)
	b.WriteString("\nRespond with a JSON object only, in this exact format: ")
	b.WriteString(`{"confidence": <number 0-100>, "reasoning": "<brief explanation>"}`)
	return b.String()
}

func writeItem(b *strings.Builder, r *model.Report) {
	fmt.Fprintf(b, "%s ITEM:\n", strings.ToUpper(string(r.Kind)))
	fmt.Fprintf(b, "- Title: %s\n", r.Title)
	fmt.Fprintf(b, "- Category: %s\n", r.Category)
	fmt.Fprintf(b, "- Description: %s\n", orNone(r.Description))
	fmt.Fprintf(b, "- Location: %s\n", r.Location)
	date := r.OccurredOn
	if r.OccurredAt != nil && *r.OccurredAt != "" {
		date += " " + *r.OccurredAt
	}
	fmt.Fprintf(b, "- Date: %s\n", date)
	fmt.Fprintf(b, "- Image: %s\n", orNone(r.ImageRef))
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

// ParseVerdict extracts the JSON object embedded in a model reply. The reply may wrap
// the object in prose or code fences; the span from the first '{' to the last '}' is used.
func ParseVerdict(content string) (Verdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Verdict{}, fmt.Errorf("%w: no JSON object in reply", ErrNoOpinion)
	}

	var raw struct {
		Confidence json.RawMessage `json:"confidence"`
		Reasoning  string          `json:"reasoning"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(content[start : end+1])))
	if err := dec.Decode(&raw); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrNoOpinion, err)
	}
	if len(raw.Confidence) == 0 || string(raw.Confidence) == "null" {
		return Verdict{}, fmt.Errorf("%w: confidence missing", ErrNoOpinion)
	}

	c, err := parseConfidence(raw.Confidence)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Confidence: c, Reasoning: raw.Reasoning}, nil
}

func parseConfidence(v json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, fmt.Errorf("%w: confidence is not numeric", ErrNoOpinion)
		}
		f, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: confidence %q is not numeric", ErrNoOpinion, s)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: confidence is not finite", ErrNoOpinion)
	}
	if f < 0 || f > 100 {
		return 0, fmt.Errorf("%w: confidence %v outside 0..100", ErrNoOpinion, f)
	}
	// floor keeps x >= t equivalent to int(x) >= t for every integer threshold t
	return int(math.Floor(f)), nil
}
