package judge

import (
	"encoding/json"
	"strings"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/version"
)

// response is the JSON object the model is asked to return. next_version is
// accepted for compatibility with older prompts and ignored.
type response struct {
	Bump        *string `json:"bump"`
	Changelog   *string `json:"changelog"`
	NextVersion string  `json:"next_version,omitempty"`
}

// ParseResponse extracts and validates the judgment object in text.
func ParseResponse(text string) (Judgment, error) {
	block, ok := ExtractJSON(text)
	if !ok {
		return Judgment{}, clierrors.New(clierrors.KindJudgmentParse, "model response contains no JSON object")
	}

	var resp response
	if err := json.Unmarshal([]byte(block), &resp); err != nil {
		return Judgment{}, clierrors.Wrapf(err, clierrors.KindJudgmentParse, "decoding model response")
	}
	if resp.Bump == nil {
		return Judgment{}, clierrors.New(clierrors.KindJudgmentParse, `model response is missing "bump"`)
	}
	if resp.Changelog == nil {
		return Judgment{}, clierrors.New(clierrors.KindJudgmentParse, `model response is missing "changelog"`)
	}

	bump, err := version.ParseBump(*resp.Bump)
	if err != nil {
		return Judgment{}, clierrors.Wrapf(err, clierrors.KindJudgmentParse, "invalid bump in model response")
	}
	return Judgment{Bump: bump, Changelog: strings.TrimSpace(*resp.Changelog)}, nil
}

// ExtractJSON returns the first ```json fenced block of text, or failing
// that the first balanced {...} object. A fenced block that is not valid
// JSON, such as one cut short by backticks inside a string, is rescanned
// from the fence for a balanced object.
func ExtractJSON(text string) (string, bool) {
	const fence = "```json"
	if start := strings.Index(text, fence); start >= 0 {
		rest := text[start+len(fence):]
		if end := strings.Index(rest, "```"); end >= 0 {
			if block := strings.TrimSpace(rest[:end]); json.Valid([]byte(block)) {
				return block, true
			}
		}
		if obj, ok := firstObject(rest); ok {
			return obj, true
		}
	}
	return firstObject(text)
}

// firstObject scans for the first balanced JSON object, skipping braces
// inside string literals.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
