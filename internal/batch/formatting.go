package batch

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsonCode struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

type jsonFile struct {
	File    string     `json:"file"`
	Type    string     `json:"type"`
	Found   bool       `json:"found"`
	Results []jsonCode `json:"results"`
	Error   string     `json:"error,omitempty"`
}

// formatBatchResults formats items as "json" or plain text.
func formatBatchResults(items []Item, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(items)
	case "", "text":
		return formatText(items), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatJSON(items []Item) (string, error) {
	out := struct {
		Files []jsonFile `json:"files"`
	}{Files: make([]jsonFile, 0, len(items))}

	for _, it := range items {
		f := jsonFile{File: it.Path, Type: it.Kind, Found: it.Found(), Results: []jsonCode{}}
		if it.Err != nil {
			f.Error = it.Err.Error()
		}
		for _, r := range it.Results {
			if r.Found() {
				f.Results = append(f.Results, jsonCode{Text: r.Text, Page: r.Page})
			}
		}
		out.Files = append(out.Files, f)
	}

	bts, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

// formatText writes one "# path" header per file followed by its payloads.
// PDF hits are prefixed with their one-based page number.
func formatText(items []Item) string {
	var output strings.Builder
	for i, it := range items {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", it.Path))
		if it.Err != nil {
			output.WriteString(fmt.Sprintf("error: %v\n", it.Err))
			continue
		}
		for _, r := range it.Results {
			if !r.Found() {
				continue
			}
			if it.Kind == "pdf" {
				output.WriteString(fmt.Sprintf("[page %d] ", r.Page+1))
			}
			output.WriteString(r.Text)
			output.WriteString("\n")
		}
	}
	return output.String()
}
