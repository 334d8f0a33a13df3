package miro

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// ItemSummary is one row of a Miro list response, reduced for display.
type ItemSummary struct {
	ID    string
	Type  string
	Title string
}

// Summarize extracts id, type and title from every element of a list
// response's "data" array. Titles may contain HTML and are stripped of
// surrounding whitespace only.
func Summarize(raw json.RawMessage) []ItemSummary {
	data := gjson.GetBytes(raw, "data")
	if !data.IsArray() {
		return nil
	}
	var out []ItemSummary
	data.ForEach(func(_, item gjson.Result) bool {
		title := item.Get("data.title").String()
		if title == "" {
			title = item.Get("data.content").String()
		}
		out = append(out, ItemSummary{
			ID:    item.Get("id").String(),
			Type:  item.Get("type").String(),
			Title: strings.TrimSpace(title),
		})
		return true
	})
	return out
}
