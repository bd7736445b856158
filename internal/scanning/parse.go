package scanning

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotABill is returned when the model could not see a bill in the image
var ErrNotABill = errors.New("no bill detected in image")

const taxKey = "tax_amount"

// fencedBlock captures the body of a markdown code block, with or without a language tag
var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// ParseBill turns a model reply into bill data.
//
// The reply is expected to hold a JSON object mapping item names to
// [quantity, price] pairs plus a "tax_amount" key. Markdown fences and prose
// around the object are ignored. A bare "NO" yields ErrNotABill.
func ParseBill(text string) (*BillData, error) {
	text = strings.TrimSpace(text)

	// Prefer the contents of a code block when the model used one
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	if isRefusal(text) {
		return nil, ErrNotABill
	}

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	if !gjson.Valid(text) {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	data := &BillData{LineItems: make([]LineItem, 0)}
	// ForEach walks keys in document order, which is the order printed on the bill
	gjson.Parse(text).ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == taxKey {
			data.TaxAmount = value.Float()
			return true
		}

		item := LineItem{Name: strings.TrimSpace(name)}
		if values := value.Array(); value.IsArray() && len(values) >= 2 {
			item.Quantity = values[0].Float()
			item.Price = values[1].Float()
		} else {
			// Older replies gave just the quantity
			item.Quantity = value.Float()
		}
		data.LineItems = append(data.LineItems, item)
		return true
	})

	return data, nil
}

// isRefusal reports whether the reply is the model's "NO" token
func isRefusal(text string) bool {
	t := strings.TrimSpace(text)
	t = strings.Trim(t, `."'`)
	return strings.EqualFold(strings.TrimSpace(t), "NO")
}
