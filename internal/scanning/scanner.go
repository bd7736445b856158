package scanning

import "context"

// billScanPrompt is the shared prompt used by all LLM providers for reading restaurant bills
const billScanPrompt = `You are reading a photo of a restaurant bill. Reply with the requested content only: no greetings, no explanations, no filler words.

If you cannot clearly see the contents of the bill (the food items, their quantities and prices, and the total), reply with the single word NO and nothing else.

Otherwise reply with one JSON object where:
- every key is the name of an item exactly as printed on the bill
- every item value is an array of two numbers: [quantity, unit price]
- the last key is "tax_amount" and its value is the total tax on the bill as a number (0 if there is none)

Example:
{
  "Margherita Pizza": [1, 12.50],
  "Coke": [2, 2.00],
  "tax_amount": 1.65
}`

// Extractor sends a bill image to a vision model and returns its raw reply
type Extractor interface {
	// ExtractBill asks the model to read the bill in imageData
	ExtractBill(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}

// LineItem is one line read off a bill
type LineItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// BillData contains the structured content of a bill
type BillData struct {
	LineItems []LineItem `json:"line_items"`
	TaxAmount float64    `json:"tax_amount"`
}
