// Package insight turns aggregated product figures into short free-text
// commentary through an external language model.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akoval/checkwatch/internal/stats"
)

// commentaryPrompt precedes the JSON payload of top product records.
const commentaryPrompt = `You are a retail analyst reviewing pharmacy sales data.
Below is a JSON array of the top selling products with their summed quantity,
revenue in UAH, number of sales occurrences and average revenue per sale.
Write a short commentary (3-5 sentences, plain text, no markdown) pointing out
the strongest products, anything unusual in the numbers, and one practical
observation. Do not repeat the raw numbers for every product.`

// Commenter produces free-text commentary over top product records. The
// response is consumed as opaque text.
type Commenter interface {
	Comment(ctx context.Context, products []stats.ProductStat) (string, error)
	// Close releases backend resources.
	Close() error
}

// encodePayload serializes the product records the way they are sent to the
// model, which also makes it the canonical form for cache keying.
func encodePayload(products []stats.ProductStat) (string, error) {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding products: %w", err)
	}
	return string(data), nil
}

// stripFences removes markdown code fences some models wrap replies in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
