// Package tier parses App Service pricing tier strings such as
// "Premium V3 (P1v3: 2)".
package tier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UnknownSKU is returned when a tier string does not match the grammar.
const UnknownSKU = "Unknown"

var tierPattern = regexp.MustCompile(`^(.*?)\s*\((.*?):\s*(\d+)\)`)

// Tier is the parsed form of a pricing tier string.
type Tier struct {
	Name      string `json:"tier_name"`
	SKU       string `json:"sku"`
	Instances int    `json:"instances"`
}

// Parse extracts tier name, SKU and instance count. It never fails: strings
// that do not match yield (s, "Unknown", 1).
func Parse(s string) Tier {
	m := tierPattern.FindStringSubmatch(s)
	if m == nil {
		return Tier{Name: s, SKU: UnknownSKU, Instances: 1}
	}
	n, err := strconv.Atoi(m[3])
	if err != nil || n <= 0 {
		return Tier{Name: s, SKU: UnknownSKU, Instances: 1}
	}
	return Tier{
		Name:      strings.TrimSpace(m[1]),
		SKU:       strings.TrimSpace(m[2]),
		Instances: n,
	}
}

// Format renders plan SKU fields as a tier string that Parse round-trips:
// "<tier> (<sku name>: <capacity>)". Missing fields fall back to the size
// for the SKU and 1 for the capacity.
func Format(skuName, tierName, size string, capacity int) string {
	if skuName == "" {
		skuName = size
	}
	if capacity <= 0 {
		capacity = 1
	}
	return fmt.Sprintf("%s (%s: %d)", tierName, skuName, capacity)
}
