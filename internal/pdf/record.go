package pdf

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ClientInfo is the buyer identity printed on the document.
type ClientInfo struct {
	Name     string `json:"name"`
	Ref      string `json:"ref"`
	Tel      string `json:"tel"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	Address  string `json:"address"`
}

// LineItem is one normalized invoice row. Quantity and UnitPrice keep
// their raw display form so unparsable caller values pass through to the
// document unchanged; LineTotal is computed when the caller omits it.
type LineItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// Record is the canonical invoice shape the builder works from. It is
// produced by NormalizeRecord; the builder never sees field aliases.
type Record struct {
	ID         string     `json:"id"`
	Client     ClientInfo `json:"client"`
	Items      []LineItem `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	NetTotal   decimal.Decimal `json:"net_total"`
	DocType    string `json:"doc_type"`
	Date       string `json:"date"`
	Notes      string `json:"notes"`
	SignerName string `json:"signer_name"`
}

// NormalizeRecord folds the caller-supplied invoice mapping into a Record.
// It accepts both field naming conventions for line items
// (description/desc, quantity/qty, price/unit), computes missing line
// totals as quantity x unit price, and always recomputes
// net = subtotal + tax - discount regardless of any caller-supplied total.
func NormalizeRecord(data map[string]any) Record {
	rec := Record{
		ID: stringField(data, "id"),
		Client: ClientInfo{
			Name:     stringField(data, "client_name"),
			Ref:      firstString(data, "client_ref", "client_id"),
			Tel:      stringField(data, "client_phone"),
			Country:  stringField(data, "client_country"),
			Currency: stringField(data, "currency"),
			Address:  stringField(data, "client_address"),
		},
		DocType:    stringField(data, "invoice_type"),
		Date:       stringField(data, "date"),
		Notes:      stringField(data, "notes"),
		SignerName: stringField(data, "agent_name"),
	}
	if rec.Client.Currency == "" {
		rec.Client.Currency = "EGP"
	}

	itemsSum := decimal.Zero
	if rawItems, ok := data["items"].([]any); ok {
		for _, raw := range rawItems {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			li := LineItem{
				Code:        stringField(item, "code"),
				Description: firstString(item, "description", "desc"),
				Quantity:    firstString(item, "quantity", "qty"),
				UnitPrice:   firstString(item, "price", "unit"),
				LineTotal:   stringField(item, "total"),
			}
			if li.LineTotal == "" {
				qty, qok := parseAmount(li.Quantity)
				unit, uok := parseAmount(li.UnitPrice)
				if qok && uok {
					li.LineTotal = qty.Mul(unit).String()
				} else {
					li.LineTotal = "0"
				}
			}
			if total, ok := parseAmount(li.LineTotal); ok {
				itemsSum = itemsSum.Add(total)
			}
			rec.Items = append(rec.Items, li)
		}
	}

	// Subtotal policy: explicit field, else sum of line totals, else the
	// caller's flat total, else zero.
	if sub, ok := parseAmount(data["subtotal"]); ok {
		rec.Subtotal = sub
	} else if len(rec.Items) > 0 {
		rec.Subtotal = itemsSum
	} else if total, ok := parseAmount(data["total"]); ok {
		rec.Subtotal = total
	}
	if tax, ok := parseAmount(data["tax"]); ok {
		rec.Tax = tax
	}
	if discount, ok := parseAmount(data["discount"]); ok {
		rec.Discount = discount
	}
	rec.NetTotal = rec.Subtotal.Add(rec.Tax).Sub(rec.Discount)
	return rec
}

func stringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok {
		return decimal.NewFromFloat(f).String()
	}
	return fmt.Sprint(v)
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringField(data, key); s != "" {
			return s
		}
	}
	return ""
}

// parseAmount coerces the loose numeric shapes a decoded invoice mapping
// can carry. Currency markers and thousands separators are tolerated;
// anything else reports false and the caller decides the fallback.
func parseAmount(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case decimal.Decimal:
		return n, true
	case string:
		s := strings.NewReplacer("LE", "", "EGP", "", ",", "").Replace(n)
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}
