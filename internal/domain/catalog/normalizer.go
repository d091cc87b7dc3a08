package catalog

import (
	"strconv"
	"strings"
)

// Placeholder values substituted for required fields so a record is
// never rejected for missing name or brand.
const (
	PlaceholderName  = "Unnamed Product"
	PlaceholderBrand = "Generic"
)

// attachmentNameHints are the substrings that mark a field as
// attachment-bearing. This is name-based sniffing, not type-declared;
// the provider's schema metadata would be the sturdier signal.
var attachmentNameHints = []string{"image", "photo", "attachment", "url"}

// virtualStockCandidates is the ordered probe list for the virtual
// environment's stock value.
var virtualStockCandidates = []string{"Stock", "stock", "Quantity", "quantity", "Qty", "qty"}

// Normalize converts one raw provider record into one internal product
// attribute bag under the given environment's field convention. It is a
// pure transformation: no I/O. The second return value maps each
// attachment-bearing field name to its coerced descriptor list; the
// caller is expected to resolve those into durable URLs and write the
// result back into the bag before persisting.
func Normalize(env Environment, rec RawRecord) (map[string]any, map[string][]AttachmentDescriptor) {
	bag := make(map[string]any, len(rec.Fields)+4)
	for k, v := range rec.Fields {
		bag[k] = v
	}
	bag["id"] = rec.ID

	attachments := make(map[string][]AttachmentDescriptor)
	for name, value := range bag {
		if name == "id" || !isAttachmentField(name) {
			continue
		}
		if descs := coerceDescriptors(value); len(descs) > 0 {
			attachments[name] = descs
			bag[name] = descs
		}
	}

	normalizePrices(env, bag)
	normalizeStock(env, bag)
	normalizeRequired(bag)

	return bag, attachments
}

// isAttachmentField reports whether a field name suggests it carries
// image attachments.
func isAttachmentField(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range attachmentNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// coerceDescriptors normalizes a raw field value into a descriptor
// list. Strings become one-element lists, arrays are filtered per item
// and anything unrecognized is dropped.
func coerceDescriptors(value any) []AttachmentDescriptor {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []AttachmentDescriptor{{URL: v}}
	case []any:
		descs := make([]AttachmentDescriptor, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				if it != "" {
					descs = append(descs, AttachmentDescriptor{URL: it})
				}
			case map[string]any:
				if d, ok := descriptorFromMap(it); ok {
					descs = append(descs, d)
				}
			}
		}
		return descs
	case map[string]any:
		if d, ok := descriptorFromMap(v); ok {
			return []AttachmentDescriptor{d}
		}
		return nil
	case []AttachmentDescriptor:
		return v
	default:
		return nil
	}
}

func descriptorFromMap(m map[string]any) (AttachmentDescriptor, bool) {
	url, _ := m["url"].(string)
	if url == "" {
		return AttachmentDescriptor{}, false
	}
	name, _ := m["filename"].(string)
	return AttachmentDescriptor{URL: url, Filename: name}, true
}

// normalizePrices reconciles the record's price fields into the
// environment's canonical keys.
//
// Regular: Price1/Price2 are mirrored into each other when only one is
// present, a generic price fills both when neither is, and both default
// to zero otherwise. Source keys are removed after mapping.
func normalizePrices(env Environment, bag map[string]any) {
	if env == EnvironmentVirtual {
		price, ok := takeNumber(bag, "price", "Price")
		if !ok {
			price = 0
		}
		bag["price"] = price
		return
	}

	p1, ok1 := takeNumber(bag, "Price1", "price1")
	p2, ok2 := takeNumber(bag, "Price2", "price2")
	switch {
	case ok1 && ok2:
	case ok1:
		p2 = p1
	case ok2:
		p1 = p2
	default:
		if generic, ok := takeNumber(bag, "price", "Price"); ok {
			p1, p2 = generic, generic
		}
	}
	bag["price1"] = p1
	bag["price2"] = p2
}

// normalizeStock canonicalizes the record's stock fields.
//
// Regular keeps quantity as the canonical key, falling back to a
// stock-named field. Virtual probes an ordered candidate list and keeps
// only stock; any quantity key is removed so the two conventions never
// leak into each other.
func normalizeStock(env Environment, bag map[string]any) {
	if env == EnvironmentRegular {
		qty, ok := takeInt(bag, "quantity", "Quantity")
		if !ok {
			qty, _ = takeInt(bag, "stock", "Stock")
		}
		bag["quantity"] = qty
		return
	}

	var stock int
	for _, key := range virtualStockCandidates {
		if v, ok := bag[key]; ok && v != nil {
			stock = toInt(v)
			delete(bag, key)
			break
		}
	}
	delete(bag, "quantity")
	delete(bag, "Quantity")
	bag["stock"] = stock
}

// normalizeRequired substitutes placeholders for empty name and brand.
func normalizeRequired(bag map[string]any) {
	name, _ := takeString(bag, "name", "Name")
	if strings.TrimSpace(name) == "" {
		name = PlaceholderName
	}
	bag["name"] = name

	brand, _ := takeString(bag, "brand", "Brand")
	if strings.TrimSpace(brand) == "" {
		brand = PlaceholderBrand
	}
	bag["brand"] = brand
}

// takeNumber removes the first present key and returns its numeric
// value. A key holding an unparseable value counts as absent.
func takeNumber(bag map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := bag[key]; ok {
			delete(bag, key)
			if v == nil {
				continue
			}
			if n, ok := toNumber(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func takeInt(bag map[string]any, keys ...string) (int, bool) {
	n, ok := takeNumber(bag, keys...)
	return int(n), ok
}

func takeString(bag map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := bag[key]; ok {
			delete(bag, key)
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toInt parses an integer with a zero fallback.
func toInt(v any) int {
	n, ok := toNumber(v)
	if !ok {
		return 0
	}
	return int(n)
}
