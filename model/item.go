package model

import (
	"strconv"
	"strings"
)

// Item is a flexible map representing one decoded JSON record of the dataset.
// Keys are field names as declared in the field registry; a field that is
// missing from the map is treated the same as a null value.
// Example: item["title"], item["taxon_label"]
type Item map[string]interface{}

// Get returns the raw value stored under field, or nil when the item has no such field.
func (it Item) Get(field string) interface{} {
	if it == nil {
		return nil
	}
	return it[field]
}

// GetID returns the item's identity stored under idField.
// String ids are trimmed; numeric ids (JSON numbers) are accepted and formatted
// without a trailing fraction. Empty or missing ids report false.
func (it Item) GetID(idField string) (string, bool) {
	switch v := it.Get(idField).(type) {
	case string:
		id := strings.TrimSpace(v)
		return id, id != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}
