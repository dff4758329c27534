package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PropertyType represents a supported property variant.
type PropertyType string

const (
	PropertyText        PropertyType = "text"
	PropertyNumber      PropertyType = "number"
	PropertySelect      PropertyType = "select"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyDate        PropertyType = "date"
	PropertyCheckbox    PropertyType = "checkbox"
	PropertyURL         PropertyType = "url"
)

// IsValid returns true if the property type is recognized.
func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyText, PropertyNumber, PropertySelect, PropertyMultiSelect,
		PropertyDate, PropertyCheckbox, PropertyURL:
		return true
	default:
		return false
	}
}

// PropertyValue is a tagged union over the property variants the source
// exposes. Exactly the field matching Type is meaningful; the rest stay
// zero. Unrecognized variants are coerced to text at the decode boundary
// so one odd property never sinks a whole record.
type PropertyValue struct {
	Type        PropertyType `json:"type"`
	Text        string       `json:"text,omitempty"`
	Number      float64      `json:"number,omitempty"`
	Select      string       `json:"select,omitempty"`
	MultiSelect []string     `json:"multi_select,omitempty"`
	Date        time.Time    `json:"date,omitempty"`
	Checkbox    bool         `json:"checkbox,omitempty"`
	URL         string       `json:"url,omitempty"`
}

// Validate reports whether the value names a recognized variant.
func (v PropertyValue) Validate() error {
	if !v.Type.IsValid() {
		return fmt.Errorf("unknown property type %q", v.Type)
	}
	return nil
}

// Canonical returns a stable string form of the value, suitable for
// hashing. Multi-select options are sorted and dates normalized to UTC so
// representation noise never registers as a change.
func (v PropertyValue) Canonical() string {
	switch v.Type {
	case PropertyNumber:
		return "number:" + strconv.FormatFloat(v.Number, 'g', -1, 64)
	case PropertySelect:
		return "select:" + v.Select
	case PropertyMultiSelect:
		opts := make([]string, len(v.MultiSelect))
		copy(opts, v.MultiSelect)
		sort.Strings(opts)
		return "multi_select:" + strings.Join(opts, ",")
	case PropertyDate:
		if v.Date.IsZero() {
			return "date:"
		}
		return "date:" + v.Date.UTC().Format(time.RFC3339)
	case PropertyCheckbox:
		return "checkbox:" + strconv.FormatBool(v.Checkbox)
	case PropertyURL:
		return "url:" + v.URL
	default:
		return "text:" + v.Text
	}
}

// TextValue coerces any variant to a display string. Used when rendering
// properties into stored document metadata.
func (v PropertyValue) TextValue() string {
	switch v.Type {
	case PropertyNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case PropertySelect:
		return v.Select
	case PropertyMultiSelect:
		return strings.Join(v.MultiSelect, ", ")
	case PropertyDate:
		if v.Date.IsZero() {
			return ""
		}
		return v.Date.UTC().Format("2006-01-02")
	case PropertyCheckbox:
		return strconv.FormatBool(v.Checkbox)
	case PropertyURL:
		return v.URL
	default:
		return v.Text
	}
}
