package leads

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// Field identifiers. They double as JSON keys and HTML form names.
const (
	FieldName              = "name"
	FieldEmail             = "email"
	FieldMobile            = "mobile"
	FieldCompany           = "company"
	FieldIndustry          = "industry"
	FieldCampaignObjective = "campaignObjective"
	FieldTargetAudience    = "targetAudience"
	FieldAge               = "age"
)

// ErrUnknownField is returned when an edit names a field the form does not have
// or uses the wrong edit kind for it.
var ErrUnknownField = errors.New("leads: unknown field")

// FormValues holds the current value of every form field. Scalars are plain
// strings, multi-select fields are ordered option sets. A zero-value slice is
// never exposed: NewFormValues and Normalize keep every set non-nil.
type FormValues struct {
	Name              string   `json:"name" validate:"notblank"`
	Email             string   `json:"email" validate:"notblank"`
	Mobile            string   `json:"mobile" validate:"notblank"`
	Company           string   `json:"company" validate:"notblank"`
	Industry          string   `json:"industry" validate:"notblank"`
	CampaignObjective []string `json:"campaignObjective" validate:"notblank"`
	TargetAudience    []string `json:"targetAudience" validate:"notblank"`
	Age               []string `json:"age" validate:"notblank"`
}

// NewFormValues returns the empty form.
func NewFormValues() FormValues {
	return FormValues{
		CampaignObjective: []string{},
		TargetAudience:    []string{},
		Age:               []string{},
	}
}

// Normalize replaces nil sets with empty ones. Values restored from JSON may
// carry nulls.
func (v *FormValues) Normalize() {
	if v.CampaignObjective == nil {
		v.CampaignObjective = []string{}
	}
	if v.TargetAudience == nil {
		v.TargetAudience = []string{}
	}
	if v.Age == nil {
		v.Age = []string{}
	}
}

// Reset returns the form to its initial empty state.
func (v *FormValues) Reset() {
	*v = NewFormValues()
}

// Set assigns a scalar field.
func (v *FormValues) Set(field, value string) error {
	ptr := v.scalar(field)
	if ptr == nil {
		return fmt.Errorf("%w: %q is not a text field", ErrUnknownField, field)
	}
	*ptr = value
	return nil
}

// Toggle adds or removes one option of a multi-select field. Newly selected
// options are appended, so selection order is kept.
func (v *FormValues) Toggle(field, option string, selected bool) error {
	ptr := v.multi(field)
	if ptr == nil {
		return fmt.Errorf("%w: %q is not a multi-select field", ErrUnknownField, field)
	}
	idx := slices.Index(*ptr, option)
	switch {
	case selected && idx < 0:
		*ptr = append(*ptr, option)
	case !selected && idx >= 0:
		*ptr = slices.Delete(*ptr, idx, idx+1)
	}
	return nil
}

// SetSelection replaces the options of a multi-select field. Duplicates are
// dropped, first occurrence wins.
func (v *FormValues) SetSelection(field string, options []string) error {
	ptr := v.multi(field)
	if ptr == nil {
		return fmt.Errorf("%w: %q is not a multi-select field", ErrUnknownField, field)
	}
	out := make([]string, 0, len(options))
	for _, opt := range options {
		if !slices.Contains(out, opt) {
			out = append(out, opt)
		}
	}
	*ptr = out
	return nil
}

// Value returns the text of a scalar field, or "" for anything else.
func (v FormValues) Value(field string) string {
	if ptr := v.scalar(field); ptr != nil {
		return *ptr
	}
	return ""
}

// Has reports whether option is chosen, either as the scalar value or as a
// member of a multi-select set.
func (v FormValues) Has(field, option string) bool {
	if ptr := v.multi(field); ptr != nil {
		return slices.Contains(*ptr, option)
	}
	return v.Value(field) == option
}

// ApplyForm copies every catalogue field present in a posted HTML form.
// Multi-select fields absent from the form are cleared, matching how browsers
// omit unchecked boxes.
func (v *FormValues) ApplyForm(form url.Values) {
	for _, f := range Fields() {
		if f.Multi {
			_ = v.SetSelection(f.ID, form[f.ID])
			continue
		}
		if vals, ok := form[f.ID]; ok && len(vals) > 0 {
			_ = v.Set(f.ID, vals[0])
		}
	}
}

func (v *FormValues) scalar(field string) *string {
	switch field {
	case FieldName:
		return &v.Name
	case FieldEmail:
		return &v.Email
	case FieldMobile:
		return &v.Mobile
	case FieldCompany:
		return &v.Company
	case FieldIndustry:
		return &v.Industry
	}
	return nil
}

func (v *FormValues) multi(field string) *[]string {
	switch field {
	case FieldCampaignObjective:
		return &v.CampaignObjective
	case FieldTargetAudience:
		return &v.TargetAudience
	case FieldAge:
		return &v.Age
	}
	return nil
}
