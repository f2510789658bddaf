package leads

import (
	"strings"
	"time"
)

const (
	// OptionSeparator joins multi-select options in the payload.
	OptionSeparator = ", "
	// TimestampLayout is ISO-8601 in UTC with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
	// DefaultSource tags submissions coming from this form.
	DefaultSource = "react_form"
)

// Payload is the JSON document posted to the webhook.
type Payload struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Mobile            string `json:"mobile"`
	Company           string `json:"company"`
	Industry          string `json:"industry"`
	CampaignObjective string `json:"campaignObjective"`
	TargetAudience    string `json:"targetAudience"`
	Age               string `json:"age"`
	Timestamp         string `json:"timestamp"`
	Source            string `json:"source"`
}

// BuildPayload flattens the form into the webhook payload. Text fields are
// copied as typed; option sets are joined with OptionSeparator in selection
// order.
func BuildPayload(values FormValues, now time.Time, source string) Payload {
	return Payload{
		Name:              values.Name,
		Email:             values.Email,
		Mobile:            values.Mobile,
		Company:           values.Company,
		Industry:          values.Industry,
		CampaignObjective: strings.Join(values.CampaignObjective, OptionSeparator),
		TargetAudience:    strings.Join(values.TargetAudience, OptionSeparator),
		Age:               strings.Join(values.Age, OptionSeparator),
		Timestamp:         now.UTC().Format(TimestampLayout),
		Source:            source,
	}
}
