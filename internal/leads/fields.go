package leads

// Input kinds used by the form template.
const (
	KindText   = "text"
	KindEmail  = "email"
	KindTel    = "tel"
	KindSelect = "select"
	KindChecks = "checkboxes"
)

// Field describes one form field for rendering and messages.
type Field struct {
	ID          string
	Label       string
	Kind        string
	Placeholder string
	Options     []string
	Multi       bool
}

var industries = []string{
	"FMCG Home Care",
	"FMCG Food",
	"FMCG Personal Care",
	"FMCG Non-Alcoholic Beverages",
	"Retail Fashion and Accessories",
	"Retail Electronics",
	"Consumer Durable Goods",
	"Alcohol Beverages",
	"Banking and Financial Industries",
	"Automotive",
}

var campaignObjectives = []string{
	"Drive sales/conversions",
	"Acquire new customers",
	"Increase repeat purchases",
	"Boost product trials/sampling",
	"Engage trade/channel partners",
	"Drive store/online footfalls",
	"Engage customers through gamified experiences",
	"New product launch",
}

var targetAudiences = []string{
	"Men",
	"Women",
	"Kids",
	"Teens",
	"Young Adults",
	"Working Professionals",
	"Homemakers",
	"Senior Citizens",
	"Trade Partners",
}

var ageGroups = []string{
	"13 - 17",
	"18 - 24",
	"25 - 40",
	"41 - 60",
	"60+",
}

var catalogue = []Field{
	{ID: FieldName, Label: "Name", Kind: KindText, Placeholder: "Enter your full name"},
	{ID: FieldEmail, Label: "Work Email", Kind: KindEmail, Placeholder: "your.email@company.com"},
	{ID: FieldMobile, Label: "Mobile", Kind: KindTel, Placeholder: "9535276700"},
	{ID: FieldCompany, Label: "Company/Brand Name", Kind: KindText, Placeholder: "e.g., Lizol Floor Cleaner"},
	{ID: FieldIndustry, Label: "Industry", Kind: KindSelect, Placeholder: "Select your industry", Options: industries},
	{ID: FieldCampaignObjective, Label: "Campaign Objective", Kind: KindChecks, Options: campaignObjectives, Multi: true},
	{ID: FieldTargetAudience, Label: "Target Audience", Kind: KindChecks, Options: targetAudiences, Multi: true},
	{ID: FieldAge, Label: "Age Group", Kind: KindChecks, Options: ageGroups, Multi: true},
}

// Fields returns the form catalogue in display order.
func Fields() []Field {
	out := make([]Field, len(catalogue))
	copy(out, catalogue)
	return out
}

// LookupField finds a field by identifier.
func LookupField(id string) (Field, bool) {
	for _, f := range catalogue {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Label returns the human label for a field id, or the id itself.
func Label(id string) string {
	if f, ok := LookupField(id); ok {
		return f.Label
	}
	return id
}
