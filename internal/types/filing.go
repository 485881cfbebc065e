package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// FilingType is the camelCase tag identifying the kind of filing, as it
// appears in the filing document and the filings.filing_type column.
type FilingType string

const (
	FilingTypeIncorporationApplication FilingType = "incorporationApplication"
	FilingTypeAnnualReport             FilingType = "annualReport"
	FilingTypeChangeOfDirectors        FilingType = "changeOfDirectors"
	FilingTypeChangeOfAddress          FilingType = "changeOfAddress"
)

// FilingStatus is the lifecycle status that triggered the notification.
// Values match the filing store and appear verbatim in template names.
type FilingStatus string

const (
	FilingStatusPaid      FilingStatus = "PAID"
	FilingStatusCompleted FilingStatus = "COMPLETED"
)

// DefaultCorpName is the receipt corporation name used for an incorporation
// application whose name request carries no legal name.
const DefaultCorpName = "Numbered Company"

// RoleCompletingParty is the party role whose officer receives the paid
// incorporation confirmation.
const RoleCompletingParty = "Completing Party"

// Business is the read-only snapshot of the entity a filing was made against.
// Attributes holds the full snapshot for template binding.
type Business struct {
	Identifier string
	LegalName  string
	LegalType  string
	Attributes map[string]any
}

// Filing is an immutable snapshot of a persisted filing.
type Filing struct {
	ID            int64
	FilingType    FilingType
	Status        FilingStatus
	PaymentToken  string
	FilingDate    time.Time
	EffectiveDate *time.Time
	Payload       *FilingPayload
}

// LegalName resolves the name used to prefix subjects: the name request's
// legal name for an incorporation application, otherwise the business legal
// name. Returns "" when neither is known.
func (f *Filing) LegalName(business *Business) string {
	if f.FilingType == FilingTypeIncorporationApplication {
		if f.Payload != nil && f.Payload.Section.NameRequest != nil {
			return f.Payload.Section.NameRequest.LegalName
		}
		return ""
	}
	if business == nil {
		return ""
	}
	return business.LegalName
}

// CorpName is the corporation name sent to the receipt service. It follows
// LegalName but falls back to DefaultCorpName for an unnamed incorporation.
func (f *Filing) CorpName(business *Business) string {
	name := f.LegalName(business)
	if name == "" && f.FilingType == FilingTypeIncorporationApplication {
		return DefaultCorpName
	}
	return name
}

// ---------------------------------------------------------------------------
// Filing document schema
// ---------------------------------------------------------------------------

// PayloadHeader is the consumed subset of filing.header.
type PayloadHeader struct {
	Name      string `json:"name" validate:"required"`
	Date      string `json:"date"`
	Certified string `json:"certifiedBy"`
	Email     string `json:"email"`
}

// PayloadBusiness is the consumed subset of filing.business.
type PayloadBusiness struct {
	Identifier string `json:"identifier"`
	LegalName  string `json:"legalName"`
	LegalType  string `json:"legalType"`
}

// NameRequest is the name reservation attached to an incorporation application.
type NameRequest struct {
	NRNumber  string `json:"nrNumber"`
	LegalName string `json:"legalName"`
	LegalType string `json:"legalType"`
}

// ContactPoint is the filing's contact for notifications.
type ContactPoint struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Officer identifies the person or organization behind a party.
type Officer struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	OrganizationName string `json:"organizationName"`
	PartyType        string `json:"partyType"`
	Email            string `json:"email"`
}

// PartyRole is one role a party holds in the filing.
type PartyRole struct {
	RoleType string `json:"roleType" validate:"required"`
}

// Party is an entry of the incorporation application's parties list.
type Party struct {
	Officer Officer     `json:"officer"`
	Roles   []PartyRole `json:"roles" validate:"dive"`
}

// HasRole reports whether the party holds the given role.
func (p Party) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r.RoleType == role {
			return true
		}
	}
	return false
}

// FilingSection is the consumed subset of the filing-type sub-object
// (filing.<filingType>).
type FilingSection struct {
	NameRequest  *NameRequest  `json:"nameRequest"`
	ContactPoint *ContactPoint `json:"contactPoint"`
	Parties      []Party       `json:"parties" validate:"dive"`
}

// FilingPayload is the validated view of a filing document. The typed fields
// are what the service reads; the *Data maps are the same sub-objects passed
// untouched to templates.
type FilingPayload struct {
	Header   PayloadHeader
	Business PayloadBusiness
	Section  FilingSection

	HeaderData   map[string]any
	BusinessData map[string]any
	SectionData  map[string]any
}

var payloadValidator = validator.New()

// ParseFilingPayload decodes and validates a filing document for the given
// filing type. The document must contain filing.header and filing.<filingType>;
// an incorporation application must carry a nameRequest object.
func ParseFilingPayload(raw []byte, filingType FilingType) (*FilingPayload, error) {
	var doc struct {
		Filing map[string]json.RawMessage `json:"filing"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, NewAppError(ErrCodeValidationPayload, "filing document is not valid JSON", err)
	}
	if doc.Filing == nil {
		return nil, NewAppError(ErrCodeValidationPayload, "filing document has no filing object", nil)
	}

	p := &FilingPayload{}
	if err := decodeSection(doc.Filing, "header", true, &p.Header, &p.HeaderData); err != nil {
		return nil, err
	}
	if err := decodeSection(doc.Filing, "business", false, &p.Business, &p.BusinessData); err != nil {
		return nil, err
	}
	if err := decodeSection(doc.Filing, string(filingType), true, &p.Section, &p.SectionData); err != nil {
		return nil, err
	}

	if err := payloadValidator.Struct(p); err != nil {
		return nil, NewAppError(ErrCodeValidationPayload, "filing document failed validation", err)
	}
	if filingType == FilingTypeIncorporationApplication && p.Section.NameRequest == nil {
		return nil, NewAppError(ErrCodeValidationMissingField,
			"incorporationApplication.nameRequest is required", nil)
	}
	return p, nil
}

func decodeSection(sections map[string]json.RawMessage, key string, required bool, typed any, data *map[string]any) error {
	raw, ok := sections[key]
	if !ok || string(raw) == "null" {
		if required {
			return NewAppError(ErrCodeValidationMissingField, fmt.Sprintf("filing.%s is required", key), nil)
		}
		*data = map[string]any{}
		return nil
	}
	if err := json.Unmarshal(raw, typed); err != nil {
		return NewAppError(ErrCodeValidationPayload, fmt.Sprintf("filing.%s is malformed", key), err)
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return NewAppError(ErrCodeValidationPayload, fmt.Sprintf("filing.%s is not an object", key), err)
	}
	return nil
}

// FilingInfo is what the filing store returns for one filing: the filing and
// business snapshots plus the filing and effective dates already rendered in
// the legislation time zone. EffectiveDateTime is "" when the filing has no
// effective date.
type FilingInfo struct {
	Filing            *Filing
	Business          *Business
	FilingDateTime    string
	EffectiveDateTime string
}
