// Package templates selects, inlines and renders the HTML body of filing
// notifications.
//
// A notification body is produced in two stages. Inline expands
// [[fragment.html]] markers into one self-contained template; Binder.Render
// then executes it with html/template so every bound value is escaped for
// its context.
package templates

import (
	"context"
	"errors"
	"fmt"

	"entityemailer/internal/types"
)

var (
	// ErrUnknownFilingType is returned for a filing type with no template code.
	ErrUnknownFilingType = errors.New("unknown filing type")
	// ErrTemplateNotFound is returned when a template or fragment does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrStorage is returned when the template store fails for another reason.
	ErrStorage = errors.New("template storage failure")
)

// filingTypeCodes maps each supported filing type to its template code.
var filingTypeCodes = map[types.FilingType]string{
	types.FilingTypeIncorporationApplication: "IA",
	types.FilingTypeAnnualReport:             "AR",
	types.FilingTypeChangeOfDirectors:        "COD",
	types.FilingTypeChangeOfAddress:          "COA",
}

// DefaultJurisdiction prefixes every template identifier.
const DefaultJurisdiction = "BC"

// Resolver locates the body template for a filing type and status.
type Resolver struct {
	store        Store
	jurisdiction string
}

// NewResolver creates a Resolver. An empty jurisdiction means
// DefaultJurisdiction.
func NewResolver(store Store, jurisdiction string) *Resolver {
	if jurisdiction == "" {
		jurisdiction = DefaultJurisdiction
	}
	return &Resolver{store: store, jurisdiction: jurisdiction}
}

// TemplateName returns the file name of the (filingType, status) template,
// e.g. "BC-COD-PAID.html".
func (r *Resolver) TemplateName(filingType types.FilingType, status types.FilingStatus) (string, error) {
	code, ok := filingTypeCodes[filingType]
	if !ok {
		return "", types.NewAppError(types.ErrCodeNotFoundFilingType,
			fmt.Sprintf("no template code for filing type %q", filingType), ErrUnknownFilingType)
	}
	return fmt.Sprintf("%s-%s-%s.html", r.jurisdiction, code, status), nil
}

// Resolve returns the raw template text for the pair. Both an unknown filing
// type and a missing template are fatal to the caller.
func (r *Resolver) Resolve(ctx context.Context, filingType types.FilingType, status types.FilingStatus) (string, error) {
	name, err := r.TemplateName(filingType, status)
	if err != nil {
		return "", err
	}
	content, err := r.store.Read(ctx, name)
	if err != nil {
		return "", storeError(name, err)
	}
	return string(content), nil
}

// storeError classifies a Store failure as an AppError.
func storeError(name string, err error) error {
	if errors.Is(err, ErrTemplateNotFound) {
		return types.NewAppError(types.ErrCodeNotFoundTemplate,
			fmt.Sprintf("template %s not found", name), err)
	}
	return types.NewAppError(types.ErrCodeInternalStorage,
		fmt.Sprintf("failed to read template %s", name), err)
}
