package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"entityemailer/internal/types"
)

// BindData is the set of names a body template can reference.
type BindData struct {
	Business           map[string]any
	Filing             map[string]any
	Header             map[string]any
	FilingDateTime     string
	EffectiveDateTime  string
	EntityDashboardURL string
	EmailHeader        string
}

// Binder renders inlined templates against a filing.
type Binder struct {
	dashboardURL string
}

// NewBinder creates a Binder. dashboardURL is prefixed to the business
// identifier to build the entity dashboard link.
func NewBinder(dashboardURL string) *Binder {
	return &Binder{dashboardURL: dashboardURL}
}

// Bind derives the template data for a filing.
func (b *Binder) Bind(info *types.FilingInfo) BindData {
	data := BindData{
		FilingDateTime:    info.FilingDateTime,
		EffectiveDateTime: info.EffectiveDateTime,
		EmailHeader:       strings.ToUpper(HumanizeFilingType(info.Filing.FilingType)),
	}
	if info.Business != nil {
		data.Business = info.Business.Attributes
	}
	if p := info.Filing.Payload; p != nil {
		data.Filing = p.SectionData
		data.Header = p.HeaderData
		data.EntityDashboardURL = b.dashboardURL + p.Business.Identifier
	} else {
		data.EntityDashboardURL = b.dashboardURL
	}
	return data
}

// Render parses tmpl and executes it with data. Missing map keys render as
// empty strings.
func (b *Binder) Render(name, tmpl string, data BindData) (string, error) {
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalTemplate,
			fmt.Sprintf("failed to parse template %s", name), err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", types.NewAppError(types.ErrCodeInternalTemplate,
			fmt.Sprintf("failed to render template %s", name), err)
	}
	return buf.String(), nil
}
