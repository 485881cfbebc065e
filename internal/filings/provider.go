// Package filings resolves the persisted filing and business snapshots a
// notification is built from.
package filings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"entityemailer/internal/db"
	"entityemailer/internal/types"
)

// ErrFilingNotFound is returned when no filing row matches the identifier.
var ErrFilingNotFound = errors.New("filing not found")

// DateLayout renders filing and effective dates for recipients,
// e.g. "August 1, 2026 at 10:15 am Pacific time".
const DateLayout = "January 2, 2006 at 3:04 pm Pacific time"

// The business row is absent for an incorporation application filed before
// the business exists; the bootstrap identifier (temp_reg) stands in.
const filingInfoQuery = `
	SELECT f.id, f.filing_type, f.status, COALESCE(f.payment_id, ''),
	       f.filing_date, f.effective_date, f.filing_json,
	       COALESCE(f.temp_reg, ''),
	       b.identifier, b.legal_name, b.legal_type
	FROM filings f
	LEFT JOIN businesses b ON b.id = f.business_id
	WHERE f.id = $1`

// Provider implements the filing lookup on PostgreSQL.
type Provider struct {
	db           db.DBTX
	location     *time.Location
	queryTimeout time.Duration
}

// NewProvider creates a Provider rendering dates in location.
// A zero queryTimeout leaves the caller's deadline in charge.
func NewProvider(dbtx db.DBTX, location *time.Location, queryTimeout time.Duration) *Provider {
	if location == nil {
		location = time.UTC
	}
	return &Provider{db: dbtx, location: location, queryTimeout: queryTimeout}
}

// FilingInfo loads filing id together with its business and the rendered
// filing and effective dates.
func (p *Provider) FilingInfo(ctx context.Context, id int64) (*types.FilingInfo, error) {
	if p.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.queryTimeout)
		defer cancel()
	}

	var (
		f             types.Filing
		filingType    string
		status        string
		effectiveDate *time.Time
		filingJSON    []byte
		tempReg       string
		identifier    *string
		legalName     *string
		legalType     *string
	)
	err := p.db.QueryRow(ctx, filingInfoQuery, id).Scan(
		&f.ID, &filingType, &status, &f.PaymentToken,
		&f.FilingDate, &effectiveDate, &filingJSON,
		&tempReg,
		&identifier, &legalName, &legalType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundFiling,
				fmt.Sprintf("filing %d not found", id), ErrFilingNotFound)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve filing", err)
	}
	f.FilingType = types.FilingType(filingType)
	f.Status = types.FilingStatus(status)
	f.EffectiveDate = effectiveDate

	payload, err := types.ParseFilingPayload(filingJSON, f.FilingType)
	if err != nil {
		return nil, err
	}
	f.Payload = payload

	business := &types.Business{Identifier: tempReg}
	if identifier != nil {
		business.Identifier = *identifier
		business.LegalName = deref(legalName)
		business.LegalType = deref(legalType)
	}
	if business.Identifier == "" {
		return nil, types.NewAppError(types.ErrCodeNotFoundFiling,
			fmt.Sprintf("filing %d has neither a business nor a temporary registration", id), ErrFilingNotFound)
	}
	business.Attributes = map[string]any{
		"identifier": business.Identifier,
		"legalName":  business.LegalName,
		"legalType":  business.LegalType,
	}

	info := &types.FilingInfo{
		Filing:         &f,
		Business:       business,
		FilingDateTime: p.format(f.FilingDate),
	}
	if f.EffectiveDate != nil {
		info.EffectiveDateTime = p.format(*f.EffectiveDate)
	}
	return info, nil
}

func (p *Provider) format(t time.Time) string {
	return t.In(p.location).Format(DateLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
