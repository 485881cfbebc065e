// Package recipients works out who a filing notification is addressed to.
package recipients

import (
	"context"
	"strings"

	"entityemailer/internal/external"
	"entityemailer/internal/types"
)

// Resolver derives recipient addresses from the filing document, falling
// back to the business contact held by the auth API. Addresses are not
// validated.
type Resolver struct {
	contacts external.ContactService
}

// NewResolver creates a Resolver. contacts may be nil, which disables the
// auth API fallback.
func NewResolver(contacts external.ContactService) *Resolver {
	return &Resolver{contacts: contacts}
}

// Resolve returns the recipients in order without duplicates:
//
//  1. the filing's contactPoint.email;
//  2. for a paid incorporation application, the completing party's email;
//  3. when neither is present, the first business contact from the auth API.
//
// On an auth API error the addresses found so far (none) are returned with
// the error.
func (r *Resolver) Resolve(ctx context.Context, status types.FilingStatus, filing *types.Filing, token types.SecretString) ([]string, error) {
	var addrs addressList
	if p := filing.Payload; p != nil {
		if cp := p.Section.ContactPoint; cp != nil {
			addrs.add(cp.Email)
		}
		if filing.FilingType == types.FilingTypeIncorporationApplication && status == types.FilingStatusPaid {
			addrs.add(completingPartyEmail(p.Section.Parties))
		}
	}
	if len(addrs) > 0 || r.contacts == nil {
		return addrs, nil
	}

	identifier := ""
	if filing.Payload != nil {
		identifier = filing.Payload.Business.Identifier
	}
	if identifier == "" {
		return addrs, nil
	}

	emails, err := r.contacts.BusinessContacts(ctx, token, identifier)
	if err != nil {
		return addrs, err
	}
	if len(emails) > 0 {
		addrs.add(emails[0])
	}
	return addrs, nil
}

func completingPartyEmail(parties []types.Party) string {
	for _, party := range parties {
		if party.HasRole(types.RoleCompletingParty) {
			return party.Officer.Email
		}
	}
	return ""
}

type addressList []string

// add appends addr unless it is blank or already present (case-insensitive).
func (l *addressList) add(addr string) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	for _, existing := range *l {
		if strings.EqualFold(existing, addr) {
			return
		}
	}
	*l = append(*l, addr)
}
