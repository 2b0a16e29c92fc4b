package domain

import (
	"regexp"

	"github.com/tablebook/tablebook/internal/validation"
)

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// Restaurant is a restaurant within a tenant. Entity and row are identical.
type Restaurant struct {
	TenantID    string `json:"tenantId"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
	StateCode   string `json:"stateCode"`
}

func (r *Restaurant) EntityID() string { return r.ID }

func (r *Restaurant) Less(o *Restaurant) bool { return r.ID < o.ID }

func (r *Restaurant) GetTenantID() string { return r.TenantID }

func (r *Restaurant) SetTenantID(id string) { r.TenantID = id }

// Validate checks the restaurant's declared constraints.
func (r *Restaurant) Validate() []validation.Violation {
	v := validation.New()
	v.Required("tenantId", r.TenantID)
	v.Required("id", r.ID)
	v.Required("name", r.Name)
	v.Length("name", r.Name, 2, 60)
	v.Match("countryCode", r.CountryCode, countryCodeRe, "must be a 2-letter ISO country code")
	return v.Violations()
}
