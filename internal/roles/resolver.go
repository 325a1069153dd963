// Package roles maps upstream custom role display names to the identifiers
// the upstream "Custom Role" select uses as option values.
package roles

import "strings"

// Entry is one role name and its upstream identifier.
type Entry struct {
	Name string
	ID   string
}

// DefaultEntries is the upstream role catalogue. Order matters: "accounting dept"
// is listed twice and the later identifier wins.
var DefaultEntries = []Entry{
	{"ops manager", "13f2f0a7-10ea-11ea-b358-ac1f6b40676a"},
	{"technician veterans", "d4d17644-4fe1-46c4-bf0f-07186eb747e9"},
	{"intel manager", "3d5ebe4d-1960-489e-8433-8adc1a2cc30d"},
	{"production co-ordinator", "13f2f165-10ea-11ea-b358-ac1f6b40676a"},
	{"car wash co-ordinator", "881b7057-bef6-4333-9425-29df4aa6b282"},
	{"parts", "56118e93-05d4-11ea-af30-ac1f6b40676a"},
	{"glass/cal technician", "13f2f4c6-10ea-11ea-b358-ac1f6b40676a"},
	{"tv", "56115083-05d4-11ea-af30-ac1f6b40676a"},
	{"temp", "8231c3ef-f954-43f8-998a-de801c158b62"},
	{"act360 support", "13f2ed99-10ea-11ea-b358-ac1f6b40676a"},
	{"collision coop", "338215f9-695f-42c7-98ff-c4dbf411532b"},
	{"finishmaster audits", "053c1aa7-3155-4faf-bd81-210b21fd6f57"},
	{"ee inactive - inactive user", "919180ae-378f-47b1-9cae-f5beb9944627"},
	{"bodyshop manager", "56116888-05d4-11ea-af30-ac1f6b40676a"},
	{"appraiser role", "13f2edfb-10ea-11ea-b358-ac1f6b40676a"},
	{"customer service b", "485c0c58-9ffa-43d5-8ef6-2f9b2b86f652"},
	{"techconnect user", "56116956-05d4-11ea-af30-ac1f6b40676a"},
	{"accounting dept", "7a103216-f49f-11e9-a723-ac1f6b40676a"},
	{"payroll admin", "9bfcd919-3382-4e0c-8c83-1b39ea2cf9e4"},
	{"csr/closing", "13f2eeb8-10ea-11ea-b358-ac1f6b40676a"},
	{"estimator", "56118ecc-05d4-11ea-af30-ac1f6b40676a"},
	{"accounting dept", "561168bc-05d4-11ea-af30-ac1f6b40676a"},
	{"technician tiffin", "13f2f635-10ea-11ea-b358-ac1f6b40676a"},
	{"hr admin", "ef841be5-d29a-43b7-8c0f-a09d44972c1a"},
	{"customer service", "56119960-05d4-11ea-af30-ac1f6b40676a"},
}

// Resolver is an immutable, case-insensitive role lookup safe for concurrent use.
type Resolver struct {
	ids map[string]string
}

// NewResolver builds a resolver; on duplicate names the last entry wins.
func NewResolver(entries []Entry) *Resolver {
	ids := make(map[string]string, len(entries))
	for _, e := range entries {
		ids[strings.ToLower(e.Name)] = e.ID
	}
	return &Resolver{ids: ids}
}

// Default returns a resolver over DefaultEntries.
func Default() *Resolver {
	return NewResolver(DefaultEntries)
}

// Resolve returns the identifier for name, ignoring case.
func (r *Resolver) Resolve(name string) (string, bool) {
	id, ok := r.ids[strings.ToLower(name)]
	return id, ok
}

// Len reports the number of distinct role names.
func (r *Resolver) Len() int {
	return len(r.ids)
}
