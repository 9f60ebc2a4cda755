// Package workflow holds the operator's current process selection and
// its cascading organizational context.
package workflow

import (
	"fmt"

	"example.com/fieldops/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Context is the workflow the operator scans under: a process type and
// the company/group/location hierarchy it applies to. Selections
// cascade downward, so changing an upstream record always clears the
// stale downstream ones.
type Context struct {
	Process  models.ProcessType `validate:"required,oneof=shipping return disposal"`
	Company  *models.Company    `validate:"required_if=Process shipping"`
	Group    *models.Group
	Location *models.Location
	Note     string
}

// New creates a workflow context for the given process
func New(process models.ProcessType) *Context {
	return &Context{Process: process}
}

// SetCompany selects a company and clears any group and location
// chosen under the previous one
func (c *Context) SetCompany(company *models.Company) {
	c.Company = company
	c.Group = nil
	c.Location = nil
}

// SetGroup selects a group and clears any location chosen under the
// previous one
func (c *Context) SetGroup(group *models.Group) {
	c.Group = group
	c.Location = nil
}

// SetLocation selects a location
func (c *Context) SetLocation(location *models.Location) {
	c.Location = location
}

// Validate checks the context is complete enough to start scanning.
// Shipping requires a company; return and disposal need no
// organizational selection.
func (c *Context) Validate() error {
	if err := validate.Struct(c); err != nil {
		if c.Process == models.ProcessShipping && c.Company == nil {
			return fmt.Errorf("shipping requires a company selection")
		}
		return fmt.Errorf("invalid workflow selection: %w", err)
	}
	return nil
}

// Snapshot returns a by-value copy for the dispatcher, which must not
// observe later mutations of the operator's selection.
func (c *Context) Snapshot() Context {
	return *c
}
