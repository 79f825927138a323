// Package domain holds the sample object types the dynreg host can create
// by name. Importing it registers them in the dynamic type catalog.
package domain

import (
	"github.com/arthur-debert/dynreg/pkg/dynamic"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/notify"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

func init() {
	dynamic.MustRegisterType("Person", &Person{})
	dynamic.MustRegisterType("Counter", &Counter{})
}

// Person is a named person with an age
type Person struct {
	notify.Notifier
	Age       int
	FirstName string
	LastName  string
}

// NewPerson creates a person from separate first and last names
func NewPerson(age int, firstName, lastName string) *Person {
	return &Person{Age: age, FirstName: firstName, LastName: lastName}
}

// NewNamedPerson creates a person whose first and last names are both name
func NewNamedPerson(age int, name string) *Person {
	return &Person{Age: age, FirstName: name, LastName: name}
}

// FullName joins the first and last names
func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// AgePlus returns the age add years from now
func (p *Person) AgePlus(add int) int {
	return p.Age + add
}

// Birthday increments the age
func (p *Person) Birthday() int {
	p.Age++
	dynamic.Notify(p, "Age")
	return p.Age
}

// Rename changes both names
func (p *Person) Rename(firstName, lastName string) {
	p.FirstName, p.LastName = firstName, lastName
	dynamic.Notify(p, "FirstName")
	dynamic.Notify(p, "LastName")
}

func renameSingle(p *Person, name string) {
	p.Rename(name, name)
}

func (p *Person) DescribeSchema(m *schema.Manifest) {
	m.Constructor(NewPerson, schema.Req("age"), schema.Req("firstName"), schema.Req("lastName"))
	m.Constructor(NewNamedPerson, schema.Req("age"), schema.Req("name"))
	m.Method("AgePlus", schema.Opt("add", 10))
	m.Method("Rename", schema.Req("firstName"), schema.Req("lastName"))
	m.Overload("Rename", renameSingle, schema.Req("name"))
	m.Property("Name", (*Person).FullName, nil)
}

// Counter is a bounded step counter
type Counter struct {
	notify.Notifier
	Value int
	Step  int
	Limit int
}

// NewCounter creates a counter. A zero limit means unbounded.
func NewCounter(start, step, limit int) (*Counter, error) {
	if step <= 0 {
		return nil, errors.Newf(errors.ErrInvalidInput, "step must be positive, got %d", step)
	}
	if limit > 0 && start > limit {
		return nil, errors.Newf(errors.ErrInvalidInput, "start %d exceeds limit %d", start, limit)
	}
	return &Counter{Value: start, Step: step, Limit: limit}, nil
}

// Increment advances the counter by times steps and returns the new value
func (c *Counter) Increment(times int) (int, error) {
	next := c.Value + times*c.Step
	if c.Limit > 0 && next > c.Limit {
		return c.Value, errors.Newf(errors.ErrInvalidInput, "counter would pass its limit %d", c.Limit)
	}
	if next != c.Value {
		c.Value = next
		dynamic.Notify(c, "Value")
	}
	return c.Value, nil
}

// Reset sets the value back to zero
func (c *Counter) Reset() {
	if c.Value != 0 {
		c.Value = 0
		dynamic.Notify(c, "Value")
	}
}

func (c *Counter) DescribeSchema(m *schema.Manifest) {
	m.Constructor(NewCounter, schema.Opt("start", 0), schema.Opt("step", 1), schema.Opt("limit", 0))
	m.Method("Increment", schema.Opt("times", 1))
}
