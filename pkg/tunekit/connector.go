package tunekit

import (
	"fmt"
	"log/slog"
	"regexp"
)

// namePattern constrains connector names: alphanumerics, hyphens,
// slashes, periods, and underscores, 3 to 128 characters.
var namePattern = regexp.MustCompile(`^[0-9a-zA-Z-_/\.]{3,128}$`)

// Connector is a named, configured instance of a connector type. The
// configuration object is opaque to the core: it arrives pre-validated
// from the configuration provider and is only attached here. Group
// membership is never stored on the connector itself; it lives in an
// identity-keyed side table (see Group).
type Connector struct {
	name      string
	typ       *ConnectorType
	config    any
	optimizer *Optimizer
}

// ConnectorOption configures a connector instance.
type ConnectorOption func(*Connector)

// WithName overrides the type-derived default connector name.
func WithName(name string) ConnectorOption {
	return func(c *Connector) {
		c.name = name
	}
}

// WithConfig attaches the validated configuration object.
func WithConfig(config any) ConnectorOption {
	return func(c *Connector) {
		c.config = config
	}
}

// WithOptimizer attaches the optimizer descriptor.
func WithOptimizer(o *Optimizer) ConnectorOption {
	return func(c *Connector) {
		c.optimizer = o
	}
}

// New instantiates a connector of this type. The type must be registered
// first; the name defaults to the type's default identifier.
func (t *ConnectorType) New(opts ...ConnectorOption) (*Connector, error) {
	if !t.frozen {
		return nil, fmt.Errorf("tunekit: %s: type must be registered before instantiation", t.name)
	}
	c := &Connector{
		name: t.DefaultName(),
		typ:  t,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !namePattern.MatchString(c.name) {
		return nil, fmt.Errorf("tunekit: invalid connector name %q: names may only contain alphanumeric characters, hyphens, slashes, periods, and underscores", c.name)
	}
	return c, nil
}

// MustNew instantiates a connector, panicking on error.
func (t *ConnectorType) MustNew(opts ...ConnectorOption) *Connector {
	c, err := t.New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the connector's name, unique within its group.
func (c *Connector) Name() string { return c.name }

// Type returns the connector's frozen type.
func (c *Connector) Type() *ConnectorType { return c.typ }

// Config returns the attached configuration object.
func (c *Connector) Config() any { return c.config }

// Optimizer returns the attached optimizer descriptor, or nil.
func (c *Connector) Optimizer() *Optimizer { return c.optimizer }

// Logger returns the default logger bound with the connector's name.
func (c *Connector) Logger() *slog.Logger {
	return slog.Default().With(slog.String("connector", c.name))
}

// String implements fmt.Stringer.
func (c *Connector) String() string {
	return fmt.Sprintf("%s(%s)", c.typ.name, c.name)
}
