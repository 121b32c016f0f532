package tunekit

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tunekit/tunekit/pkg/tunekit/event"
	"github.com/tunekit/tunekit/pkg/tunekit/registry"
)

// ConnectorType is the frozen definition of a kind of connector: its
// metadata and its ordered event handler registry. Types are declared
// once at program initialization with NewConnectorType, populated with
// handler declarations, and sealed by registration. After registration
// the handler registry never changes, so it is safe for unsynchronized
// concurrent reads during dispatch.
type ConnectorType struct {
	name        string
	displayName string
	version     string
	description string
	pkgPath     string
	base        *ConnectorType

	// handlers declared directly on this type, in declaration order.
	declared []*Handler

	// full registry: base registry followed by declared handlers.
	// Computed at registration time.
	handlers []*Handler

	frozen bool
}

// TypeOption configures a connector type declaration.
type TypeOption func(*ConnectorType)

// Extends inherits the handler registry of base. The base type's
// handlers precede handlers declared on the new type, and base must be
// registered before the extending type is.
func Extends(base *ConnectorType) TypeOption {
	return func(t *ConnectorType) {
		t.base = base
	}
}

// WithVersion sets the semantic version string of the connector type.
func WithVersion(version string) TypeOption {
	return func(t *ConnectorType) {
		t.version = version
	}
}

// WithDescription sets the textual description of the connector type.
func WithDescription(description string) TypeOption {
	return func(t *ConnectorType) {
		t.description = description
	}
}

// WithDisplayName sets the human-readable display name. Defaults to the
// type name with the Connector suffix separated ("MeasureConnector" ->
// "Measure Connector").
func WithDisplayName(name string) TypeOption {
	return func(t *ConnectorType) {
		t.displayName = name
	}
}

// WithPackagePath sets the package path used for fully qualified
// resolution through the type registry (e.g.
// "github.com/acme/connectors" qualifies MeasureConnector as
// "github.com/acme/connectors.MeasureConnector").
func WithPackagePath(path string) TypeOption {
	return func(t *ConnectorType) {
		t.pkgPath = path
	}
}

// NewConnectorType starts the declaration of a connector type. The name
// must be non-empty and unique across the process.
func NewConnectorType(name string, opts ...TypeOption) *ConnectorType {
	if name == "" {
		panic("tunekit: connector type name is required")
	}
	t := &ConnectorType{
		name:    name,
		version: "0.0.0",
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.displayName == "" {
		t.displayName = strings.TrimSuffix(name, "Connector") + " Connector"
	}
	return t
}

// Name returns the unique type name.
func (t *ConnectorType) Name() string { return t.name }

// DisplayName returns the human-readable name of the type.
func (t *ConnectorType) DisplayName() string { return t.displayName }

// Version returns the semantic version string of the type.
func (t *ConnectorType) Version() string { return t.version }

// Description returns the textual description of the type.
func (t *ConnectorType) Description() string { return t.description }

// Base returns the extended base type, or nil.
func (t *ConnectorType) Base() *ConnectorType { return t.base }

// DefaultName returns the type-derived default connector identifier: the
// type name with a trailing "Connector" stripped, rendered in
// lower_snake_case ("KubeMetricsConnector" -> "kube_metrics").
func (t *ConnectorType) DefaultName() string {
	return toSnake(strings.TrimSuffix(t.name, "Connector"))
}

// QualifiedName returns the fully qualified type path, or just the type
// name when no package path was declared.
func (t *ConnectorType) QualifiedName() string {
	if t.pkgPath == "" {
		return t.name
	}
	return t.pkgPath + "." + t.name
}

// Handle declares a handler for the named event at an exact preposition.
// Declarations are only legal before the type is registered; declaring a
// handler on a frozen type panics, as does an empty event name, a nil
// function, or a combined preposition. These are programming errors in
// connector authoring, surfaced fatally at initialization.
func (t *ConnectorType) Handle(name string, preposition event.Preposition, fn HandlerFunc, opts ...HandlerOption) *ConnectorType {
	if t.frozen {
		panic(fmt.Sprintf("tunekit: %s: %v", t.name, ErrTypeFrozen))
	}
	if name == "" {
		panic(fmt.Sprintf("tunekit: %s: handler event name is required", t.name))
	}
	if fn == nil {
		panic(fmt.Sprintf("tunekit: %s: handler for %q is nil", t.name, name))
	}
	if !preposition.IsExact() {
		panic(fmt.Sprintf("tunekit: %s: handler for %q requires exactly one preposition, got %s", t.name, name, preposition))
	}

	h := &Handler{
		event:       event.Get(name),
		preposition: preposition,
		fn:          fn,
		owner:       t,
	}
	for _, opt := range opts {
		opt(h)
	}
	t.declared = append(t.declared, h)
	return t
}

// BeforeEvent declares a Before handler for the named event.
func (t *ConnectorType) BeforeEvent(name string, fn HandlerFunc, opts ...HandlerOption) *ConnectorType {
	return t.Handle(name, event.Before, fn, opts...)
}

// OnEvent declares an On handler for the named event.
func (t *ConnectorType) OnEvent(name string, fn HandlerFunc, opts ...HandlerOption) *ConnectorType {
	return t.Handle(name, event.On, fn, opts...)
}

// AfterEvent declares an After handler for the named event.
func (t *ConnectorType) AfterEvent(name string, fn HandlerFunc, opts ...HandlerOption) *ConnectorType {
	return t.Handle(name, event.After, fn, opts...)
}

// RespondsTo reports whether the type has any handler for the event at
// any preposition. Valid after registration.
func (t *ConnectorType) RespondsTo(ev *event.Event) bool {
	for _, h := range t.handlers {
		if h.event == ev {
			return true
		}
	}
	return false
}

// EventHandlers returns the handlers matching the event and exact
// preposition, in registry order. The order is stable across calls:
// inherited handlers first, then handlers declared on the type itself,
// each in declaration order.
func (t *ConnectorType) EventHandlers(ev *event.Event, preposition event.Preposition) []*Handler {
	var matched []*Handler
	for _, h := range t.handlers {
		if h.event == ev && h.preposition == preposition {
			matched = append(matched, h)
		}
	}
	return matched
}

// Handlers returns the full handler registry in order.
func (t *ConnectorType) Handlers() []*Handler {
	handlers := make([]*Handler, len(t.handlers))
	copy(handlers, t.handlers)
	return handlers
}

// typeCatalog maps resolvable identifiers to registered values. Entries
// are written during initialization only.
var typeCatalog = registry.New[string, any]()

// RegisterType seals the type's handler registry and registers it for
// resolution by exact name, default identifier, and qualified path.
// The base type, if any, must be registered first so that its registry
// is already computed.
func RegisterType(t *ConnectorType) error {
	if t.frozen {
		return fmt.Errorf("tunekit: %s: %w", t.name, ErrTypeRegistered)
	}
	if t.base != nil && !t.base.frozen {
		return fmt.Errorf("tunekit: %s: base type %s must be registered first", t.name, t.base.name)
	}
	// Every identifier the type resolves under must be free, or a later
	// registration would silently re-point an earlier type's resolution.
	for _, id := range t.identifiers() {
		if typeCatalog.Has(id) {
			return fmt.Errorf("tunekit: %s: identifier %q taken: %w", t.name, id, ErrTypeRegistered)
		}
	}

	// Inherited handlers precede the type's own declarations.
	if t.base != nil {
		t.handlers = append(t.handlers, t.base.handlers...)
	}
	t.handlers = append(t.handlers, t.declared...)
	t.frozen = true

	for _, id := range t.identifiers() {
		typeCatalog.Register(id, t)
	}
	return nil
}

// identifiers returns the catalog keys the type resolves under: exact
// name, default identifier, and qualified path, deduplicated.
func (t *ConnectorType) identifiers() []string {
	ids := []string{t.name}
	if dn := t.DefaultName(); dn != t.name {
		ids = append(ids, dn)
	}
	if q := t.QualifiedName(); q != t.name && q != t.DefaultName() {
		ids = append(ids, q)
	}
	return ids
}

// MustRegisterType registers the type, panicking on error. Intended for
// package init blocks where registration failure is a programming error.
func MustRegisterType(t *ConnectorType) *ConnectorType {
	if err := RegisterType(t); err != nil {
		panic(err)
	}
	return t
}

// LookupType resolves a connector type by exact type name, default
// identifier, or fully qualified path.
func LookupType(name string) (*ConnectorType, error) {
	v, ok := typeCatalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("tunekit: %q: %w", name, ErrTypeNotFound)
	}
	return Resolve(v)
}

// Resolve validates that a registered or externally supplied symbol is a
// connector type.
func Resolve(v any) (*ConnectorType, error) {
	t, ok := v.(*ConnectorType)
	if !ok {
		return nil, fmt.Errorf("tunekit: %T: %w", v, ErrNotConnectorType)
	}
	return t, nil
}

// TypeNames returns the exact names of all registered connector types in
// lexical order. Aliases (default identifiers, qualified paths) are not
// included.
func TypeNames() []string {
	var names []string
	typeCatalog.Range(func(key string, v any) bool {
		if t, ok := v.(*ConnectorType); ok && t.name == key {
			names = append(names, key)
		}
		return true
	})
	sort.Strings(names)
	return names
}

// toSnake converts CamelCase to lower_snake_case. Acronym runs stay
// together: "HTTPProbe" becomes "http_probe".
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := !unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
