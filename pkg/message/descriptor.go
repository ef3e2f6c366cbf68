package message

// PropertyDescriptor declares one field of a message class schema:
// name, whether it is required, and an optional default. Default may be
// a concrete value or a zero-arg producer evaluated at construction time
// (for values like timestamps that must differ per instance).
type PropertyDescriptor struct {
	Name        string
	Required    bool
	Default     interface{}
	DefaultFunc func() interface{}
	Description string
}

// resolveDefault returns the property's default value, invoking
// DefaultFunc if set.
func (p PropertyDescriptor) resolveDefault() (interface{}, bool) {
	if p.DefaultFunc != nil {
		return p.DefaultFunc(), true
	}
	if p.Default != nil {
		return p.Default, true
	}
	return nil, false
}

// ClassDescriptor is the design-time schema for a message class: its
// ordered properties and the class-level header/transport defaults
// applied to every instance at construction.
type ClassDescriptor struct {
	Name       string
	Version    int
	Properties []PropertyDescriptor

	DefaultFrom       string
	DefaultTo         string
	DefaultReplyTo    string
	DefaultTransport  string
	DefaultSerializer string
}

// PropertyNames returns the declared property names in declaration order.
func (d *ClassDescriptor) PropertyNames() []string {
	names := make([]string, len(d.Properties))
	for i, p := range d.Properties {
		names[i] = p.Name
	}
	return names
}

// Property looks up a property descriptor by name.
func (d *ClassDescriptor) Property(name string) (PropertyDescriptor, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}
