package types

// FieldResolver supplies external custom-field values by identifier.
// Implementations must be synchronous and side-effect free; hosts with
// asynchronous sources resolve first and hand over a FieldValues snapshot.
type FieldResolver interface {
	ResolveFieldValue(fieldID string) (string, bool)
}

// FieldResolverFunc adapts a function to FieldResolver.
type FieldResolverFunc func(fieldID string) (string, bool)

// ResolveFieldValue implements FieldResolver.
func (f FieldResolverFunc) ResolveFieldValue(fieldID string) (string, bool) {
	return f(fieldID)
}

// FieldValues is a resolved snapshot of field values.
type FieldValues map[string]string

// ResolveFieldValue implements FieldResolver.
func (v FieldValues) ResolveFieldValue(fieldID string) (string, bool) {
	val, ok := v[fieldID]
	return val, ok
}

// FieldValue is a resolved field: Found is false when the provider had no
// value, which callers treat as the empty string.
type FieldValue struct {
	Value string
	Found bool
}

// RenderingContext is supplied by the host per evaluation and never modified.
type RenderingContext struct {
	Viewport        Breakpoint
	IsAuthenticated bool
	Fields          FieldResolver // nil means no provider
}

// Resolve looks fieldID up through the context's resolver.
func (c RenderingContext) Resolve(fieldID string) FieldValue {
	if c.Fields == nil {
		return FieldValue{}
	}
	val, ok := c.Fields.ResolveFieldValue(fieldID)
	return FieldValue{Value: val, Found: ok}
}
