package router

// Spec is the data-model's specification interface: something a payload can
// be checked against (IsOrExtends another Spec) and tested for
// (ProvidedBy a value).
type Spec interface {
	IsOrExtends(other Spec) bool
	ProvidedBy(x any) bool
}

// routedSpec is Routed(S): a specification parameterized by an inner spec,
// satisfied only by To envelopes whose payload satisfies the inner spec (or
// by any To envelope at all, if inner is nil).
type routedSpec struct {
	inner Spec
}

// Routed builds the Routed(inner) specification described in spec.md §3.
// Pass nil to match any To envelope regardless of payload.
func Routed(inner Spec) Spec {
	return routedSpec{inner: inner}
}

// IsOrExtends reports whether this Routed(S) is compatible with other: true
// iff other is also a Routed(S') and S is-or-extends S' (or both inner
// specs are nil/absent).
func (r routedSpec) IsOrExtends(other Spec) bool {
	o, ok := other.(routedSpec)
	if !ok {
		return false
	}
	if r.inner == nil {
		return o.inner == nil
	}
	if o.inner == nil {
		return false
	}
	return r.inner.IsOrExtends(o.inner)
}

// ProvidedBy reports whether x is a To envelope whose payload provides the
// inner spec (or simply whether x is a To envelope at all, if this Routed
// has no inner spec).
func (r routedSpec) ProvidedBy(x any) bool {
	env, ok := x.(To)
	if !ok {
		return false
	}
	if r.inner == nil {
		return true
	}
	return r.inner.ProvidedBy(env.What)
}
