package ecssnapshot

import "reflect"

// newOfType returns a pointer to a freshly allocated zero value of t,
// suitable as the target of json.Unmarshal.
func newOfType(t reflect.Type) any {
	return reflect.New(t).Interface()
}

// derefValue returns the value pointed to by ptr (as produced by
// newOfType), boxed back into an any — the concrete payload type a
// Kind's registered Go type expects, not a pointer to it.
func derefValue(ptr any) any {
	return reflect.ValueOf(ptr).Elem().Interface()
}
