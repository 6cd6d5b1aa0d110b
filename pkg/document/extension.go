package document

import (
	"fmt"

	"github.com/calvinalkan/markmeta/pkg/structval"
)

// Section is the capability contract for types that store data in a
// document's extension area. Implementations must be value types whose
// ExtensionKey is callable on the zero value.
//
// The key must be non-empty, unique among all sections used together in
// one document, and must never change once data has been written under
// it — changing it silently orphans previously stored data. Neither
// obligation is checked at runtime; colliding keys resolve last write
// wins.
type Section interface {
	ExtensionKey() string
}

// Key returns the extension namespace key of T.
func Key[T Section]() string {
	var zero T

	return zero.ExtensionKey()
}

// Get looks up T's section in the record. An absent section returns
// ok=false with a nil error. A present section is decoded via the
// structured value box; a decode failure propagates as-is with ok=true,
// so a malformed section is never reported as "not present".
func Get[T Section](r *Record) (T, bool, error) {
	var zero T

	key := Key[T]()

	val, ok := r.Extensions[key]
	if !ok {
		return zero, false, nil
	}

	out, err := structval.ToTyped[T](val)
	if err != nil {
		return zero, true, fmt.Errorf("extension %q: %w", key, err)
	}

	return out, true, nil
}

// Set converts v to its structured value form and unconditionally
// overwrites T's entry in the extension map. There is no merge with a
// prior value's fields; partial update is the caller's responsibility
// via read-modify-write. No other record field is touched.
func Set[T Section](r *Record, v T) error {
	key := Key[T]()

	val, err := structval.FromTyped(v)
	if err != nil {
		return fmt.Errorf("extension %q: %w", key, err)
	}

	if r.Extensions == nil {
		r.Extensions = make(map[string]structval.Value)
	}

	r.Extensions[key] = val

	return nil
}

// Has reports whether T's section is present. It never decodes and
// never fails.
func Has[T Section](r *Record) bool {
	_, ok := r.Extensions[Key[T]()]

	return ok
}

// Remove drops T's section from the record, if present.
func Remove[T Section](r *Record) {
	delete(r.Extensions, Key[T]())
}
