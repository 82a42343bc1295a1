package dynamic

import "encoding/json"

// Optional is a Value that may be absent. An omitted JSON key decodes to the
// zero Optional, while an explicit null decodes to Some(Null()).
type Optional struct {
	value   Value
	present bool
}

// Some wraps v as a present Optional.
func Some(v Value) Optional {
	return Optional{value: v.Clone(), present: true}
}

// None returns an absent Optional.
func None() Optional { return Optional{} }

// Get returns the wrapped value and whether one is present.
func (o Optional) Get() (Value, bool) { return o.value, o.present }

// IsPresent reports whether a value, possibly Null, was supplied.
func (o Optional) IsPresent() bool { return o.present }

// IsZero reports whether o is absent. It lets `omitzero` drop absent fields.
func (o Optional) IsZero() bool { return !o.present }

// Clone returns a deep copy of o.
func (o Optional) Clone() Optional {
	if !o.present {
		return Optional{}
	}
	return Optional{value: o.value.Clone(), present: true}
}

// Equal reports whether o and other are both absent or hold equal values.
func (o Optional) Equal(other Optional) bool {
	if o.present != other.present {
		return false
	}
	return !o.present || o.value.Equal(other.value)
}

// UnmarshalJSON implements json.Unmarshaler. encoding/json only calls it when
// the key is present, including for a literal null.
func (o *Optional) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*o = Optional{value: v, present: true}
	return nil
}

// MarshalJSON implements json.Marshaler. An absent Optional encodes as null
// when it is not dropped by `omitzero`.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
