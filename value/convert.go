package value

// Of build a value from a plain Go datum, the shapes produced by JSON
// and YAML decoding included. Unknown types yield a nil value.
func Of(raw interface{}) *Value {
	switch v := raw.(type) {
	case nil:
		return Nil()
	case *Value:
		return v
	case bool:
		return Bool(v)
	case int:
		return Sint(int64(v))
	case int8:
		return Sint(int64(v))
	case int16:
		return Sint(int64(v))
	case int32:
		return Sint(int64(v))
	case int64:
		return Sint(v)
	case uint:
		return Uint(uint64(v))
	case uint8:
		return Uint(uint64(v))
	case uint16:
		return Uint(uint64(v))
	case uint32:
		return Uint(uint64(v))
	case uint64:
		return Uint(v)
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case string:
		return String(v)
	case []byte:
		return Bytes(v)
	case []interface{}:
		items := make([]*Value, 0, len(v))
		for _, item := range v {
			items = append(items, Of(item))
		}
		return List(items...)
	case map[string]interface{}:
		entries := map[string]*Value{}
		for key, entry := range v {
			entries[key] = Of(entry)
		}
		return Table(entries)
	}
	return Nil()
}

// Export the value as a plain Go datum, suitable for JSON encoding.
// Functions, weak references and wrappers have no plain representation
// and export as nil.
func (v *Value) Export() interface{} {
	if v == nil {
		return nil
	}

	switch v.kind {
	case KindNil:
		return nil
	case KindBool:
		return v.Boolean()
	case KindSint:
		return v.Int64()
	case KindUint:
		return v.Uint64()
	case KindFloat:
		return v.Float64()
	case KindString:
		return v.Text()
	case KindBytes:
		return v.Buffer()
	case KindList:
		items := []interface{}{}
		for _, item := range v.Items() {
			items = append(items, item.Export())
		}
		return items
	case KindTable:
		entries := map[string]interface{}{}
		for key, entry := range v.Entries() {
			entries[key] = entry.Export()
		}
		return entries
	}
	return nil
}
