package output

// Field is one candidate key/value pair for WriteConditionalObject. A
// Field with Present false is skipped entirely: neither its key nor its
// value is written, and it does not count toward the object's declared
// length. Write is called only for Present fields, after the object's
// header (with the already-known final length) has been started.
type Field struct {
	Key     string
	Present bool
	Write   func(w *Writer) WriteResult
}

// WriteConditionalObject implements the "ergonomic null-field omission"
// path from the SUPPLEMENTED feature grounded on original_source's
// null_fields.rs: unlike a naive writer that emits every field including
// `null` for absent optional ones, this counts the present fields first,
// declares the object with that length, and writes only those fields.
// No new writer-core state is introduced; this is a thin helper over the
// existing Writer calls, mirroring how null_fields.rs's ergonomic writer
// defers write_object_with_conditional_fields until the field list is
// known.
func WriteConditionalObject(w *Writer, fields []Field) WriteResult {
	length := 0
	for _, f := range fields {
		if f.Present {
			length++
		}
	}
	if r := w.StartObject(length); r != Ok {
		return r
	}
	for _, f := range fields {
		if !f.Present {
			continue
		}
		r, dst := w.AllocateUTF8Str(len(f.Key))
		if r != Ok {
			return r
		}
		copy(dst, f.Key)
		if r := f.Write(w); r != Ok {
			return r
		}
	}
	return w.FinishObject()
}
