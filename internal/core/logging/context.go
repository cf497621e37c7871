package logging

import "context"

type fieldsKey struct{}

// field is one key/value pair carried on a context for the log hook.
type field struct {
	key   string
	value string
}

// Annotate returns a context carrying extra log fields, given as key/value
// pairs. A trailing key without a value is ignored. Fields set on a parent
// context are kept; a repeated key is emitted once with its newest value.
func Annotate(ctx context.Context, kv ...string) context.Context {
	if len(kv) < 2 {
		return ctx
	}

	parent := fieldsFrom(ctx)
	fields := make([]field, 0, len(parent)+len(kv)/2)
	fields = append(fields, parent...)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = upsert(fields, field{key: kv[i], value: kv[i+1]})
	}
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// Value returns the annotated value for key, or "".
func Value(ctx context.Context, key string) string {
	for _, f := range fieldsFrom(ctx) {
		if f.key == key {
			return f.value
		}
	}
	return ""
}

func fieldsFrom(ctx context.Context) []field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]field)
	return fields
}

func upsert(fields []field, f field) []field {
	for i := range fields {
		if fields[i].key == f.key {
			fields[i] = f
			return fields
		}
	}
	return append(fields, f)
}
