package profile

// Merge overlays generated onto existing one level deep: each top-level key of
// generated replaces the same key of existing in full, and keys only existing
// has are kept untouched. Nested values are never combined, so anything inside
// a replaced key (for example extra fields of a configs.files entry) is lost.
// Neither input is modified.
func Merge(existing, generated *Value) *Value {
	out := existing.Mapping().Clone()
	gen := generated.Mapping()
	for _, k := range gen.Keys() {
		v, _ := gen.Get(k)
		out.Set(k, v.Clone())
	}
	return Map(out)
}

// MergeDocument overlays a generated document onto the previously persisted
// tree. Builder-owned keys the generated document leaves out (overrides when
// paper-global is excluded) are removed rather than carried forward, so they
// always match the current editor state.
func MergeDocument(existing *Value, generated *Document) *Value {
	gen := generated.Tree()
	merged := Merge(existing, gen)
	for _, k := range OwnedKeys {
		if _, ok := gen.Mapping().Get(k); !ok {
			merged.Mapping().Delete(k)
		}
	}
	return merged
}

// Regenerate runs build, merge and serialize in one step.
func Regenerate(existing *Value, in BuildInput) (string, error) {
	doc, err := Build(in)
	if err != nil {
		return "", err
	}
	return Serialize(MergeDocument(existing, doc))
}
