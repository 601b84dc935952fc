package model

// Clone returns a deep copy, so renderers can apply submitted values or
// subsets without touching the session's form.
func (f FormDescription) Clone() FormDescription {
	out := f
	out.Metadata = cloneStrings(f.Metadata)
	if f.Sections != nil {
		out.Sections = make([]Section, len(f.Sections))
		for i, s := range f.Sections {
			out.Sections[i] = s
			if s.Fields != nil {
				out.Sections[i].Fields = make([]Field, len(s.Fields))
				for j, field := range s.Fields {
					out.Sections[i].Fields[j] = field.Clone()
				}
			}
		}
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	out.Options = cloneOptions(f.Options)
	out.Initial = cloneList(f.Initial)
	out.Metadata = cloneStrings(f.Metadata)
	if f.Group != nil {
		g := f.Group.Clone()
		out.Group = &g
	}
	return out
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	out := g
	out.QualifierMap = g.QualifierMap.Clone()
	if g.Qualifiers != nil {
		out.Qualifiers = make([]Qualifier, len(g.Qualifiers))
		for i, q := range g.Qualifiers {
			q.Options = cloneOptions(q.Options)
			out.Qualifiers[i] = q
		}
	}
	if g.Entries != nil {
		out.Entries = make([]GroupEntry, len(g.Entries))
		for i, e := range g.Entries {
			e.Qualifiers = cloneStrings(e.Qualifiers)
			e.Revealed = cloneList(e.Revealed)
			out.Entries[i] = e
		}
	}
	if g.ValueTypes != nil {
		out.ValueTypes = make(map[string][]string, len(g.ValueTypes))
		for k, v := range g.ValueTypes {
			out.ValueTypes[k] = cloneList(v)
		}
	}
	return out
}

func cloneOptions(in []Option) []Option {
	if in == nil {
		return nil
	}
	out := make([]Option, len(in))
	for i, o := range in {
		o.Types = cloneList(o.Types)
		out[i] = o
	}
	return out
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
