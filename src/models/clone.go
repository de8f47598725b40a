package models

// Deep copy and structural equality for the document tree. The store
// hands out copies only, so every nested pointer has to be duplicated
// here, never aliased.

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	if f == nil {
		return nil
	}

	out := *f
	if f.Classes != nil {
		out.Classes = make([]Class, len(f.Classes))
		for i := range f.Classes {
			out.Classes[i] = f.Classes[i].clone()
		}
	}

	return &out
}

func (c Class) clone() Class {
	out := c

	if c.Attributes != nil {
		out.Attributes = make([]Variable, len(c.Attributes))
		for i := range c.Attributes {
			out.Attributes[i] = c.Attributes[i].clone()
		}
	}

	if c.Methods != nil {
		out.Methods = make([]Method, len(c.Methods))
		for i := range c.Methods {
			out.Methods[i] = c.Methods[i].clone()
		}
	}

	if c.Relations != nil {
		out.Relations = make([]RelationInfo, len(c.Relations))
		for i := range c.Relations {
			out.Relations[i] = c.Relations[i].clone()
		}
	}

	return out
}

func (v Variable) clone() Variable {
	out := v
	out.Visibility = cloneptr(v.Visibility)
	out.IsStatic = cloneptr(v.IsStatic)

	return out
}

func (m Method) clone() Method {
	out := m
	out.IsAbstract = cloneptr(m.IsAbstract)
	out.IsStatic = cloneptr(m.IsStatic)

	if m.Parameters != nil {
		out.Parameters = make([]Variable, len(m.Parameters))
		for i := range m.Parameters {
			out.Parameters[i] = m.Parameters[i].clone()
		}
	}

	return out
}

func (r RelationInfo) clone() RelationInfo {
	out := r

	if r.MultiplicityP != nil {
		m := *r.MultiplicityP
		m.Upper = cloneptr(r.MultiplicityP.Upper)
		out.MultiplicityP = &m
	}

	if r.MultiplicityC != nil {
		m := *r.MultiplicityC
		m.Upper = cloneptr(r.MultiplicityC.Upper)
		out.MultiplicityC = &m
	}

	out.RoleNameP = cloneptr(r.RoleNameP)
	out.RoleNameC = cloneptr(r.RoleNameC)

	return out
}

func cloneptr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// Equal reports structural equality. The required sequences (classes,
// attributes, methods, parameters) compare nil equal to empty because
// the codecs do not distinguish them; optional fields compare presence
// first, then value.
func (f *File) Equal(other *File) bool {
	if f == nil || other == nil {
		return f == other
	}

	if f.FileID != other.FileID || f.Name != other.Name ||
		f.CreatedAt != other.CreatedAt || f.LastModified != other.LastModified {
		return false
	}

	if len(f.Classes) != len(other.Classes) {
		return false
	}

	for i := range f.Classes {
		if !f.Classes[i].equal(other.Classes[i]) {
			return false
		}
	}

	return true
}

func (c Class) equal(other Class) bool {
	if c.ID != other.ID || c.Name != other.Name {
		return false
	}

	if len(c.Attributes) != len(other.Attributes) {
		return false
	}

	for i := range c.Attributes {
		if !c.Attributes[i].equal(other.Attributes[i]) {
			return false
		}
	}

	if len(c.Methods) != len(other.Methods) {
		return false
	}

	for i := range c.Methods {
		if !c.Methods[i].equal(other.Methods[i]) {
			return false
		}
	}

	// Relations is optional: presence matters.
	if (c.Relations == nil) != (other.Relations == nil) {
		return false
	}

	if len(c.Relations) != len(other.Relations) {
		return false
	}

	for i := range c.Relations {
		if !c.Relations[i].equal(other.Relations[i]) {
			return false
		}
	}

	return true
}

func (v Variable) equal(other Variable) bool {
	return v.Name == other.Name && v.Type == other.Type &&
		ptreq(v.Visibility, other.Visibility) &&
		ptreq(v.IsStatic, other.IsStatic)
}

func (m Method) equal(other Method) bool {
	if m.Name != other.Name || m.ReturnType != other.ReturnType ||
		m.Visibility != other.Visibility {
		return false
	}

	if !ptreq(m.IsAbstract, other.IsAbstract) || !ptreq(m.IsStatic, other.IsStatic) {
		return false
	}

	if len(m.Parameters) != len(other.Parameters) {
		return false
	}

	for i := range m.Parameters {
		if !m.Parameters[i].equal(other.Parameters[i]) {
			return false
		}
	}

	return true
}

func (r RelationInfo) equal(other RelationInfo) bool {
	if r.TargetClassID != other.TargetClassID || r.Relation != other.Relation {
		return false
	}

	if !r.MultiplicityP.equal(other.MultiplicityP) || !r.MultiplicityC.equal(other.MultiplicityC) {
		return false
	}

	return ptreq(r.RoleNameP, other.RoleNameP) && ptreq(r.RoleNameC, other.RoleNameC)
}

func (m *Multiplicity) equal(other *Multiplicity) bool {
	if m == nil || other == nil {
		return m == other
	}

	return m.Lower == other.Lower && ptreq(m.Upper, other.Upper)
}

func ptreq[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
