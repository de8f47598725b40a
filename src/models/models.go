package models

// Visibility is the access modifier attached to variables and methods.
// The zero value is NonModifier so an unset modifier decodes to the
// documented default.
type Visibility int32

const (
	VisibilityNonModifier Visibility = 0
	VisibilityPublic      Visibility = 1
	VisibilityPrivate     Visibility = 2
	VisibilityProtected   Visibility = 3
)

// Relation is the kind of edge between two classes in a diagram.
// The zero value is RelationNone.
type Relation int32

const (
	RelationNone           Relation = 0
	RelationInheritance    Relation = 1
	RelationImplementation Relation = 2
	RelationAssociation    Relation = 3
	RelationAggregation    Relation = 4
	RelationComposition    Relation = 5
)

// File is a single class-diagram document. It is the unit of storage:
// a save replaces the whole File, nested entities have no independent
// lifecycle.
type File struct {
	// FileID is the unique identifier for the document. It is the
	// storage key and is never changed after the first save.
	FileID string `bson:"file_id"`

	// Name is the display name of the diagram.
	Name string `bson:"name"`

	// CreatedAt and LastModified are caller-supplied integer
	// timestamps. The store never interprets them.
	CreatedAt    int64 `bson:"created_at"`
	LastModified int64 `bson:"last_modified"`

	// Classes is the ordered list of class definitions.
	Classes []Class `bson:"classes"`
}

// Class is one class box in the diagram. ID uniqueness within a File is
// the caller's responsibility, the store does not enforce it.
type Class struct {
	ID   string `bson:"id"`
	Name string `bson:"name"`

	Attributes []Variable `bson:"attributes"`
	Methods    []Method   `bson:"methods"`

	// Relations is nil when the document carries no relation list at
	// all. nil encodes as null, present-but-empty as an empty array.
	Relations []RelationInfo `bson:"relations"`
}

// Variable is an attribute or a method parameter.
type Variable struct {
	Name string `bson:"name"`
	Type string `bson:"type"`

	// Visibility is nil when the modifier was absent. Readers treat
	// nil as NonModifier; the codecs keep the absence.
	Visibility *Visibility `bson:"visibility,omitempty"`

	// IsStatic is tri-state: nil means the flag was never set, which
	// is not the same as false.
	IsStatic *bool `bson:"is_static,omitempty"`
}

// Method is an operation on a class.
type Method struct {
	Name       string     `bson:"name"`
	ReturnType string     `bson:"return_type"`
	Visibility Visibility `bson:"visibility"`

	IsAbstract *bool `bson:"is_abstract,omitempty"`
	IsStatic   *bool `bson:"is_static,omitempty"`

	Parameters []Variable `bson:"parameters"`
}

// RelationInfo is one edge from its owning class to TargetClassID.
// The P/C suffixes are the parent and child ends of the edge.
type RelationInfo struct {
	TargetClassID string   `bson:"target_class_id"`
	Relation      Relation `bson:"relation"`

	MultiplicityP *Multiplicity `bson:"multiplicity_p,omitempty"`
	MultiplicityC *Multiplicity `bson:"multiplicity_c,omitempty"`

	RoleNameP *string `bson:"role_name_p,omitempty"`
	RoleNameC *string `bson:"role_name_c,omitempty"`
}

// Multiplicity is a lower..upper cardinality. A nil Upper means
// unbounded.
type Multiplicity struct {
	Lower uint32  `bson:"lower"`
	Upper *uint32 `bson:"upper,omitempty"`
}

// Result is the plain outcome returned by the save/exists/delete RPC
// operations.
type Result struct {
	Value   bool   `bson:"value"`
	Message string `bson:"message"`
}
