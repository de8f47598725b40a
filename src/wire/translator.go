package wire

// Translation between the JSON document representation used by the
// HTTP proxy and the in-memory model. Accesses are safely defaulted
// throughout: missing strings become "", missing numbers become 0,
// missing arrays become empty, and unknown enum strings silently fall
// back to their documented defaults. A nested entry that is not an
// object is dropped from its containing list instead of failing the
// whole conversion.

import (
	"diagramdb/src/models"
)

// Visibility and relation vocabularies. Matching is case-sensitive.
const (
	visPublic      = "PUBLIC"
	visPrivate     = "PRIVATE"
	visProtected   = "PROTECTED"
	visNonModifier = "NON_MODIFIER"

	relNone           = "NONE"
	relInheritance    = "INHERITANCE"
	relImplementation = "IMPLEMENTATION"
	relAssociation    = "ASSOCIATION"
	relAggregation    = "AGGREGATION"
	relComposition    = "COMPOSITION"
)

// FileFromJSON converts a decoded JSON object into a File. It never
// fails: every field defaults when missing or malformed.
func FileFromJSON(obj map[string]any) *models.File {
	file := &models.File{
		FileID:       getString(getObject(obj, "file_id"), "id"),
		Name:         getString(obj, "name"),
		CreatedAt:    getInt(obj, "created_at"),
		LastModified: getInt(obj, "last_modified"),
		Classes:      []models.Class{},
	}

	for _, entry := range getArray(obj, "classes") {
		class, ok := entry.(map[string]any)
		if !ok {
			continue // malformed entries are dropped, not fatal
		}

		file.Classes = append(file.Classes, classFromJSON(class))
	}

	return file
}

func classFromJSON(obj map[string]any) models.Class {
	class := models.Class{
		ID:         getString(obj, "id"),
		Name:       getString(obj, "name"),
		Attributes: []models.Variable{},
		Methods:    []models.Method{},
	}

	for _, entry := range getArray(obj, "attributes") {
		attr, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		class.Attributes = append(class.Attributes, variableFromJSON(attr))
	}

	for _, entry := range getArray(obj, "methods") {
		method, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		class.Methods = append(class.Methods, methodFromJSON(method))
	}

	// Relations stay absent unless the document carries the nested
	// relation_infos list. A relations object without that list is
	// still absence, not an empty list.
	if relations := getObject(obj, "relations"); relations != nil {
		if entries, ok := relations["relation_infos"].([]any); ok {
			infos := []models.RelationInfo{}
			for _, entry := range entries {
				rel, ok := entry.(map[string]any)
				if !ok {
					continue
				}

				infos = append(infos, relationFromJSON(rel))
			}

			class.Relations = infos
		}
	}

	return class
}

func variableFromJSON(obj map[string]any) models.Variable {
	variable := models.Variable{
		Name: getString(obj, "name"),
		Type: getString(obj, "type"),
	}

	// The visibility pointer is only set when the key is present; an
	// unrecognized value still sets it, to the default code.
	if raw, ok := obj["visibility"].(string); ok {
		vis := visibilityFromString(raw)
		variable.Visibility = &vis
	}

	if isStatic, ok := obj["is_static"].(bool); ok {
		variable.IsStatic = &isStatic
	}

	return variable
}

func methodFromJSON(obj map[string]any) models.Method {
	method := models.Method{
		Name:       getString(obj, "name"),
		ReturnType: getString(obj, "return_type"),
		Visibility: models.VisibilityNonModifier,
		Parameters: []models.Variable{},
	}

	if raw, ok := obj["visibility"].(string); ok {
		method.Visibility = visibilityFromString(raw)
	}

	if isAbstract, ok := obj["is_abstract"].(bool); ok {
		method.IsAbstract = &isAbstract
	}

	if isStatic, ok := obj["is_static"].(bool); ok {
		method.IsStatic = &isStatic
	}

	for _, entry := range getArray(obj, "parameters") {
		param, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		method.Parameters = append(method.Parameters, variableFromJSON(param))
	}

	return method
}

func relationFromJSON(obj map[string]any) models.RelationInfo {
	rel := models.RelationInfo{
		TargetClassID: getString(obj, "target_class_id"),
		Relation:      relationFromString(getString(obj, "relation")),
	}

	if m := getObject(obj, "multiplicity_p"); m != nil {
		rel.MultiplicityP = multiplicityFromJSON(m)
	}

	if m := getObject(obj, "multiplicity_c"); m != nil {
		rel.MultiplicityC = multiplicityFromJSON(m)
	}

	if role, ok := obj["role_name_p"].(string); ok {
		rel.RoleNameP = &role
	}

	if role, ok := obj["role_name_c"].(string); ok {
		rel.RoleNameC = &role
	}

	return rel
}

func multiplicityFromJSON(obj map[string]any) *models.Multiplicity {
	m := &models.Multiplicity{}

	// Negative bounds are invalid, not wrap-around: lower falls back
	// to 0 and upper stays absent.
	if lower, ok := asInt(obj["lower"]); ok && lower >= 0 {
		m.Lower = uint32(lower)
	}

	if upper, ok := asInt(obj["upper"]); ok && upper >= 0 {
		u := uint32(upper)
		m.Upper = &u
	}

	return m
}

// FileToJSON is the structural inverse of FileFromJSON. Enum codes
// come back as their canonical uppercase names; absent optional fields
// come back as JSON null, never as a false/zero default.
func FileToJSON(file *models.File) map[string]any {
	classes := make([]any, 0, len(file.Classes))
	for i := range file.Classes {
		classes = append(classes, classToJSON(&file.Classes[i]))
	}

	return map[string]any{
		"file_id":       map[string]any{"id": file.FileID},
		"name":          file.Name,
		"created_at":    file.CreatedAt,
		"last_modified": file.LastModified,
		"classes":       classes,
	}
}

func classToJSON(class *models.Class) map[string]any {
	attributes := make([]any, 0, len(class.Attributes))
	for i := range class.Attributes {
		attributes = append(attributes, variableToJSON(&class.Attributes[i]))
	}

	methods := make([]any, 0, len(class.Methods))
	for i := range class.Methods {
		methods = append(methods, methodToJSON(&class.Methods[i]))
	}

	var relations any
	if class.Relations != nil {
		infos := make([]any, 0, len(class.Relations))
		for i := range class.Relations {
			infos = append(infos, relationToJSON(&class.Relations[i]))
		}

		relations = map[string]any{"relation_infos": infos}
	}

	return map[string]any{
		"id":         class.ID,
		"name":       class.Name,
		"attributes": attributes,
		"methods":    methods,
		"relations":  relations,
	}
}

func variableToJSON(variable *models.Variable) map[string]any {
	// An absent visibility still prints as NON_MODIFIER: the default
	// is a read-side policy, only is_static keeps strict absence in
	// the variable shape.
	visibility := visNonModifier
	if variable.Visibility != nil {
		visibility = visibilityToString(*variable.Visibility)
	}

	return map[string]any{
		"name":       variable.Name,
		"type":       variable.Type,
		"visibility": visibility,
		"is_static":  nullableBool(variable.IsStatic),
	}
}

func methodToJSON(method *models.Method) map[string]any {
	parameters := make([]any, 0, len(method.Parameters))
	for i := range method.Parameters {
		parameters = append(parameters, variableToJSON(&method.Parameters[i]))
	}

	return map[string]any{
		"name":        method.Name,
		"return_type": method.ReturnType,
		"visibility":  visibilityToString(method.Visibility),
		"is_abstract": nullableBool(method.IsAbstract),
		"is_static":   nullableBool(method.IsStatic),
		"parameters":  parameters,
	}
}

func relationToJSON(rel *models.RelationInfo) map[string]any {
	var multiplicityP, multiplicityC any
	if rel.MultiplicityP != nil {
		multiplicityP = multiplicityToJSON(rel.MultiplicityP)
	}

	if rel.MultiplicityC != nil {
		multiplicityC = multiplicityToJSON(rel.MultiplicityC)
	}

	var roleNameP, roleNameC any
	if rel.RoleNameP != nil {
		roleNameP = *rel.RoleNameP
	}

	if rel.RoleNameC != nil {
		roleNameC = *rel.RoleNameC
	}

	return map[string]any{
		"target_class_id": rel.TargetClassID,
		"relation":        relationToString(rel.Relation),
		"multiplicity_p":  multiplicityP,
		"multiplicity_c":  multiplicityC,
		"role_name_p":     roleNameP,
		"role_name_c":     roleNameC,
	}
}

func multiplicityToJSON(m *models.Multiplicity) map[string]any {
	var upper any
	if m.Upper != nil {
		upper = *m.Upper
	}

	return map[string]any{
		"lower": m.Lower,
		"upper": upper,
	}
}

// nullableBool maps an absent flag to JSON null instead of false.
func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}

	return *b
}

func visibilityFromString(s string) models.Visibility {
	switch s {
	case visPublic:
		return models.VisibilityPublic
	case visPrivate:
		return models.VisibilityPrivate
	case visProtected:
		return models.VisibilityProtected
	default:
		return models.VisibilityNonModifier
	}
}

func visibilityToString(v models.Visibility) string {
	switch v {
	case models.VisibilityPublic:
		return visPublic
	case models.VisibilityPrivate:
		return visPrivate
	case models.VisibilityProtected:
		return visProtected
	default:
		return visNonModifier
	}
}

func relationFromString(s string) models.Relation {
	switch s {
	case relInheritance:
		return models.RelationInheritance
	case relImplementation:
		return models.RelationImplementation
	case relAssociation:
		return models.RelationAssociation
	case relAggregation:
		return models.RelationAggregation
	case relComposition:
		return models.RelationComposition
	default:
		return models.RelationNone
	}
}

func relationToString(r models.Relation) string {
	switch r {
	case models.RelationInheritance:
		return relInheritance
	case models.RelationImplementation:
		return relImplementation
	case models.RelationAssociation:
		return relAssociation
	case models.RelationAggregation:
		return relAggregation
	case models.RelationComposition:
		return relComposition
	default:
		return relNone
	}
}

// JSON helpers. encoding/json decodes objects to map[string]any,
// arrays to []any and every number to float64.

func getObject(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}

	nested, _ := obj[key].(map[string]any)

	return nested
}

func getArray(obj map[string]any, key string) []any {
	arr, _ := obj[key].([]any)

	return arr
}

func getString(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}

	s, _ := obj[key].(string)

	return s
}

func getInt(obj map[string]any, key string) int64 {
	if obj == nil {
		return 0
	}

	n, _ := asInt(obj[key])

	return n
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}
