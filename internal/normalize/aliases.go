package normalize

// Field is a logical field of an incoming record
type Field string

const (
	FieldID             Field = "id"
	FieldName           Field = "name"
	FieldDescription    Field = "description"
	FieldCenterX        Field = "center_x"
	FieldCenterY        Field = "center_y"
	FieldRadius         Field = "radius"
	FieldColor          Field = "color"
	FieldOrganizationID Field = "organization_id"
	FieldGroups         Field = "groups"
	FieldSphereID       Field = "sphere_id"
	FieldLabel          Field = "label"
	FieldNodeType       Field = "node_type"
	FieldStatus         Field = "status"
	FieldArchived       Field = "archived"
	FieldPosition       Field = "position"
	FieldSummary        Field = "summary"
	FieldLinks          Field = "links"
	FieldOwners         Field = "owners"
	FieldMetadata       Field = "metadata"
	FieldSourceNodeID   Field = "source_node_id"
	FieldTargetNodeID   Field = "target_node_id"
	FieldRelationType   Field = "relation_type"
	FieldX              Field = "x"
	FieldY              Field = "y"
)

// Aliases lists the accepted keys per field. The first key present with a
// non-null value wins.
var Aliases = map[Field][]string{
	FieldID:             {"id"},
	FieldName:           {"name", "label"},
	FieldDescription:    {"description"},
	FieldCenterX:        {"center_x", "centerX"},
	FieldCenterY:        {"center_y", "centerY"},
	FieldRadius:         {"radius", "sphereRadius", "sphere_radius"},
	FieldColor:          {"color", "colour"},
	FieldOrganizationID: {"organization_id", "organizationId"},
	FieldGroups:         {"groups", "group_ids", "groupIds"},
	FieldSphereID:       {"sphere_id", "sphereId"},
	FieldLabel:          {"label", "name", "title"},
	FieldNodeType:       {"node_type", "nodeType", "type"},
	FieldStatus:         {"status"},
	FieldArchived:       {"archived", "is_archived", "isArchived"},
	FieldPosition:       {"position", "pos", "coordinates"},
	FieldSummary:        {"summary", "description"},
	FieldLinks:          {"links", "links_json", "linksJson"},
	FieldOwners:         {"owners", "owners_json", "ownersJson"},
	FieldMetadata:       {"metadata", "metadata_json", "metadataJson", "meta"},
	FieldSourceNodeID:   {"source_node_id", "sourceNodeId", "source", "from"},
	FieldTargetNodeID:   {"target_node_id", "targetNodeId", "target", "to"},
	FieldRelationType:   {"relation_type", "relationType", "relation", "type"},
	FieldX:              {"x", "lng", "lon", "longitude", "left", "cx", "pos_x", "posX"},
	FieldY:              {"y", "lat", "latitude", "top", "cy", "pos_y", "posY"},
}

// Record is one loosely shaped input record
type Record map[string]any

// Lookup resolves f through its alias list
func (r Record) Lookup(f Field) (any, bool) {
	for _, key := range Aliases[f] {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String resolves f to a trimmed string. Numbers are formatted.
func (r Record) String(f Field) string {
	v, ok := r.Lookup(f)
	if !ok {
		return ""
	}
	return scalarString(v)
}
