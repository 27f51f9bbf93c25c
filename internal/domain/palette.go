package domain

var nodeColors = map[NodeType]string{
	NodeTypeAPI:     "#38bdf8",
	NodeTypeEvent:   "#fb923c",
	NodeTypeService: "#6366f1",
	NodeTypeStore:   "#34d399",
	NodeTypeTask:    "#facc15",
	NodeTypeUI:      "#f472b6",
}

var relationColors = map[RelationType]string{
	RelationUses:     "#38bdf8",
	RelationProduces: "#34d399",
	RelationConsumes: "#fb923c",
	RelationDepends:  "#94a3b8",
}

// NodeColor returns the fill colour for a node type, falling back to the service colour
func NodeColor(t NodeType) string {
	if c, ok := nodeColors[t]; ok {
		return c
	}
	return nodeColors[DefaultNodeType]
}

// RelationColor returns the line colour for a relation, falling back to depends
func RelationColor(r RelationType) string {
	if c, ok := relationColors[r]; ok {
		return c
	}
	return relationColors[DefaultRelationType]
}

// SphereColor returns the sphere's own colour or the service colour when unset
func SphereColor(s *Sphere) string {
	if s != nil && s.Color != "" {
		return s.Color
	}
	return NodeColor(DefaultNodeType)
}
