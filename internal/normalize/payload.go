package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"spheremap/internal/domain"
)

// RawPayload is a full-map payload before normalization
type RawPayload struct {
	OrganizationID any      `json:"organization_id,omitempty" yaml:"organization_id,omitempty"`
	Spheres        []Record `json:"spheres" yaml:"spheres"`
	Nodes          []Record `json:"nodes" yaml:"nodes"`
	Edges          []Record `json:"edges" yaml:"edges"`
}

// Report counts what a normalization pass dropped
type Report struct {
	SkippedSpheres int `json:"skipped_spheres"`
	SkippedNodes   int `json:"skipped_nodes"`
	SkippedEdges   int `json:"skipped_edges"`
	Duplicates     int `json:"duplicates"`
}

// Skipped returns the total number of dropped records
func (r Report) Skipped() int {
	return r.SkippedSpheres + r.SkippedNodes + r.SkippedEdges + r.Duplicates
}

// FromRecord splits a decoded top-level object into its record lists.
// Array items that are not objects are dropped.
func FromRecord(top map[string]any) *RawPayload {
	rec := Record(top)
	raw := &RawPayload{
		Spheres: records(top["spheres"]),
		Nodes:   records(top["nodes"]),
		Edges:   records(top["edges"]),
	}
	if org, ok := rec.Lookup(FieldOrganizationID); ok {
		raw.OrganizationID = org
	}
	return raw
}

func records(v any) []Record {
	var list []any
	switch l := v.(type) {
	case []any:
		list = l
	case []map[string]any:
		out := make([]Record, 0, len(l))
		for _, m := range l {
			out = append(out, Record(m))
		}
		return out
	default:
		return []Record{}
	}
	out := make([]Record, 0, len(list))
	for _, item := range list {
		switch m := item.(type) {
		case map[string]any:
			out = append(out, Record(m))
		case Record:
			out = append(out, m)
		default:
			log.Printf("normalize: skipping non-object record %v", item)
		}
	}
	return out
}

// DecodeJSON decodes a full-map JSON document. Numbers are kept as
// json.Number so large ids survive.
func DecodeJSON(data []byte) (*RawPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var top map[string]any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("failed to decode map payload: %w", err)
	}
	if top == nil {
		return nil, fmt.Errorf("map payload is not an object")
	}
	return FromRecord(top), nil
}

// DecodeRecord decodes a single JSON object into a Record
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("record is not an object")
	}
	return Record(rec), nil
}

// Bulk is a bulk document checked against the record rules. Raw keeps the
// records that passed exactly as they were read; Map is their normalized form.
type Bulk struct {
	Raw    *RawPayload
	Map    *domain.Map
	Report Report
}

// Payload normalizes every record of raw. Records failing their required
// fields are dropped, and of records sharing an id the first is kept.
func Payload(raw *RawPayload) (*domain.Map, Report) {
	b := Sift(raw)
	return b.Map, b.Report
}

// Sift normalizes raw like Payload and also keeps the surviving records
// untouched, so fields the domain model does not carry are not lost.
func Sift(raw *RawPayload) *Bulk {
	kept := &RawPayload{Spheres: []Record{}, Nodes: []Record{}, Edges: []Record{}}
	b := &Bulk{Raw: kept, Map: domain.NewMap(0)}
	if raw == nil {
		return b
	}

	orgID, _ := ToInt(raw.OrganizationID)
	kept.OrganizationID = raw.OrganizationID
	m := domain.NewMap(orgID)
	b.Map = m

	seenSpheres := make(map[int64]bool, len(raw.Spheres))
	for _, r := range raw.Spheres {
		s, ok := Sphere(r)
		if !ok {
			b.Report.SkippedSpheres++
			continue
		}
		if seenSpheres[s.ID] {
			log.Printf("normalize: skipping duplicate sphere %d", s.ID)
			b.Report.Duplicates++
			continue
		}
		seenSpheres[s.ID] = true
		m.AddSphere(s)
		kept.Spheres = append(kept.Spheres, r)
	}

	seenNodes := make(map[int64]bool, len(raw.Nodes))
	for _, r := range raw.Nodes {
		n, ok := Node(r)
		if !ok {
			b.Report.SkippedNodes++
			continue
		}
		if seenNodes[n.ID] {
			log.Printf("normalize: skipping duplicate node %d", n.ID)
			b.Report.Duplicates++
			continue
		}
		seenNodes[n.ID] = true
		m.AddNode(n)
		kept.Nodes = append(kept.Nodes, r)
	}

	seenEdges := make(map[int64]bool, len(raw.Edges))
	for _, r := range raw.Edges {
		e, ok := Edge(r)
		if !ok {
			b.Report.SkippedEdges++
			continue
		}
		if seenEdges[e.ID] {
			log.Printf("normalize: skipping duplicate edge %d", e.ID)
			b.Report.Duplicates++
			continue
		}
		seenEdges[e.ID] = true
		m.AddEdge(e)
		kept.Edges = append(kept.Edges, r)
	}

	return b
}

// JSON decodes and normalizes a full-map JSON document
func JSON(data []byte) (*domain.Map, Report, error) {
	raw, err := DecodeJSON(data)
	if err != nil {
		return nil, Report{}, err
	}
	m, report := Payload(raw)
	return m, report, nil
}
