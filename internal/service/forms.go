package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultSphereColor is used when a sphere form leaves the colour empty
const DefaultSphereColor = "#38bdf8"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages match the form fields
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// NodeForm is the input of node creation
type NodeForm struct {
	SphereID int64    `json:"sphere_id" validate:"required,gt=0"`
	Label    string   `json:"label" validate:"required,max=200"`
	NodeType string   `json:"node_type" validate:"omitempty,oneof=api event service store task ui"`
	Status   string   `json:"status" validate:"omitempty,oneof=active archived"`
	Summary  string   `json:"summary" validate:"max=2000"`
	Links    []string `json:"links" validate:"omitempty,dive,required"`
	Owners   []string `json:"owners" validate:"omitempty,dive,required"`
}

// EdgeForm is the input of edge creation
type EdgeForm struct {
	SphereID     int64  `json:"sphere_id" validate:"required,gt=0"`
	SourceNodeID int64  `json:"source_node_id" validate:"required,gt=0"`
	TargetNodeID int64  `json:"target_node_id" validate:"required,gt=0,nefield=SourceNodeID"`
	RelationType string `json:"relation_type" validate:"omitempty,oneof=uses produces consumes depends"`
}

// SphereForm is the input of sphere creation
type SphereForm struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	Color       string  `json:"color" validate:"omitempty,hexcolor"`
	GroupIDs    []int64 `json:"group_ids" validate:"omitempty,dive,gt=0"`
}

func (f *NodeForm) normalize() {
	f.Label = strings.TrimSpace(f.Label)
	f.NodeType = strings.ToLower(strings.TrimSpace(f.NodeType))
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.Summary = strings.TrimSpace(f.Summary)
	f.Links = trimAll(f.Links)
	f.Owners = trimAll(f.Owners)
}

func (f *EdgeForm) normalize() {
	f.RelationType = strings.ToLower(strings.TrimSpace(f.RelationType))
}

func (f *SphereForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Color = strings.TrimSpace(f.Color)
}

// check validates a normalized form and wraps failures in ErrValidation
func check(form any) error {
	if err := validate.Struct(form); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, formatValidationError(err))
	}
	return nil
}

// formatValidationError describes the first failed field
func formatValidationError(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return err.Error()
	}

	e := validationErrs[0]
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "nefield":
		return "source and target must be different nodes"
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex colour", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}

// trimAll trims entries and drops empty ones
func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
