package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NodeKind string

const (
	NodeKindStatic       NodeKind = "static"
	NodeKindBindable     NodeKind = "bindable"
	NodeKindVerification NodeKind = "verification"
)

// CanvasNode is one drawable element of a template's canvas graph.
// Kind decides which of the optional fields are meaningful: bindable nodes
// carry DynamicKey, verification nodes carry the QR styling fields.
type CanvasNode struct {
	ID         string   `json:"id"`
	Kind       NodeKind `json:"kind"`
	DynamicKey string   `json:"dynamic_key,omitempty"`
	Text       string   `json:"text,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	FontSize   float64  `json:"font_size,omitempty"`
	FontColor  string   `json:"font_color,omitempty"`
	Size       int      `json:"size,omitempty"`
	Foreground string   `json:"foreground,omitempty"`
	Background string   `json:"background,omitempty"`
}

type TemplateDocument struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;index;column:user_id" json:"user_id"`
	Name            string         `gorm:"not null;column:name" json:"name"`
	IssuerName      string         `gorm:"column:issuer_name" json:"issuer_name"`
	Width           int            `gorm:"not null;column:width" json:"width"`
	Height          int            `gorm:"not null;column:height" json:"height"`
	CanvasGraph     datatypes.JSON `gorm:"column:canvas_graph" json:"canvas_graph"`
	PlaceholderKeys datatypes.JSON `gorm:"column:placeholder_keys" json:"placeholder_keys"`
	IsPublic        bool           `gorm:"not null;default:false;column:is_public" json:"is_public"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TemplateDocument) TableName() string { return "template_document" }

// Nodes decodes the stored canvas graph.
func (t *TemplateDocument) Nodes() ([]CanvasNode, error) {
	if len(t.CanvasGraph) == 0 {
		return nil, nil
	}
	var nodes []CanvasNode
	if err := json.Unmarshal(t.CanvasGraph, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Keys decodes the stored placeholder key set.
func (t *TemplateDocument) Keys() ([]string, error) {
	if len(t.PlaceholderKeys) == 0 {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(t.PlaceholderKeys, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// DataRow is one recipient's data, keyed by column name. Values are the
// scalars that survive JSON decoding (string, float64, bool, nil).
type DataRow map[string]any

type Dataset struct {
	Headers []string  `json:"headers"`
	Rows    []DataRow `json:"rows"`
}
