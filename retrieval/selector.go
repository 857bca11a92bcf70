package retrieval

import (
	"strings"

	"github.com/fabfab/rail-assist/config"
)

// Document type tokens accepted from callers.
const (
	TypeRailway     = "railway"
	TypeDoorControl = "door_control"
	TypeCombined    = "combined"
)

// Selector maps a document-type token to the vector store collections that
// should serve it.
type Selector struct {
	railway     string
	doorControl string
}

func NewSelector(cfg config.RetrievalConfig) Selector {
	return Selector{
		railway:     cfg.RailwayCollection,
		doorControl: cfg.DoorControlCollection,
	}
}

// Collections resolves a document-type token. "door", "door_control" and
// "maintenance" all select the door-control guideline collection; "combined"
// selects every collection; anything else falls back to the railway corpus.
func (s Selector) Collections(documentType string) []string {
	switch strings.ToLower(strings.TrimSpace(documentType)) {
	case TypeDoorControl, "door", "maintenance":
		return []string{s.doorControl}
	case TypeCombined:
		return []string{s.railway, s.doorControl}
	default:
		return []string{s.railway}
	}
}

// Primary resolves the single collection new documents of this type are
// ingested into.
func (s Selector) Primary(documentType string) string {
	return s.Collections(documentType)[0]
}

// Normalize canonicalizes a document-type token for reporting back to
// callers.
func Normalize(documentType string) string {
	switch strings.ToLower(strings.TrimSpace(documentType)) {
	case TypeDoorControl, "door", "maintenance":
		return TypeDoorControl
	case TypeCombined:
		return TypeCombined
	default:
		return TypeRailway
	}
}
