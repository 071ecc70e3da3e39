package scene

import "time"

// OpType names the kind of change carried by an Op.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpRemove OpType = "remove"
)

// Op is one change to the scene. Patches are applied in order by the
// browser; a create always precedes updates to the same key.
type Op struct {
	Op       OpType            `json:"op"`
	Key      Key               `json:"key"`
	Parent   Key               `json:"parent,omitempty"`
	Kind     Kind              `json:"kind,omitempty"`
	Role     Role              `json:"role,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Unset    []string          `json:"unset,omitempty"`
	Text     *string           `json:"text,omitempty"`
	Duration int64             `json:"duration_ms,omitempty"`
}

// Patch is the ordered list of changes since the previous flush.
type Patch []Op

// Counts tallies the operations in the patch by type.
func (p Patch) Counts() (created, updated, removed int) {
	for _, op := range p {
		switch op.Op {
		case OpCreate:
			created++
		case OpUpdate:
			updated++
		case OpRemove:
			removed++
		}
	}
	return
}

func attrMap(attrs []Attr) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name] = a.Value
	}
	return m
}

func durationMillis(d time.Duration) int64 {
	return int64(d / time.Millisecond)
}
