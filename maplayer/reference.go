package maplayer

// ReferenceKind tells how a visibility command is applied.
type ReferenceKind int

const (
	// Tracked overlays are owned by the controller; their flag is the source of truth.
	Tracked ReferenceKind = iota
	// EngineNative layers come with the base style; the engine is the source of truth.
	EngineNative
)

func (k ReferenceKind) String() string {
	if k == Tracked {
		return "tracked"
	}
	return "engine-native"
}

// OverlayReference is a layer id resolved against the descriptor list.
type OverlayReference struct {
	ID   string
	Kind ReferenceKind
}

func (r OverlayReference) String() string {
	return r.Kind.String() + ":" + r.ID
}
