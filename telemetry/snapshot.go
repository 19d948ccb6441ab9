package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete particle state for replay.
type Snapshot struct {
	Version int `json:"version"`

	Size       [3]float64 `json:"size"`
	PipeLength float64    `json:"pipe_length"`
	Resolution int        `json:"resolution"`

	Tick       int32   `json:"tick"`
	SimTimeSec float64 `json:"sim_time"`

	Particles []ParticleState `json:"particles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ParticleState holds one particle's dynamic state.
type ParticleState struct {
	Pos     [3]float64 `json:"pos"`
	Vel     [3]float64 `json:"vel"`
	Density float64    `json:"density"`
}

// NewParticleState captures p.
func NewParticleState(p components.Particle) ParticleState {
	return ParticleState{
		Pos:     vecToArray(p.Position),
		Vel:     vecToArray(p.Velocity),
		Density: p.Density,
	}
}

// Apply restores the captured state onto p. Acceleration is cleared.
func (s ParticleState) Apply(p *components.Particle) {
	p.Position = arrayToVec(s.Pos)
	p.Velocity = arrayToVec(s.Vel)
	p.Acceleration = r3.Vec{}
	p.Density = s.Density
}

func vecToArray(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func arrayToVec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	return &snapshot, nil
}
