// Package dataset loads navigation episode datasets. A dataset is a
// JSON array of episodes, optionally zstd-compressed, which is
// validated against an embedded JSON Schema.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/samuelfneumann/navlearn/environment/robothor"
	"github.com/samuelfneumann/navlearn/navtask"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed episode.schema.json
var episodeSchema string

var schema = jsonschema.MustCompileString("episode.schema.json",
	episodeSchema)

// Episode is a single navigation episode: a start pose in a scene and
// a goal, with an optional precomputed shortest path
type Episode struct {
	ID                 string             `json:"id"`
	Scene              string             `json:"scene"`
	ObjectType         string             `json:"object_type,omitempty"`
	Target             *robothor.Vector3  `json:"target,omitempty"`
	InitialPosition    robothor.Vector3   `json:"initial_position"`
	InitialOrientation float64            `json:"initial_orientation"`
	InitialHorizon     float64            `json:"initial_horizon,omitempty"`
	ShortestPath       []robothor.Vector3 `json:"shortest_path,omitempty"`
	ShortestPathLength float64            `json:"shortest_path_length,omitempty"`
}

// StartPose returns the pose the agent starts the episode in
func (e Episode) StartPose() robothor.Pose {
	return robothor.Pose{
		X:        e.InitialPosition.X,
		Y:        e.InitialPosition.Y,
		Z:        e.InitialPosition.Z,
		Rotation: robothor.Vector3{Y: e.InitialOrientation},
		Horizon:  e.InitialHorizon,
	}
}

// TaskInfo returns the task info of the episode
func (e Episode) TaskInfo(mirrored bool) *navtask.Info {
	info := &navtask.Info{
		EpisodeID:        e.ID,
		Scene:            e.Scene,
		ObjectType:       e.ObjectType,
		Mirrored:         mirrored,
		DistanceToTarget: e.ShortestPathLength,
	}
	if e.Target != nil {
		target := *e.Target
		info.Target = &target
	}
	return info
}

// EpisodeInfo returns the precomputed shortest path of the episode, or
// nil if the episode has none
func (e Episode) EpisodeInfo() *navtask.EpisodeInfo {
	if len(e.ShortestPath) == 0 {
		return nil
	}
	return &navtask.EpisodeInfo{
		ShortestPath:       e.ShortestPath,
		ShortestPathLength: e.ShortestPathLength,
	}
}

// Dataset is an ordered collection of episodes
type Dataset struct {
	Episodes []Episode
}

// Load reads a dataset from a JSON file. Files ending in ".zst" are
// decompressed first. Episodes without an id are given a random one.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open dataset: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("load: could not read dataset: %w", err)
	}

	d, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("load: %v: %w", path, err)
	}
	return d, nil
}

// Parse validates and decodes a JSON dataset
func Parse(raw []byte) (*Dataset, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("parse: invalid dataset: %w", err)
	}

	var episodes []Episode
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&episodes); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	for i := range episodes {
		if episodes[i].ID == "" {
			episodes[i].ID = uuid.NewString()
		}
	}
	return &Dataset{episodes}, nil
}

// Len returns the number of episodes
func (d *Dataset) Len() int {
	return len(d.Episodes)
}

// Scenes returns the sorted names of the scenes of the dataset
func (d *Dataset) Scenes() []string {
	seen := make(map[string]bool)
	var scenes []string
	for _, e := range d.Episodes {
		if !seen[e.Scene] {
			seen[e.Scene] = true
			scenes = append(scenes, e.Scene)
		}
	}
	sort.Strings(scenes)
	return scenes
}

// Filter returns the episodes of the argument scenes, in order
func (d *Dataset) Filter(scenes ...string) *Dataset {
	keep := make(map[string]bool, len(scenes))
	for _, s := range scenes {
		keep[s] = true
	}

	var episodes []Episode
	for _, e := range d.Episodes {
		if keep[e.Scene] {
			episodes = append(episodes, e)
		}
	}
	return &Dataset{episodes}
}
