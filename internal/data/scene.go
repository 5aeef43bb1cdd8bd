package data

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pointofvision/server/internal/scene"
	"github.com/pointofvision/server/internal/vision"
	"gopkg.in/yaml.v3"
)

// SceneInfo holds the scene-level settings of a fixture.
type SceneInfo struct {
	Name        string  `yaml:"name"`
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Grid        float64 `yaml:"grid"` // pixels per grid unit
	GlobalLight bool    `yaml:"global_light"`
	TokenVision *bool   `yaml:"token_vision"` // nil = true
}

type EmissionEntry struct {
	Dim       float64 `yaml:"dim"`
	Bright    float64 `yaml:"bright"`
	Angle     float64 `yaml:"angle"`
	Rotation  float64 `yaml:"rotation"`
	Color     string  `yaml:"color"`
	Alpha     float64 `yaml:"alpha"`
	Darkness  float64 `yaml:"darkness"`
	Type      string  `yaml:"type"`
	Animation string  `yaml:"animation"`
	Seed      int64   `yaml:"seed"`
	Z         int     `yaml:"z"`
}

type UserEntry struct {
	ID string `yaml:"id"`
	GM bool   `yaml:"gm"`
}

// TokenEntry sizes are in grid units; zero means one unit.
type TokenEntry struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	X        float64       `yaml:"x"`
	Y        float64       `yaml:"y"`
	Width    float64       `yaml:"width"`
	Height   float64       `yaml:"height"`
	Hidden   bool          `yaml:"hidden"`
	Sight    bool          `yaml:"sight"`
	Vision   EmissionEntry `yaml:"vision"`
	Owners   []string      `yaml:"owners"`
	Pov      *int          `yaml:"pov"` // -1 or absent = world default
	Controls []string      `yaml:"controlled_by"`
}

type LightEntry struct {
	ID            string  `yaml:"id"`
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	EmissionEntry `yaml:",inline"`
}

type sceneFile struct {
	Scene  SceneInfo    `yaml:"scene"`
	Users  []UserEntry  `yaml:"users"`
	Tokens []TokenEntry `yaml:"tokens"`
	Lights []LightEntry `yaml:"lights"`
}

// SceneFixture is a validated scene loaded from YAML.
type SceneFixture struct {
	Info   SceneInfo
	users  []scene.User
	tokens []scene.Token
	lights []scene.Light
	// controls lists token ids selected per user at load.
	controls map[string][]string
}

// LoadSceneFixture loads a scene fixture. Tokens without an id get a random
// one; lights likewise.
func LoadSceneFixture(path string) (*SceneFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene fixture %s: %w", path, err)
	}
	var file sceneFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse scene fixture: %w", err)
	}
	return buildFixture(&file)
}

func buildFixture(file *sceneFile) (*SceneFixture, error) {
	info := file.Scene
	if info.Grid <= 0 {
		info.Grid = 100
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("scene %q: dimensions must be positive", info.Name)
	}

	f := &SceneFixture{Info: info, controls: make(map[string][]string)}

	users := make(map[string]bool, len(file.Users))
	for _, u := range file.Users {
		if u.ID == "" {
			return nil, errors.New("user without id")
		}
		if users[u.ID] {
			return nil, fmt.Errorf("duplicate user %s", u.ID)
		}
		users[u.ID] = true
		f.users = append(f.users, scene.User{ID: u.ID, GM: u.GM})
	}

	seen := make(map[string]bool, len(file.Tokens))
	for _, e := range file.Tokens {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate token %s", id)
		}
		seen[id] = true

		pov, err := tokenFlag(id, e.Pov)
		if err != nil {
			return nil, err
		}
		w, h := e.Width, e.Height
		if w == 0 {
			w = 1
		}
		if h == 0 {
			h = 1
		}
		f.tokens = append(f.tokens, scene.Token{
			ID:      id,
			Name:    e.Name,
			X:       e.X,
			Y:       e.Y,
			Width:   w * info.Grid,
			Height:  h * info.Grid,
			Hidden:  e.Hidden,
			Sight:   e.Sight,
			Vision:  e.Vision.emission(),
			Owners:  e.Owners,
			PovFlag: pov,
		})
		for _, u := range e.Controls {
			if !users[u] {
				return nil, fmt.Errorf("token %s controlled by unknown user %s", id, u)
			}
			f.controls[u] = append(f.controls[u], id)
		}
	}

	for _, l := range file.Lights {
		id := l.ID
		if id == "" {
			id = uuid.NewString()
		}
		f.lights = append(f.lights, scene.Light{ID: id, X: l.X, Y: l.Y, Emission: l.emission()})
	}
	return f, nil
}

func tokenFlag(id string, pov *int) (*int, error) {
	if pov == nil || vision.Mode(*pov) == vision.ModeUnset {
		return nil, nil
	}
	if !vision.Mode(*pov).Valid() {
		return nil, fmt.Errorf("token %s: %w: %d", id, vision.ErrUnknownMode, *pov)
	}
	v := *pov
	return &v, nil
}

func (e EmissionEntry) emission() scene.Emission {
	return scene.Emission{
		Dim:       e.Dim,
		Bright:    e.Bright,
		Angle:     e.Angle,
		Rotation:  e.Rotation,
		Color:     e.Color,
		Alpha:     e.Alpha,
		Darkness:  e.Darkness,
		Type:      e.Type,
		Animation: e.Animation,
		Seed:      e.Seed,
		Z:         e.Z,
	}
}

// Options are the scene flags for scene.New.
func (f *SceneFixture) Options() scene.Options {
	tv := true
	if f.Info.TokenVision != nil {
		tv = *f.Info.TokenVision
	}
	return scene.Options{GlobalLight: f.Info.GlobalLight, TokenVision: tv}
}

func (f *SceneFixture) Users() []scene.User   { return f.users }
func (f *SceneFixture) Tokens() []scene.Token { return f.tokens }
func (f *SceneFixture) Lights() []scene.Light { return f.lights }

// Controls returns the token ids user selects at load.
func (f *SceneFixture) Controls(userID string) []string { return f.controls[userID] }

// Count returns the number of loaded tokens.
func (f *SceneFixture) Count() int { return len(f.tokens) }

// Populate loads users, tokens, lights and selections into sc.
func (f *SceneFixture) Populate(sc *scene.Scene) error {
	for _, u := range f.users {
		sc.AddUser(u)
	}
	for _, t := range f.tokens {
		if err := sc.AddToken(t); err != nil {
			return err
		}
	}
	for _, l := range f.lights {
		sc.AddLight(l)
	}
	for _, u := range f.users {
		for _, id := range f.controls[u.ID] {
			if err := sc.Control(u.ID, id, true); err != nil {
				return fmt.Errorf("populate scene: %w", err)
			}
		}
	}
	return nil
}
