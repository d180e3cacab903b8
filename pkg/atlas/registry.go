package atlas

import (
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/cases"

	"github.com/agentstation/blobtable/internal/embedded"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Parse decodes and validates one atlas definition. file is used in errors only.
func Parse(data []byte, file string) (*Atlas, error) {
	var a Atlas
	if err := yaml.UnmarshalWithOptions(data, &a, yaml.Strict()); err != nil {
		return nil, errors.WrapParse("yaml", file, err)
	}
	if err := a.build(); err != nil {
		return nil, err
	}
	return &a, nil
}

// LoadFile reads an atlas definition from disk.
func LoadFile(filename string) (*Atlas, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, errors.WrapIO("stat", filename, err)
	}
	if info.Size() > constants.MaxInputFileSize {
		return nil, &errors.ValidationError{Field: "atlas", Value: info.Size(), Message: "atlas file too large"}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WrapIO("read", filename, err)
	}
	return Parse(data, filename)
}

// Registry maps atlas names to loaded atlases. Names are matched case-insensitively.
type Registry struct {
	mu      sync.RWMutex
	atlases map[string]*Atlas
}

// NewRegistry creates a registry holding the given atlases.
func NewRegistry(atlases ...*Atlas) (*Registry, error) {
	r := &Registry{atlases: make(map[string]*Atlas, len(atlases))}
	for _, a := range atlases {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFS loads every *.yaml atlas under dir of fsys into a new registry.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.WrapIO("read", dir, err)
	}

	r := &Registry{atlases: make(map[string]*Atlas, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		file := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, errors.WrapIO("read", file, err)
		}
		a, err := Parse(data, file)
		if err != nil {
			return nil, err
		}
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var (
	embeddedOnce     sync.Once
	embeddedRegistry *Registry
	embeddedErr      error
)

// Embedded returns the registry of atlases bundled with the binary.
// Each call returns an independent registry; parsing happens once.
func Embedded() (*Registry, error) {
	embeddedOnce.Do(func() {
		embeddedRegistry, embeddedErr = LoadFS(embedded.FS, embedded.AtlasDir)
	})
	if embeddedErr != nil {
		return nil, embeddedErr
	}
	return embeddedRegistry.clone(), nil
}

func (r *Registry) clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := &Registry{atlases: make(map[string]*Atlas, len(r.atlases))}
	for k, v := range r.atlases {
		cp.atlases[k] = v
	}
	return cp
}

// Register adds an atlas. Registering a second atlas with the same name fails.
func (r *Registry) Register(a *Atlas) error {
	if a == nil {
		return &errors.ValidationError{Field: "atlas", Message: "cannot be nil"}
	}
	if a.byName == nil {
		if err := a.build(); err != nil {
			return err
		}
	}

	key := foldName(a.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.atlases[key]; exists {
		return errors.NewResourceError("register", "atlas", a.Name, errors.ErrAlreadyExists)
	}
	r.atlases[key] = a
	return nil
}

// Get returns the atlas with the given name.
func (r *Registry) Get(name string) (*Atlas, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.atlases[foldName(name)]
	if !ok {
		return nil, errors.NewNotFoundError("atlas", name)
	}
	return a, nil
}

// Default returns the default atlas.
func (r *Registry) Default() (*Atlas, error) {
	return r.Get(constants.DefaultAtlas)
}

// List returns all registered atlases sorted by name.
func (r *Registry) List() []*Atlas {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Atlas, 0, len(r.atlases))
	for _, a := range r.atlases {
		list = append(list, a)
	}
	slices.SortFunc(list, func(x, y *Atlas) int { return strings.Compare(x.Name, y.Name) })
	return list
}

// Len returns the number of registered atlases.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.atlases)
}

func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
