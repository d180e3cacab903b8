package volume

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"gonum.org/v1/gonum/mat"

	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Bundle is a statistic image plus the atlas label grids resampled into its space.
type Bundle struct {
	Image  *Image
	Labels map[string]AtlasLabels
}

// bundleFile is the on-disk YAML layout of a Bundle. Grids are given either
// densely (data, x fastest) or sparsely (voxels as [i, j, k, value] rows).
type bundleFile struct {
	StatType string              `yaml:"stat_type"`
	Frames   int                 `yaml:"frames"`
	Dims     []int               `yaml:"dims"`
	Affine   [][]float64         `yaml:"affine"`
	Data     []float64           `yaml:"data"`
	Voxels   [][]float64         `yaml:"voxels"`
	Atlases  map[string]gridPair `yaml:"atlases"`
}

type gridPair struct {
	Region  *gridFile `yaml:"region"`
	Network *gridFile `yaml:"network"`
}

type gridFile struct {
	Data   []int   `yaml:"data"`
	Voxels [][]int `yaml:"voxels"`
}

// LoadBundle reads a bundle from a YAML file.
func LoadBundle(filename string) (*Bundle, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, errors.WrapIO("stat", filename, err)
	}
	if info.Size() > constants.MaxInputFileSize {
		return nil, &errors.ValidationError{Field: "input", Value: info.Size(), Message: "input file too large"}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WrapIO("read", filename, err)
	}
	return ParseBundle(data, filename)
}

// ParseBundle decodes a bundle. file is used in errors only.
func ParseBundle(data []byte, file string) (*Bundle, error) {
	var bf bundleFile
	if err := yaml.UnmarshalWithOptions(data, &bf, yaml.Strict()); err != nil {
		return nil, errors.WrapParse("yaml", file, err)
	}

	if len(bf.Dims) != 3 {
		return nil, &errors.ValidationError{Field: "dims", Value: bf.Dims, Message: "expected 3 values"}
	}
	dims := Dims{bf.Dims[0], bf.Dims[1], bf.Dims[2]}
	if err := dims.validate(); err != nil {
		return nil, err
	}

	values, err := floatGrid(dims, bf.Data, bf.Voxels)
	if err != nil {
		return nil, err
	}

	var affine *mat.Dense
	if bf.Affine != nil {
		if affine, err = NewAffine(bf.Affine); err != nil {
			return nil, err
		}
	}
	img, err := NewImage(dims, values, affine, bf.Frames, bf.StatType)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Image: img, Labels: make(map[string]AtlasLabels, len(bf.Atlases))}
	for name, pair := range bf.Atlases {
		var al AtlasLabels
		if pair.Region != nil {
			if al.Region, err = pair.Region.labelImage(dims, name+".region"); err != nil {
				return nil, err
			}
		}
		if pair.Network != nil {
			if al.Network, err = pair.Network.labelImage(dims, name+".network"); err != nil {
				return nil, err
			}
		}
		b.Labels[name] = al
	}
	return b, nil
}

func floatGrid(dims Dims, dense []float64, sparse [][]float64) ([]float64, error) {
	if dense != nil && sparse != nil {
		return nil, &errors.ValidationError{Field: "data", Message: "give either data or voxels, not both"}
	}
	if dense != nil {
		return dense, nil
	}
	grid := make([]float64, dims.Len())
	for n, row := range sparse {
		if len(row) != 4 {
			return nil, &errors.ValidationError{Field: fmt.Sprintf("voxels[%d]", n), Value: row, Message: "expected [i, j, k, value]"}
		}
		i, j, k := int(row[0]), int(row[1]), int(row[2])
		if float64(i) != row[0] || float64(j) != row[1] || float64(k) != row[2] || !dims.Contains(i, j, k) {
			return nil, &errors.ValidationError{Field: fmt.Sprintf("voxels[%d]", n), Value: row, Message: "voxel outside grid"}
		}
		grid[dims.Index(i, j, k)] = row[3]
	}
	return grid, nil
}

func (g *gridFile) labelImage(dims Dims, field string) (*LabelImage, error) {
	if g.Data != nil && g.Voxels != nil {
		return nil, &errors.ValidationError{Field: field, Message: "give either data or voxels, not both"}
	}
	if g.Data != nil {
		return NewLabelImage(dims, g.Data)
	}
	grid := make([]int, dims.Len())
	for n, row := range g.Voxels {
		if len(row) != 4 || !dims.Contains(row[0], row[1], row[2]) {
			return nil, &errors.ValidationError{Field: fmt.Sprintf("%s.voxels[%d]", field, n), Value: row, Message: "expected [i, j, k, label] inside the grid"}
		}
		grid[dims.Index(row[0], row[1], row[2])] = row[3]
	}
	return NewLabelImage(dims, grid)
}
