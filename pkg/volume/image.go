// Package volume provides reference implementations of the collaborators the
// annotation core depends on: a dense statistic image with a voxel-to-mm
// affine, a connected-components cluster splitter, and a descriptor
// generator that measures cluster overlap with atlas label grids.
//
// Voxel data is stored row-major with x varying fastest:
// index = i + nx*(j + ny*k).
package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Dims is the grid size along i, j, k.
type Dims [3]int

// Len returns the number of voxels.
func (d Dims) Len() int {
	return d[0] * d[1] * d[2]
}

// Index returns the flat index of voxel (i, j, k).
func (d Dims) Index(i, j, k int) int {
	return i + d[0]*(j+d[1]*k)
}

// Coords returns the voxel coordinates of a flat index.
func (d Dims) Coords(idx int) (i, j, k int) {
	i = idx % d[0]
	j = (idx / d[0]) % d[1]
	k = idx / (d[0] * d[1])
	return i, j, k
}

// Contains reports whether (i, j, k) lies inside the grid.
func (d Dims) Contains(i, j, k int) bool {
	return i >= 0 && j >= 0 && k >= 0 && i < d[0] && j < d[1] && k < d[2]
}

func (d Dims) validate() error {
	for axis, n := range d {
		if n <= 0 {
			return &errors.ValidationError{Field: "dims", Value: d, Message: fmt.Sprintf("axis %d must be positive", axis)}
		}
	}
	if d.Len() > constants.MaxVoxels {
		return &errors.ValidationError{Field: "dims", Value: d, Message: "grid too large"}
	}
	return nil
}

// Image is a scored statistical volume.
type Image struct {
	dims     Dims
	data     []float64
	affine   *mat.Dense
	frames   int
	statType string
}

// NewImage validates and wraps a statistic grid. A nil affine means 1 mm
// isotropic voxels with the origin at voxel (0, 0, 0).
func NewImage(dims Dims, data []float64, affine *mat.Dense, frames int, statType string) (*Image, error) {
	if err := dims.validate(); err != nil {
		return nil, err
	}
	if len(data) != dims.Len() {
		return nil, &errors.ValidationError{Field: "data", Value: len(data), Message: fmt.Sprintf("expected %d voxels", dims.Len())}
	}
	if frames <= 0 {
		frames = 1
	}
	if affine == nil {
		affine = identityAffine()
	}
	if err := validateAffine(affine); err != nil {
		return nil, err
	}
	return &Image{dims: dims, data: data, affine: affine, frames: frames, statType: statType}, nil
}

// Frames returns the number of volumes the image declares.
func (img *Image) Frames() int { return img.frames }

// StatType returns the declared statistic type.
func (img *Image) StatType() string { return img.statType }

// Dims returns the grid size.
func (img *Image) Dims() Dims { return img.dims }

// Value returns the statistic at a flat voxel index.
func (img *Image) Value(idx int) float64 { return img.data[idx] }

// At returns the statistic at voxel (i, j, k).
func (img *Image) At(i, j, k int) float64 {
	return img.data[img.dims.Index(i, j, k)]
}

// VoxelVolume returns the volume of one voxel in mm³.
func (img *Image) VoxelVolume() float64 {
	return math.Abs(det3(img.affine))
}

// det3 is the cofactor determinant of the upper-left 3x3 block of a.
// It is exact for diagonal affines, unlike mat.Det.
func det3(a mat.Matrix) float64 {
	return a.At(0, 0)*(a.At(1, 1)*a.At(2, 2)-a.At(1, 2)*a.At(2, 1)) -
		a.At(0, 1)*(a.At(1, 0)*a.At(2, 2)-a.At(1, 2)*a.At(2, 0)) +
		a.At(0, 2)*(a.At(1, 0)*a.At(2, 1)-a.At(1, 1)*a.At(2, 0))
}

// World maps a flat voxel index to mm coordinates through the affine.
func (img *Image) World(idx int) (x, y, z float64) {
	i, j, k := img.dims.Coords(idx)
	var out mat.VecDense
	out.MulVec(img.affine, mat.NewVecDense(4, []float64{float64(i), float64(j), float64(k), 1}))
	return out.AtVec(0), out.AtVec(1), out.AtVec(2)
}

func identityAffine() *mat.Dense {
	a := mat.NewDense(4, 4, nil)
	for d := 0; d < 4; d++ {
		a.Set(d, d, 1)
	}
	return a
}

// NewAffine builds a 4x4 affine from row-major values.
func NewAffine(rows [][]float64) (*mat.Dense, error) {
	if len(rows) != 4 {
		return nil, &errors.ValidationError{Field: "affine", Value: len(rows), Message: "expected 4 rows"}
	}
	flat := make([]float64, 0, 16)
	for r, row := range rows {
		if len(row) != 4 {
			return nil, &errors.ValidationError{Field: "affine", Value: r, Message: "expected 4 columns per row"}
		}
		flat = append(flat, row...)
	}
	a := mat.NewDense(4, 4, flat)
	if err := validateAffine(a); err != nil {
		return nil, err
	}
	return a, nil
}

func validateAffine(a *mat.Dense) error {
	r, c := a.Dims()
	if r != 4 || c != 4 {
		return &errors.ValidationError{Field: "affine", Value: fmt.Sprintf("%dx%d", r, c), Message: "must be 4x4"}
	}
	if det3(a) == 0 {
		return &errors.ValidationError{Field: "affine", Message: "linear part is singular"}
	}
	return nil
}

// LabelImage is an integer label grid in the same space as a statistic image.
// Label 0 is background.
type LabelImage struct {
	dims Dims
	data []int
}

// NewLabelImage validates and wraps a label grid.
func NewLabelImage(dims Dims, data []int) (*LabelImage, error) {
	if err := dims.validate(); err != nil {
		return nil, err
	}
	if len(data) != dims.Len() {
		return nil, &errors.ValidationError{Field: "labels", Value: len(data), Message: fmt.Sprintf("expected %d voxels", dims.Len())}
	}
	for _, l := range data {
		if l < 0 {
			return nil, &errors.ValidationError{Field: "labels", Value: l, Message: "labels must be >= 0"}
		}
	}
	return &LabelImage{dims: dims, data: data}, nil
}

// Dims returns the grid size.
func (l *LabelImage) Dims() Dims { return l.dims }

// Label returns the label at a flat voxel index.
func (l *LabelImage) Label(idx int) int { return l.data[idx] }

// AtlasLabels holds the label grids of one atlas at both tiers.
type AtlasLabels struct {
	Region  *LabelImage
	Network *LabelImage
}
