// Package constants provides shared constants used throughout the blobtable codebase.
// This includes table labels, atlas defaults, limits, and file permissions
// that should be consistent across the library and the CLI.
package constants

import "time"

// Atlas constants define the default labeling scheme and coverage handling
const (
	// DefaultAtlas is the canonical fine-resolution atlas used when none is selected
	DefaultAtlas = "glasser"

	// DefaultCoverageThreshold is the minimum percent of a cluster a region must cover to be reported
	DefaultCoverageThreshold = 0.0

	// MaxCoveragePercent is the largest coverage a single region can reach
	MaxCoveragePercent = 100.0
)

// Label constants define the fixed strings written into annotated tables
const (
	// Separator joins region and heuristic names inside one table cell
	Separator = ", "

	// CorticalMarker is the prefix that marks a fine atlas region as cortical
	CorticalMarker = "Ctx"

	// CorticalPrefix is the marker as it appears at the start of a raw region name
	CorticalPrefix = CorticalMarker + "_"

	// SubcorticalLabel is the network sentinel for clusters without a cortical region
	SubcorticalLabel = "Subcortical"

	// DefaultStatType is used for the statistic column when the image declares no type
	DefaultStatType = "stat"

	// EmptyCell is what renderers print for an empty string cell
	EmptyCell = "-"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxInputFileSize caps statistic images and descriptor bundles read from disk (64 MiB)
	MaxInputFileSize = 64 << 20

	// MaxVoxels caps the dense grid size of a loaded statistic image
	MaxVoxels = 256 * 256 * 256

	// MaxRegionNameLength is the maximum allowed length for an atlas region name
	MaxRegionNameLength = 256
)

// Timeout constants define various timeout durations used in the application
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ExportTimeout bounds a single database export
	ExportTimeout = 30 * time.Second
)

// Application constants configure the CLI
const (
	// AppName is the CLI binary name
	AppName = "blobtable"

	// EnvPrefix prefixes environment variables read by the CLI (BLOBTABLE_ATLAS, ...)
	EnvPrefix = "BLOBTABLE"

	// ConfigName is the config file name searched in $HOME and the working directory
	ConfigName = ".blobtable"
)
