package profile

import (
	"fmt"

	"github.com/gamecube-tools/swissinstall/internal/constants"
)

// Device is the boot hardware the volume is prepared for. Closed set.
type Device string

const (
	Picoboot   Device = "picoboot"
	Picoloader Device = "picoloader"
	GCLoader   Device = "gcloader"
)

// Variant is the optional boot-chain loaded in front of Swiss.
type Variant string

const (
	VariantNone Variant = "none"
	Cubeboot    Variant = "cubeboot"
	Cubiboot    Variant = "cubiboot"
)

// Role names one logical piece of the installable payload.
type Role string

const (
	PrimaryBoot   Role = "primaryBoot"
	ApploaderDir  Role = "apploaderDir"
	DeviceImage   Role = "deviceImage"
	AuxBootImage  Role = "auxBootImage"
	AuxBootConfig Role = "auxBootConfig"
)

// Layout fixes where each role lands for one device/variant combination.
// Only valid combinations have a layout, everything else is rejected here,
// before any payload is touched.
type Layout struct {
	Device  Device
	Variant Variant

	// Destinations is the role to volume-root-relative path table.
	Destinations map[Role]string
	// Required roles must all locate or the plan is rejected outright.
	Required []Role
	// Conditional roles may be absent, the plan just skips them.
	Conditional []Role
	// ConflictPaths shadow the new boot file on this device when left
	// behind by another setup. They go first, force permitting.
	ConflictPaths []string
	// CleansStaleSwissGc marks combos that retire a leftover
	// /swiss-gc.dol from an earlier cubiboot install.
	CleansStaleSwissGc bool
}

// Requires reports whether the layout cannot do without the role.
func (l Layout) Requires(r Role) bool {
	for _, required := range l.Required {
		if required == r {
			return true
		}
	}
	return false
}

func ParseDevice(s string) (Device, error) {
	switch Device(s) {
	case Picoboot, Picoloader, GCLoader:
		return Device(s), nil
	default:
		return "", fmt.Errorf("unknown device %q (picoboot, picoloader or gcloader)", s)
	}
}

// ParseVariant turns the two CLI switches into a variant. Asking for both
// chains at once cannot be satisfied.
func ParseVariant(cubeboot, cubiboot bool) (Variant, error) {
	if cubeboot && cubiboot {
		return "", fmt.Errorf("cubeboot and cubiboot are mutually exclusive: %w", constants.ErrIncompatibleVariant)
	}
	switch {
	case cubeboot:
		return Cubeboot, nil
	case cubiboot:
		return Cubiboot, nil
	default:
		return VariantNone, nil
	}
}

// For returns the layout for a device/variant combination or fails with
// the variant error. gcloader callers are expected to downgrade variants
// to none (with a notice) before getting here.
func For(d Device, v Variant) (Layout, error) {
	switch {
	case d == Picoboot && v == VariantNone:
		return Layout{
			Device:  d,
			Variant: v,
			Destinations: map[Role]string{
				PrimaryBoot:  constants.IplDest,
				ApploaderDir: constants.SwissDirDest,
			},
			Required:           []Role{PrimaryBoot, ApploaderDir},
			CleansStaleSwissGc: true,
		}, nil
	case d == Picoboot && v == Cubeboot:
		return Layout{
			Device:  d,
			Variant: v,
			Destinations: map[Role]string{
				AuxBootImage:  constants.IplDest,
				PrimaryBoot:   constants.BootDolDest,
				AuxBootConfig: constants.CubebootIniDest,
				ApploaderDir:  constants.SwissDirDest,
			},
			Required:           []Role{AuxBootImage, PrimaryBoot, ApploaderDir},
			Conditional:        []Role{AuxBootConfig},
			CleansStaleSwissGc: true,
		}, nil
	case d == Picoboot && v == Cubiboot:
		return Layout{
			Device:  d,
			Variant: v,
			Destinations: map[Role]string{
				AuxBootImage: constants.IplDest,
				PrimaryBoot:  constants.SwissGcDest,
				ApploaderDir: constants.SwissDirDest,
			},
			Required: []Role{AuxBootImage, PrimaryBoot, ApploaderDir},
		}, nil
	case d == Picoloader && v == VariantNone:
		return Layout{
			Device:  d,
			Variant: v,
			Destinations: map[Role]string{
				PrimaryBoot:  constants.IplDest,
				ApploaderDir: constants.SwissDirDest,
			},
			Required:           []Role{PrimaryBoot, ApploaderDir},
			ConflictPaths:      []string{constants.BootDolDest, constants.IplDest},
			CleansStaleSwissGc: true,
		}, nil
	case d == Picoloader && v == Cubiboot:
		return Layout{
			Device:  d,
			Variant: v,
			Destinations: map[Role]string{
				AuxBootImage: constants.IplDest,
				PrimaryBoot:  constants.SwissGcDest,
				ApploaderDir: constants.SwissDirDest,
			},
			Required:      []Role{AuxBootImage, PrimaryBoot, ApploaderDir},
			ConflictPaths: []string{constants.BootDolDest, constants.IplDest},
		}, nil
	case d == GCLoader && v == VariantNone:
		return Layout{
			Device:  d,
			Variant: v,
			Destinations: map[Role]string{
				DeviceImage:  constants.BootIsoDest,
				ApploaderDir: constants.SwissDirDest,
			},
			Required: []Role{DeviceImage, ApploaderDir},
		}, nil
	default:
		return Layout{}, fmt.Errorf("%s with %s: %w", v, d, constants.ErrIncompatibleVariant)
	}
}
