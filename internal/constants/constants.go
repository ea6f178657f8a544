package constants

import "errors"

// HidePatterns returns the globs the FAT hide step walks, in order.
// GBI, MCBACKUP and swiss are directories, swiss recursively.
func HidePatterns() []string {
	return []string{"*.dol", "*.ini", "*.cli", "GBI", "MCBACKUP", "swiss"}
}

// Sentinel errors. Sites wrap these with fmt.Errorf and %w so callers can
// errors.Is against them while still seeing the offending tag/role/path.
var (
	ErrNotFound            = errors.New("no matching release")
	ErrBlacklisted         = errors.New("release tag is blacklisted for gcloader")
	ErrIncompatibleVariant = errors.New("boot-chain variant not valid for device")
	ErrMissingPayload      = errors.New("required payload not found")
	ErrExistingFile        = errors.New("file already exists")
	ErrUnsupportedArchive  = errors.New("unsupported archive format")
)

const (
	OpPreflight      = "preflight"
	OpResolveRelease = "resolve-release"
	OpFetchSwiss     = "fetch-swiss"
	OpExtractSwiss   = "extract-swiss"
	OpFetchBootChain = "fetch-bootchain"
	OpLocatePayload  = "locate-payload"
	OpBuildPlan      = "build-plan"
	OpApplyPlan      = "apply-plan"
	OpPreviewPlan    = "preview-plan"
	OpWriteReceipt   = "write-receipt"
	OpHideFiles      = "hide-files"
)

// Release sources. Fixed identities, never configurable: the gcloader
// safety check depends on knowing which repository the tags come from.
const (
	GithubAPI    = "https://api.github.com"
	SwissRepo    = "emukidid/swiss-gc"
	CubebootRepo = "OffBroadway/cubeboot"
	CubibootRepo = "makeo/cubiboot"
	UserAgent    = "swissinstall"
)

// Boot-chain asset names as published upstream.
const (
	CubebootDol = "cubeboot.dol"
	CubibootDol = "cubiboot.dol"
	CubebootIni = "cubeboot.ini"
)

// Destination paths relative to the volume root.
const (
	IplDest         = "/ipl.dol"
	BootDolDest     = "/boot.dol"
	BootIsoDest     = "/boot.iso"
	SwissGcDest     = "/swiss-gc.dol"
	CubebootIniDest = "/cubeboot.ini"
	SwissDirDest    = "/swiss"
	ApploaderDest   = "/swiss/patches/apploader.img"
	ReceiptDest     = "/swissinstall.state.yaml"
)

// Swiss builds in this closed range brick GCLoader drives. Implicit
// selection skips them, an explicit --tag pin fails loudly.
const (
	GcloaderBadSeries  = "0.6"
	GcloaderBadFloor   = 1695
	GcloaderBadCeiling = 1867
)
