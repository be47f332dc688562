package glyph

import "strings"

// DeviceKind identifies one supported hardware variant.
//
// The kind is detected once at process start and is immutable afterwards.
// Channel layouts, animation timings, and zone groupings are all keyed by it.
type DeviceKind string

// Supported hardware variants. KindUnknown is the fallback for hosts the
// daemon does not recognise: session control keeps working, but every
// animation entrypoint refuses to start on it.
const (
	KindPhone1      DeviceKind = "phone1"
	KindPhone2      DeviceKind = "phone2"
	KindPhone2a     DeviceKind = "phone2a"
	KindPhone2aPlus DeviceKind = "phone2a-plus"
	KindPhone3a     DeviceKind = "phone3a"
	KindUnknown     DeviceKind = "unknown"
)

// Kinds lists every recognised hardware variant, in detection order.
func Kinds() []DeviceKind {
	return []DeviceKind{KindPhone1, KindPhone2, KindPhone2a, KindPhone2aPlus, KindPhone3a}
}

// IsRecognised reports whether k names a variant with a dedicated profile.
func (k DeviceKind) IsRecognised() bool {
	switch k {
	case KindPhone1, KindPhone2, KindPhone2a, KindPhone2aPlus, KindPhone3a:
		return true
	default:
		return false
	}
}

// modelAliases maps normalised host model strings to device kinds.
// Both marketing names and board model codes are accepted.
var modelAliases = map[string]DeviceKind{
	"phone1":      KindPhone1,
	"phone(1)":    KindPhone1,
	"a063":        KindPhone1,
	"phone2":      KindPhone2,
	"phone(2)":    KindPhone2,
	"a065":        KindPhone2,
	"phone2a":     KindPhone2a,
	"phone(2a)":   KindPhone2a,
	"a142":        KindPhone2a,
	"phone2aplus": KindPhone2aPlus,
	"phone(2a+)":  KindPhone2aPlus,
	"a059":        KindPhone2aPlus,
	"phone3a":     KindPhone3a,
	"phone(3a)":   KindPhone3a,
	"a059p":       KindPhone3a,
}

// DetectKind resolves a host model string to a DeviceKind.
//
// Matching is case-insensitive and ignores spaces and dashes, so
// "Phone (2a)", "phone2a" and "A142" all resolve to KindPhone2a.
// Unrecognised models return KindUnknown.
func DetectKind(model string) DeviceKind {
	normalised := strings.ToLower(model)
	normalised = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(normalised)
	if kind, ok := modelAliases[normalised]; ok {
		return kind
	}
	return KindUnknown
}
