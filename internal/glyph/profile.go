package glyph

// Zone names a logical group of channels on the glyph array.
//
// Zone membership is device-specific: the C ring is 4 channels on a
// Phone (1) and 16 on a Phone (2), and some variants have no D ring or E
// strip at all.
type Zone string

// Logical zones shared across all variants that carry them.
const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C" // camera ring
	ZoneD Zone = "D" // lower ring / strip
	ZoneE Zone = "E" // dot / exclamation strip
)

// ZoneRange maps a zone to a contiguous, half-open channel index range
// [Start, End) on one hardware variant.
type ZoneRange struct {
	Zone  Zone
	Start int
	End   int
}

// Len returns the number of channels in the range.
func (r ZoneRange) Len() int { return r.End - r.Start }

// DeviceProfile is the static channel layout table for one hardware variant.
//
// Invariant: the ranges are listed in channel order, are disjoint, and their
// union covers exactly [0, ChannelCount()). The profile for KindUnknown is a
// small generic strip that keeps channel arithmetic well-defined on hosts
// the daemon does not recognise.
type DeviceProfile struct {
	Kind  DeviceKind
	Zones []ZoneRange
}

// profiles is the per-variant layout table. Channel counts are part of the
// hardware contract: 15 / 33 / 26 / 26 / 36.
var profiles = map[DeviceKind]*DeviceProfile{
	KindPhone1: {
		Kind: KindPhone1,
		Zones: []ZoneRange{
			{ZoneA, 0, 1},
			{ZoneB, 1, 2},
			{ZoneC, 2, 6},
			{ZoneD, 6, 14},
			{ZoneE, 14, 15},
		},
	},
	KindPhone2: {
		Kind: KindPhone2,
		Zones: []ZoneRange{
			{ZoneA, 0, 3},
			{ZoneB, 3, 4},
			{ZoneC, 4, 20},
			{ZoneD, 20, 28},
			{ZoneE, 28, 33},
		},
	},
	KindPhone2a: {
		Kind: KindPhone2a,
		Zones: []ZoneRange{
			{ZoneC, 0, 24},
			{ZoneA, 24, 25},
			{ZoneB, 25, 26},
		},
	},
	KindPhone2aPlus: {
		Kind: KindPhone2aPlus,
		Zones: []ZoneRange{
			{ZoneC, 0, 24},
			{ZoneA, 24, 25},
			{ZoneB, 25, 26},
		},
	},
	KindPhone3a: {
		Kind: KindPhone3a,
		Zones: []ZoneRange{
			{ZoneA, 0, 20},
			{ZoneB, 20, 31},
			{ZoneC, 31, 36},
		},
	},
	KindUnknown: {
		Kind: KindUnknown,
		Zones: []ZoneRange{
			{ZoneA, 0, 3},
		},
	},
}

// Profile returns the channel layout for a device kind.
// Unrecognised kinds get the generic fallback profile.
func Profile(kind DeviceKind) *DeviceProfile {
	if p, ok := profiles[kind]; ok {
		return p
	}
	return profiles[KindUnknown]
}

// ChannelCount returns the total number of addressable channels.
func (p *DeviceProfile) ChannelCount() int {
	total := 0
	for _, r := range p.Zones {
		total += r.Len()
	}
	return total
}

// Channels returns the channel indices belonging to a zone, in order.
// Zones absent on this variant return nil.
func (p *DeviceProfile) Channels(zone Zone) []int {
	for _, r := range p.Zones {
		if r.Zone != zone {
			continue
		}
		channels := make([]int, 0, r.Len())
		for ch := r.Start; ch < r.End; ch++ {
			channels = append(channels, ch)
		}
		return channels
	}
	return nil
}

// HasZone reports whether the variant carries the given zone.
func (p *DeviceProfile) HasZone(zone Zone) bool {
	for _, r := range p.Zones {
		if r.Zone == zone {
			return true
		}
	}
	return false
}

// PrimaryZone returns the largest zone on the variant. It is the zone the
// battery visualization fills and the default target for zone animations.
func (p *DeviceProfile) PrimaryZone() Zone {
	best := ZoneRange{}
	for _, r := range p.Zones {
		if r.Len() > best.Len() {
			best = r
		}
	}
	return best.Zone
}

// AllChannels returns every channel index on the variant, in order.
func (p *DeviceProfile) AllChannels() []int {
	channels := make([]int, 0, p.ChannelCount())
	for _, r := range p.Zones {
		for ch := r.Start; ch < r.End; ch++ {
			channels = append(channels, ch)
		}
	}
	return channels
}
