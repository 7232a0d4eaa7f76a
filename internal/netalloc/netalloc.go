// Package netalloc carves subnets out of an IPv4 network block.
//
// Allocation walks forward from the base address one network at a time with
// cidr.NextSubnet: the first subnet is the network after base/subnetBits, so
// 10.0.0.0/16 split into /24s yields 10.0.1.0/24, 10.0.2.0/24 and so on.
package netalloc

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/apparentlymart/go-cidr/cidr"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// Subnet is one allocated block bound to an availability zone.
type Subnet struct {
	Block   netip.Prefix
	Zone    string
	Ordinal int
}

// ParseBlock builds an IPv4 network block from an address and prefix size.
func ParseBlock(address string, bits int) (netip.Prefix, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: base address %q: %v", stackplan.ErrInvalidConfiguration, address, err)
	}
	if !addr.Is4() {
		return netip.Prefix{}, fmt.Errorf("%w: base address %q is not IPv4", stackplan.ErrInvalidConfiguration, address)
	}
	if bits < 0 || bits > 32 {
		return netip.Prefix{}, fmt.Errorf("%w: prefix size %d out of range", stackplan.ErrInvalidConfiguration, bits)
	}
	prefix := netip.PrefixFrom(addr, bits)
	if prefix.Masked() != prefix {
		return netip.Prefix{}, fmt.Errorf("%w: %s has host bits set", stackplan.ErrInvalidConfiguration, prefix)
	}
	return prefix, nil
}

// NextNetwork returns the network of the same size that follows p.
// It returns false when p is the last network of the IPv4 space.
func NextNetwork(p netip.Prefix) (netip.Prefix, bool) {
	next, rolledOver := cidr.NextSubnet(toIPNet(p.Masked()), p.Bits())
	if rolledOver {
		return netip.Prefix{}, false
	}
	return fromIPNet(next)
}

// Allocate returns min(maxCount, len(zones)) subnets of size subnetBits
// inside base, the i-th bound to zones[i].
//
// When base runs out before every subnet is allocated, the subnets produced
// so far are returned together with an error wrapping
// stackplan.ErrAddressSpaceExhausted.
func Allocate(base netip.Prefix, subnetBits int, zones []string, maxCount int) ([]Subnet, error) {
	if !base.Addr().Is4() {
		return nil, fmt.Errorf("%w: base block %s is not IPv4", stackplan.ErrInvalidConfiguration, base)
	}
	if subnetBits < base.Bits() || subnetBits > 32 {
		return nil, fmt.Errorf("%w: subnet size /%d does not fit in %s", stackplan.ErrInvalidConfiguration, subnetBits, base)
	}

	count := min(maxCount, len(zones))
	if count <= 0 {
		return nil, nil
	}

	base = base.Masked()
	cursor := netip.PrefixFrom(base.Addr(), subnetBits)
	subnets := make([]Subnet, 0, count)
	for i := 0; i < count; i++ {
		next, ok := NextNetwork(cursor)
		if !ok || !base.Contains(next.Addr()) {
			return subnets, fmt.Errorf("%w: %s holds %d of %d /%d subnets",
				stackplan.ErrAddressSpaceExhausted, base, len(subnets), count, subnetBits)
		}
		subnets = append(subnets, Subnet{Block: next, Zone: zones[i], Ordinal: i})
		cursor = next
	}
	return subnets, nil
}

// Overlaps returns an error naming the first pair of overlapping subnets.
func Overlaps(subnets []Subnet) error {
	for i := range subnets {
		for j := i + 1; j < len(subnets); j++ {
			if subnets[i].Block.Overlaps(subnets[j].Block) {
				return fmt.Errorf("subnet %d (%s) overlaps subnet %d (%s)",
					subnets[i].Ordinal, subnets[i].Block, subnets[j].Ordinal, subnets[j].Block)
			}
		}
	}
	return nil
}

func toIPNet(p netip.Prefix) *net.IPNet {
	return &net.IPNet{
		IP:   net.IP(p.Addr().AsSlice()),
		Mask: net.CIDRMask(p.Bits(), p.Addr().BitLen()),
	}
}

func fromIPNet(n *net.IPNet) (netip.Prefix, bool) {
	addr, ok := netip.AddrFromSlice(n.IP)
	if !ok {
		return netip.Prefix{}, false
	}
	bits, _ := n.Mask.Size()
	return netip.PrefixFrom(addr.Unmap(), bits), true
}
