package akm

// addrList is a sorted, fixed-width, raw-byte peer address table. Addresses
// are compared byte-wise from the highest-index byte down to the lowest
// (little-endian numeric order if the bytes encode a little-endian integer).
// The table is strictly ascending under this order with no duplicates.
type addrList struct {
	data  []byte
	width int
}

// newAddrList copies raw into a new addrList of the given address width.
func newAddrList(raw []byte, width int) addrList {
	data := make([]byte, len(raw))
	copy(data, raw)
	return addrList{data: data, width: width}
}

// len returns the number of addresses in the table.
func (l *addrList) len() int {
	if l.width == 0 {
		return 0
	}
	return len(l.data) / l.width
}

// at returns the address at index i.
func (l *addrList) at(i int) []byte {
	return l.data[i*l.width : (i+1)*l.width]
}

// compareAddrs orders a and b under reverse-byte lexicographic order: the
// highest-index byte is the most significant.
func compareAddrs(a, b []byte) int {
	for i := len(a) - 1; i >= 0; i-- {
		if d := int(a[i]) - int(b[i]); d != 0 {
			return d
		}
	}
	return 0
}

// isSortedNoDups reports whether raw holds addrNum addresses of the given
// width in strictly ascending reverse-byte order with no duplicates.
func isSortedNoDups(raw []byte, addrNum, width int) bool {
	if width < 1 {
		return false
	}
	if addrNum < 2 {
		return true
	}
	for i := 1; i < addrNum; i++ {
		prev := raw[(i-1)*width : i*width]
		cur := raw[i*width : (i+1)*width]
		if compareAddrs(prev, cur) >= 0 {
			return false
		}
	}
	return true
}

// find returns the index of address in the table, or -1 if absent.
//
// The reference implementation special-cases single-byte addresses with a
// dedicated search function; that optimization buys nothing in Go once the
// comparator is already O(width), so this is the one implementation used for
// every width.
func (l *addrList) find(address []byte) int {
	lo, hi := 0, l.len()
	for lo < hi {
		mid := lo + (hi-lo)/2
		c := compareAddrs(address, l.at(mid))
		switch {
		case c < 0:
			hi = mid
		case c > 0:
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}

// removeAt deletes the address at index i, preserving order.
func (l *addrList) removeAt(i int) {
	l.data = append(l.data[:i*l.width], l.data[(i+1)*l.width:]...)
}
