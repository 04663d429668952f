package host

import (
	"github.com/tidwall/btree"

	"github.com/SA0000000/rwfifo-io/iosched"
)

// mergeIndex orders the requests currently queued in the elevator by
// (direction, start sector, ID) so sector-adjacent candidates can be found
// without walking the FIFOs.
type mergeIndex struct {
	tree *btree.BTreeG[*iosched.Request]
}

func newMergeIndex() *mergeIndex {
	return &mergeIndex{
		tree: btree.NewBTreeG(func(a, b *iosched.Request) bool {
			if a.Dir != b.Dir {
				return a.Dir < b.Dir
			}
			if a.Sector != b.Sector {
				return a.Sector < b.Sector
			}
			return a.ID < b.ID
		}),
	}
}

func (m *mergeIndex) insert(r *iosched.Request) { m.tree.Set(r) }

// delete must be called before any change to r.Sector.
func (m *mergeIndex) delete(r *iosched.Request) { m.tree.Delete(r) }

func (m *mergeIndex) len() int { return m.tree.Len() }

// backCandidate returns a queued request of r's direction that ends exactly
// where r starts, scanning no further back than maxSectors.
func (m *mergeIndex) backCandidate(r *iosched.Request, maxSectors uint64) *iosched.Request {
	var found *iosched.Request
	pivot := &iosched.Request{Dir: r.Dir, Sector: r.Sector}
	m.tree.Descend(pivot, func(it *iosched.Request) bool {
		if it.Dir != r.Dir || it.Sector+maxSectors < r.Sector {
			return false
		}
		if it.End() == r.Sector {
			found = it
			return false
		}
		return true
	})
	return found
}

// frontCandidate returns a queued request of r's direction that starts
// exactly where r ends.
func (m *mergeIndex) frontCandidate(r *iosched.Request) *iosched.Request {
	var found *iosched.Request
	pivot := &iosched.Request{Dir: r.Dir, Sector: r.End()}
	m.tree.Ascend(pivot, func(it *iosched.Request) bool {
		if it.Dir == r.Dir && it.Sector == r.End() {
			found = it
		}
		return false
	})
	return found
}
