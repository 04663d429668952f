package iosched

func rd(id string) *Request { return NewRequest(id, Read, 0, 8, 0) }
func wr(id string) *Request { return NewRequest(id, Write, 0, 8, 0) }

// drainIDs dispatches until the elevator is empty and returns the IDs in order.
func drainIDs(e Elevator) []string {
	var ids []string
	for r := e.Dispatch(); r != nil; r = e.Dispatch() {
		ids = append(ids, r.ID)
	}
	return ids
}

// dirs renders a dispatch sequence as a string of R/W letters.
func dirs(reqs []*Request) string {
	b := make([]byte, len(reqs))
	for i, r := range reqs {
		if r.Dir == Read {
			b[i] = 'R'
		} else {
			b[i] = 'W'
		}
	}
	return string(b)
}
