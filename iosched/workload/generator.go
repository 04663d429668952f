package workload

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/SA0000000/rwfifo-io/iosched"
)

// Generate produces the requests described by spec, sorted by arrival time
// (ties broken by ID). Output is fully determined by the spec and its seed.
func Generate(spec *Spec) ([]*iosched.Request, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}
	rngs := NewPartitionedRNG(spec.Seed)

	var all []*iosched.Request
	for i := range spec.Streams {
		st := &spec.Streams[i]
		reqs := generateStream(st, rngs, spec.Horizon, spec.NumRequests)
		logrus.Debugf("workload: stream %s generated %d requests", st.ID, len(reqs))
		all = append(all, reqs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ArrivalTime != all[j].ArrivalTime {
			return all[i].ArrivalTime < all[j].ArrivalTime
		}
		return all[i].ID < all[j].ID
	})
	if spec.NumRequests > 0 && int64(len(all)) > spec.NumRequests {
		all = all[:spec.NumRequests]
	}
	logrus.Infof("workload: %d requests from %d streams", len(all), len(spec.Streams))
	return all, nil
}

// generateStream emits one stream's requests. Each stream is capped at
// numRequests on its own; Generate truncates the merged result.
func generateStream(st *StreamSpec, rngs *PartitionedRNG, horizon, numRequests int64) []*iosched.Request {
	rng := rngs.ForStream(st.ID)
	sampler := NewArrivalSampler(st.Arrival, st.Rate)

	var reqs []*iosched.Request
	clock := int64(0)
	cursor := st.StartSector
	for n := int64(0); numRequests == 0 || n < numRequests; n++ {
		clock += sampler.SampleIAT(rng)
		if horizon > 0 && clock > horizon {
			break
		}

		dir := iosched.Read
		switch st.Direction {
		case "write":
			dir = iosched.Write
		case "mixed":
			if rng.Float64() >= st.ReadFraction {
				dir = iosched.Write
			}
		}

		var sector uint64
		if st.Sequential {
			if st.SectorSpan > 0 && cursor+st.RequestSectors > st.StartSector+st.SectorSpan {
				cursor = st.StartSector
			}
			sector = cursor
			cursor += st.RequestSectors
		} else {
			slots := st.SectorSpan / st.RequestSectors
			sector = st.StartSector + uint64(rng.Int63n(int64(slots)))*st.RequestSectors
		}

		id := fmt.Sprintf("%s_%d", st.ID, n)
		reqs = append(reqs, iosched.NewRequest(id, dir, sector, st.RequestSectors, clock))
	}
	return reqs
}
