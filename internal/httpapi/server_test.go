package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SA0000000/rwfifo-io/iosched"
)

func newTestServer(t *testing.T, e iosched.Elevator) (*Server, *httptest.Server) {
	t.Helper()
	s := New(iosched.NewLocked(e))
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func admit(t *testing.T, ts *httptest.Server, id, dir string) *http.Response {
	t.Helper()
	resp, _ := do(t, http.MethodPost, ts.URL+"/v1/requests",
		fmt.Sprintf(`{"id":%q,"direction":%q,"sector":0,"sectors":8}`, id, dir))
	return resp
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestAdmitAndDispatch_FollowPolicy(t *testing.T) {
	// GIVEN R1, R2 and five writes admitted over HTTP
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	for _, id := range []string{"R1", "R2"} {
		require.Equal(t, http.StatusCreated, admit(t, ts, id, "read").StatusCode)
	}
	for i := 1; i <= 5; i++ {
		require.Equal(t, http.StatusCreated, admit(t, ts, fmt.Sprintf("W%d", i), "write").StatusCode)
	}

	// WHEN dispatching until empty
	var got []string
	for {
		resp, body := do(t, http.MethodPost, ts.URL+"/v1/dispatch", "")
		if resp.StatusCode == http.StatusNoContent {
			break
		}
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got = append(got, body["id"].(string))
	}

	// THEN the order matches the elevator's policy
	assert.Equal(t, []string{"R1", "R2", "W1", "W2", "W3", "W4", "W5"}, got)
}

func TestAdmit_GeneratesIDWhenOmitted(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	resp, body := do(t, http.MethodPost, ts.URL+"/v1/requests", `{"direction":"w","sector":64,"sectors":8}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, body["id"], 36)
	assert.Equal(t, "write", body["direction"])
	assert.EqualValues(t, 64, body["sector"])
}

func TestAdmit_DuplicatePendingIDConflicts(t *testing.T) {
	s, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	require.Equal(t, http.StatusCreated, admit(t, ts, "R1", "read").StatusCode)

	// WHEN the same ID is admitted while still pending
	resp, body := do(t, http.MethodPost, ts.URL+"/v1/requests", `{"id":"R1","direction":"read","sectors":8}`)

	// THEN it is rejected and the queue is unchanged
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["error"].(map[string]any)["message"], "already pending")
	assert.Equal(t, 1, s.Pending())

	// once dispatched the ID may be reused
	resp, _ = do(t, http.MethodPost, ts.URL+"/v1/dispatch", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusCreated, admit(t, ts, "R1", "read").StatusCode)
}

func TestAdmit_BadInput(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	cases := map[string]string{
		"malformed":      `{"direction":`,
		"bad direction":  `{"direction":"sideways","sectors":8}`,
		"zero sectors":   `{"direction":"read","sectors":0}`,
		"wrong type":     `{"direction":"read","sectors":"eight"}`,
		"missing fields": `{}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := do(t, http.MethodPost, ts.URL+"/v1/requests", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, out, "error")
		})
	}
}

func TestDispatch_EmptyReturnsNoContent(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	resp, _ := do(t, http.MethodPost, ts.URL+"/v1/dispatch", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStatus_ReportsCounters(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	admit(t, ts, "R1", "read")
	admit(t, ts, "W1", "write")
	do(t, http.MethodPost, ts.URL+"/v1/dispatch", "")

	resp, body := do(t, http.MethodGet, ts.URL+"/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rwfifo", body["elevator"])
	assert.Equal(t, false, body["idle"])
	assert.EqualValues(t, 1, body["pending"])
	counters := body["counters"].(map[string]any)
	assert.EqualValues(t, 1, counters["read_count"])
	assert.EqualValues(t, 1, counters["writes_pending"])
}

func TestStatus_NoopHasNoCounters(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewNoop())
	_, body := do(t, http.MethodGet, ts.URL+"/v1/status", "")
	assert.Equal(t, "noop", body["elevator"])
	assert.Equal(t, true, body["idle"])
	assert.NotContains(t, body, "counters")
}

func TestAttrs_ShowAndStore(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))

	_, all := do(t, http.MethodGet, ts.URL+"/v1/attrs", "")
	assert.Equal(t, "3", all["max_reads"])
	assert.Equal(t, "1", all["front_merges"])

	resp, body := do(t, http.MethodPut, ts.URL+"/v1/attrs/max_reads", `{"value":"1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", body["value"])

	_, body = do(t, http.MethodGet, ts.URL+"/v1/attrs/max_reads", "")
	assert.Equal(t, "1", body["value"])

	// the new threshold drives dispatch: one read, then a write
	admit(t, ts, "R1", "read")
	admit(t, ts, "R2", "read")
	admit(t, ts, "W1", "write")
	var got []string
	for i := 0; i < 3; i++ {
		_, b := do(t, http.MethodPost, ts.URL+"/v1/dispatch", "")
		got = append(got, b["id"].(string))
	}
	assert.Equal(t, []string{"R1", "W1", "R2"}, got)
}

func TestAttrs_Errors(t *testing.T) {
	_, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))

	resp, _ := do(t, http.MethodGet, ts.URL+"/v1/attrs/bogus", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/v1/attrs/bogus", `{"value":"1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/v1/attrs/max_reads", `{"value":"0"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/v1/attrs/max_reads", `{"value":"many"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/v1/attrs/max_reads", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// noop has no tunables at all
	_, noop := newTestServer(t, iosched.NewNoop())
	resp, _ = do(t, http.MethodGet, noop.URL+"/v1/attrs/max_reads", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConcurrentAdmitDispatch_NoLossNoDuplicates(t *testing.T) {
	s, ts := newTestServer(t, iosched.NewRWFIFO(iosched.DefaultConfig()))
	const producers, perProducer = 4, 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				dir := "read"
				if i%3 == 0 {
					dir = "write"
				}
				body := fmt.Sprintf(`{"id":"p%d-%d","direction":%q,"sectors":8}`, p, i, dir)
				resp, err := http.Post(ts.URL+"/v1/requests", "application/json", strings.NewReader(body))
				if !assert.NoError(t, err) {
					return
				}
				resp.Body.Close()
				assert.Equal(t, http.StatusCreated, resp.StatusCode)
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for {
		resp, body := do(t, http.MethodPost, ts.URL+"/v1/dispatch", "")
		if resp.StatusCode == http.StatusNoContent {
			break
		}
		id := body["id"].(string)
		assert.False(t, seen[id], "dispatched twice: %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, producers*perProducer)
	assert.Zero(t, s.Pending())
}
