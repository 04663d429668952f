package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/SA0000000/rwfifo-io/iosched"
)

type requestView struct {
	ID          string `json:"id"`
	Direction   string `json:"direction"`
	Sector      uint64 `json:"sector"`
	Sectors     uint64 `json:"sectors"`
	ArrivalTime int64  `json:"arrival_time"`
}

func viewOf(r *iosched.Request) requestView {
	return requestView{
		ID:          r.ID,
		Direction:   r.Dir.String(),
		Sector:      r.Sector,
		Sectors:     r.Sectors,
		ArrivalTime: r.ArrivalTime,
	}
}

type admitBody struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
	Sector    uint64 `json:"sector"`
	Sectors   uint64 `json:"sectors"`
}

type attrBody struct {
	Value string `json:"value"`
}

type statusView struct {
	Elevator string            `json:"elevator"`
	Idle     bool              `json:"idle"`
	Pending  int               `json:"pending"`
	Counters *iosched.Counters `json:"counters,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st statusView
	s.elevator.Do(func(e iosched.Elevator) {
		st.Elevator = e.Name()
		st.Idle = e.Idle()
		st.Pending = len(s.pending)
		if c, ok := iosched.CountersOf(e); ok {
			st.Counters = &c
		}
	})
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListAttrs(w http.ResponseWriter, r *http.Request) {
	attrs := make(map[string]string)
	for _, name := range s.elevator.AttrNames() {
		v, err := s.elevator.ShowAttr(name)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		attrs[name] = v
	}
	writeJSON(w, http.StatusOK, attrs)
}

func (s *Server) handleShowAttr(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, err := s.elevator.ShowAttr(name)
	if err != nil {
		writeAttrError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "value": v})
}

func (s *Server) handleStoreAttr(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body attrBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if err := s.elevator.StoreAttr(name, body.Value); err != nil {
		writeAttrError(w, err)
		return
	}
	v, _ := s.elevator.ShowAttr(name)
	logrus.Infof("tunable %s set to %s", name, v)
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "value": v})
}

func (s *Server) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var body admitBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	dir, err := iosched.ParseDirection(body.Direction)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Sectors == 0 {
		writeJSONError(w, http.StatusBadRequest, "sectors must be >= 1")
		return
	}
	if body.ID == "" {
		body.ID = s.newID()
	}

	req := iosched.NewRequest(body.ID, dir, body.Sector, body.Sectors, s.now())
	conflict := false
	s.elevator.Do(func(e iosched.Elevator) {
		if _, dup := s.pending[req.ID]; dup {
			conflict = true
			return
		}
		e.Admit(req)
		s.pending[req.ID] = req
	})
	if conflict {
		writeJSONError(w, http.StatusConflict, fmt.Sprintf("request %s is already pending", req.ID))
		return
	}
	logrus.Debugf("admitted %s", req)
	writeJSON(w, http.StatusCreated, viewOf(req))
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req *iosched.Request
	s.elevator.Do(func(e iosched.Elevator) {
		req = e.Dispatch()
		if req != nil {
			delete(s.pending, req.ID)
		}
	})
	if req == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(req))
}

func writeAttrError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, iosched.ErrUnknownAttribute):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, iosched.ErrInvalidAttribute):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.Warnf("writing response: %v", err)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    http.StatusText(status),
			"message": message,
		},
	})
}
