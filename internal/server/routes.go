package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/strata-agent/strata/internal/engine"
	"github.com/strata-agent/strata/internal/store"
)

func (s *Server) handleAddTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Role      string `json:"role"`
		Text      string `json:"text"`
		NoExtract bool   `json:"no_extract"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	turn := &store.Turn{
		SessionID: req.SessionID,
		Role:      req.Role,
		Text:      req.Text,
	}
	results, err := s.engine.IngestTurn(r.Context(), turn, req.NoExtract, s.cfg)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if results == nil {
		results = []engine.ExtractResult{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"turn_id":   turn.ID,
		"extracted": results,
	})
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id parameter required")
		return
	}

	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}

	ctx, err := s.engine.AssembleContext(sessionID, k, s.cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ctx.ShortTerm == nil {
		ctx.ShortTerm = []store.Turn{}
	}
	if ctx.MidTerm == nil {
		ctx.MidTerm = []store.Memory{}
	}
	writeJSON(w, http.StatusOK, ctx)
}

func (s *Server) handleRunGC(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.RunGC(time.Now().UnixMilli(), s.cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	layer := r.URL.Query().Get("layer")

	switch layer {
	case "", store.LayerMid, store.LayerLong:
	default:
		writeError(w, http.StatusBadRequest, "layer must be mid or long")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	memories, err := s.db.SearchMemories(layer, query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if memories == nil {
		memories = []store.Memory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(memories),
		"memories": memories,
	})
}

func (s *Server) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string   `json:"content"`
		Layer      string   `json:"layer"`
		Importance bool     `json:"importance"`
		Tags       []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}
	switch req.Layer {
	case "":
		req.Layer = store.LayerMid
	case store.LayerMid, store.LayerLong:
	default:
		writeError(w, http.StatusBadRequest, "layer must be mid or long")
		return
	}

	// Manual memories start at zero hits: they earn promotion the same way
	// extracted ones do.
	mem := &store.Memory{
		Layer:      req.Layer,
		Content:    req.Content,
		Importance: req.Importance,
		Tags:       req.Tags,
	}
	err := s.db.WithTx(func(st *store.Store) error {
		if err := st.InsertMemory(mem); err != nil {
			return err
		}
		return st.AddEvent(mem.ID, store.ActionCreated, "manual")
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, mem)
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "memoryID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	var req struct {
		Status  *string   `json:"status"`
		Content *string   `json:"content"`
		Tags    *[]string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	mem, err := s.db.GetMemory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if mem == nil {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case store.StatusArchived, store.StatusDeleted:
		default:
			writeError(w, http.StatusBadRequest, "status must be archived or deleted")
			return
		}
	}

	err = s.db.WithTx(func(st *store.Store) error {
		if req.Content != nil {
			if err := st.UpdateContent(id, *req.Content); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := st.UpdateTags(id, *req.Tags); err != nil {
				return err
			}
		}
		if req.Status != nil {
			if err := st.TransitionStatus(id, *req.Status); err != nil {
				return err
			}
			action := store.ActionArchived
			if *req.Status == store.StatusDeleted {
				action = store.ActionDeleted
			}
			return st.AddEvent(id, action, "manual")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	mem, err = s.db.GetMemory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "memoryID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	exp, err := s.engine.Explain(id, time.Now().UnixMilli(), s.cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if exp == nil {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	writeJSON(w, http.StatusOK, exp)
}
