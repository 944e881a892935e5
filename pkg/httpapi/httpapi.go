// Package httpapi is the thin chi HTTP surface wrapping the
// many-to-many table engine, in the teacher's own handler shape
// (pkg/server/mm_rest/handlers.go): render.Bind onto a request struct,
// go-playground/validator with the English translator for field
// errors, render.Render for the error/response envelope. The HTTP
// layer has no algorithm awareness of its own — it only shapes
// requests into facade.PhantomNode and manytomany.Search calls.
package httpapi

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"routingtable/internal/metrics"
	"routingtable/internal/tablecache"
	"routingtable/pkg/facade"
	"routingtable/pkg/ids"
	"routingtable/pkg/manytomany"
)

// SegmentRequest is the wire shape of a facade.SegmentID.
type SegmentRequest struct {
	Node    int32 `json:"node"`
	Enabled bool  `json:"enabled"`
}

// PhantomRequest is the wire shape of a facade.PhantomNode: already
// snapped segment ids plus injection offsets. Building these from raw
// coordinates is out of this module's scope; callers snap first.
type PhantomRequest struct {
	ForwardSegment SegmentRequest `json:"forward_segment"`
	ReverseSegment SegmentRequest `json:"reverse_segment"`

	SourceForwardWeight   int32 `json:"source_forward_weight"`
	SourceForwardDuration int32 `json:"source_forward_duration"`
	SourceReverseWeight   int32 `json:"source_reverse_weight"`
	SourceReverseDuration int32 `json:"source_reverse_duration"`
	TargetForwardWeight   int32 `json:"target_forward_weight"`
	TargetForwardDuration int32 `json:"target_forward_duration"`
	TargetReverseWeight   int32 `json:"target_reverse_weight"`
	TargetReverseDuration int32 `json:"target_reverse_duration"`
}

// TableRequest is the POST /api/v1/table request body.
type TableRequest struct {
	Phantoms  []PhantomRequest `json:"phantoms" validate:"required,min=1,dive"`
	SourceIdx []int            `json:"source_idx"`
	TargetIdx []int            `json:"target_idx"`
}

// Bind mirrors the teacher's render.Binder implementations: a minimal
// structural check beyond what validator tags express.
func (t *TableRequest) Bind(r *http.Request) error {
	if len(t.Phantoms) == 0 {
		return errors.New("phantoms must not be empty")
	}
	return nil
}

// TableResponse is the POST /api/v1/table response body: the dense
// row-major table, flattened for JSON transport.
type TableResponse struct {
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	Weights   []int32 `json:"weights"`
	Durations []int32 `json:"durations"`
}

// Handler serves the table endpoint against a CH graph, an optional
// MLD graph, and optional metrics/cache collaborators.
type Handler struct {
	chGraph  facade.LoopGraph
	mldGraph facade.MLDGraph
	metrics  *metrics.Metrics
	cache    *tablecache.Cache
}

// NewHandler builds a Handler. mldGraph, m and cache may all be nil:
// a nil mldGraph rejects engine=mld requests, a nil metrics/cache skips
// instrumentation/caching entirely.
func NewHandler(chGraph facade.LoopGraph, mldGraph facade.MLDGraph, m *metrics.Metrics, cache *tablecache.Cache) *Handler {
	return &Handler{chGraph: chGraph, mldGraph: mldGraph, metrics: m, cache: cache}
}

// Router mounts the table endpoint onto r.
func Router(r chi.Router, h *Handler) {
	r.Post("/api/v1/table", h.Table)
}

// Table handles POST /api/v1/table: validate, build (or fetch from
// cache), respond.
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	data := &TableRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if errResp := validateStruct(data); errResp != nil {
		render.Render(w, r, errResp)
		return
	}

	engineName := r.URL.Query().Get("engine")
	if engineName == "" {
		engineName = "ch"
	}

	phantoms := toPhantoms(data.Phantoms)
	if err := validateIndices(data.SourceIdx, data.TargetIdx, len(phantoms)); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	log.Printf("table request: engine=%s phantoms=%d sources=%d targets=%d", engineName, len(phantoms), len(data.SourceIdx), len(data.TargetIdx))

	if h.cache != nil {
		key := tablecache.Key(engineName, phantoms, data.SourceIdx, data.TargetIdx)
		if cached, ok, err := h.cache.Get(key); err == nil && ok {
			log.Printf("table request: engine=%s cache hit", engineName)
			render.Status(r, http.StatusOK)
			render.JSON(w, r, toResponse(cached))
			return
		}
	}

	table, err := h.build(engineName, phantoms, data.SourceIdx, data.TargetIdx)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if h.cache != nil {
		key := tablecache.Key(engineName, phantoms, data.SourceIdx, data.TargetIdx)
		_ = h.cache.Set(key, table)
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponse(table))
}

func (h *Handler) build(engineName string, phantoms []facade.PhantomNode, sourceIdx, targetIdx []int) (*manytomany.Table, error) {
	start := time.Now()
	var table *manytomany.Table
	var settled int
	switch engineName {
	case "ch":
		eng := manytomany.NewCHEngine(h.chGraph)
		table = manytomany.Search(eng, h.chGraph.NumberOfNodes(), nil, phantoms, sourceIdx, targetIdx)
		settled = eng.SettledCount()
	case "mld":
		if h.mldGraph == nil {
			return nil, fmt.Errorf("mld engine not configured")
		}
		eng := manytomany.NewMLDEngine(h.mldGraph)
		table = manytomany.Search(eng, h.mldGraph.NumberOfNodes(), h.mldGraph.Partition(), phantoms, sourceIdx, targetIdx)
		settled = eng.SettledCount()
	default:
		return nil, fmt.Errorf("unknown engine %q, want \"ch\" or \"mld\"", engineName)
	}
	elapsed := time.Since(start)
	log.Printf("time for building %s table: %v, %d nodes settled", engineName, elapsed, settled)
	if h.metrics != nil {
		h.metrics.ObserveTableBuild(engineName, "ok", elapsed, settled)
	}
	return table, nil
}

func validateIndices(sourceIdx, targetIdx []int, n int) error {
	for _, i := range sourceIdx {
		if i < 0 || i >= n {
			return fmt.Errorf("source_idx %d out of range [0,%d)", i, n)
		}
	}
	for _, i := range targetIdx {
		if i < 0 || i >= n {
			return fmt.Errorf("target_idx %d out of range [0,%d)", i, n)
		}
	}
	return nil
}

func toPhantoms(reqs []PhantomRequest) []facade.PhantomNode {
	out := make([]facade.PhantomNode, len(reqs))
	for i, p := range reqs {
		out[i] = facade.PhantomNode{
			ForwardSegment: facade.SegmentID{Node: ids.NodeID(p.ForwardSegment.Node), Enabled: p.ForwardSegment.Enabled},
			ReverseSegment: facade.SegmentID{Node: ids.NodeID(p.ReverseSegment.Node), Enabled: p.ReverseSegment.Enabled},

			SourceForwardWeight:   ids.Weight(p.SourceForwardWeight),
			SourceForwardDuration: ids.Duration(p.SourceForwardDuration),
			SourceReverseWeight:   ids.Weight(p.SourceReverseWeight),
			SourceReverseDuration: ids.Duration(p.SourceReverseDuration),
			TargetForwardWeight:   ids.Weight(p.TargetForwardWeight),
			TargetForwardDuration: ids.Duration(p.TargetForwardDuration),
			TargetReverseWeight:   ids.Weight(p.TargetReverseWeight),
			TargetReverseDuration: ids.Duration(p.TargetReverseDuration),
		}
	}
	return out
}

func toResponse(t *manytomany.Table) *TableResponse {
	weights := make([]int32, len(t.Weights))
	for i, w := range t.Weights {
		weights[i] = int32(w)
	}
	durations := make([]int32, len(t.Durations))
	for i, d := range t.Durations {
		durations[i] = int32(d)
	}
	return &TableResponse{Rows: t.Rows, Cols: t.Cols, Weights: weights, Durations: durations}
}

// validateStruct runs go-playground/validator over data and, on
// failure, translates field errors to English the way the teacher's
// handlers do (validate.Struct + en translator registered inline per
// call, matching pkg/server/mm_rest/handlers.go — this is a low-volume
// admin-style endpoint, not a hot path, so a translator built per
// request is not worth caching).
func validateStruct(data *TableRequest) render.Renderer {
	validate := validator.New()
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return errValidation(err, translateError(err, trans))
}

// ErrResponse is the teacher's own error envelope shape
// (pkg/server/mm_rest/handlers.go's ErrResponse).
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText    string   `json:"status"`
	ErrorText     string   `json:"error,omitempty"`
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest wraps a malformed-request error as a 400 response.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, StatusText: "Invalid request.", ErrorText: err.Error()}
}

func errValidation(err error, fieldErrs []error) render.Renderer {
	vv := make([]string, 0, len(fieldErrs))
	for _, v := range fieldErrs {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, StatusText: "Invalid request.", ErrorText: err.Error(), ErrValidation: vv}
}

func translateError(err error, trans ut.Translator) []error {
	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{err}
	}
	errs := make([]error, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
