// internal/server/router.go
//
// formscribe – JSON HTTP surface.
//
// Context
//   The router exposes the form registry over HTTP.  A POST body is decoded
//   into a source (JSON, YAML, urlencoded, or multipart), one form pass
//   runs against it, and the outcome is answered as JSON:
//
//       { "form": "login", "valid": true, "submitted": true,
//         "errors": [], "values": { … } }
//
//   Any recorded error yields 422 with the same body.  Only a clean pass
//   triggers the configured post-submit actions; action failures are
//   logged and counted but never change the response.
//
// Routes
//   GET  /healthz                 liveness
//   GET  /metrics                 Prometheus
//   GET  /forms                   registered form names
//   GET  /forms/{name}/token      fresh anti-forgery token
//   POST /forms/{name}            one submission
//   POST /forms/{name}/batch      JSON array, passes run concurrently
//   *    /components/{name}/…     component routes
//
//------------------------------------------------------------------------------

package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/formscribe/internal/action"
	"github.com/yanizio/formscribe/internal/component"
	"github.com/yanizio/formscribe/internal/csrf"
	"github.com/yanizio/formscribe/internal/form"
	"github.com/yanizio/formscribe/internal/logger"
	"github.com/yanizio/formscribe/internal/middleware"
	"github.com/yanizio/formscribe/internal/requestinfo"
	"github.com/yanizio/formscribe/internal/source"
)

// Options wires the handler's collaborators.  Registry is required; every
// other field has a usable zero value.
type Options struct {
	Registry     *form.Registry
	Actions      *action.Runner
	Info         *requestinfo.Resolver
	Components   []component.Component
	Values       map[string]any // injected into every form pass
	MaxDepth     int
	MaxBodyBytes int64
	BatchLimit   int
	ForceHTTPS   bool
	Logger       *zap.SugaredLogger
}

type handler struct {
	opts Options
	log  *zap.SugaredLogger
}

// Handler builds the chi router.
func Handler(o Options) http.Handler {
	h := &handler{opts: o, log: o.Logger}
	if h.log == nil {
		h.log = zap.S()
	}
	if h.opts.Info == nil {
		h.opts.Info = &requestinfo.Resolver{}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(h.withLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/forms", func(fr chi.Router) {
		fr.Use(h.opts.Info.Middleware)
		fr.Get("/", h.list)
		fr.Get("/{name}/token", h.token)
		fr.Post("/{name}", h.submit)
		fr.Post("/{name}/batch", h.batch)
	})

	for _, c := range o.Components {
		if cr, ok := c.(component.Router); ok {
			r.Mount("/components/"+c.Name(), cr.Routes())
		}
	}

	if o.ForceHTTPS {
		return middleware.ForceHTTPS(r)
	}
	return r
}

// withLogger stores a request-scoped logger in the context.
func (h *handler) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := h.log.With("request_id", chimw.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l)))
	})
}

/*──────────────────────────── handlers ────────────────────────────────────*/

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]string{"forms": h.opts.Registry.Names()})
}

func (h *handler) token(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.definition(w, r); !ok {
		return
	}
	tok, err := csrf.Token()
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"token": tok})
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}

	src, err := source.FromRequest(r, h.opts.MaxBodyBytes)
	if err != nil {
		h.fail(w, r, statusForSource(err), err)
		return
	}

	f, err := form.New(def, src, h.formOptions(r)...)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	res := h.finish(r, f)
	status := http.StatusOK
	if !res.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, r, status, res)
}

func (h *handler) batch(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBody(h.opts.MaxBodyBytes))
	list, err := source.FromJSONList(body)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}

	srcs := make([]form.Source, len(list))
	for i, m := range list {
		srcs[i] = m
	}
	forms, err := form.RunAll(r.Context(), def, srcs, h.opts.BatchLimit, h.formOptions(r)...)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]result, len(forms))
	status := http.StatusOK
	for i, f := range forms {
		out[i] = h.finish(r, f)
		if !out[i].Valid {
			status = http.StatusMultiStatus
		}
	}
	writeJSON(w, r, status, map[string]any{"results": out})
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// definition resolves {name} or writes 404/500.
func (h *handler) definition(w http.ResponseWriter, r *http.Request) (*form.Definition, bool) {
	name := chi.URLParam(r, "name")
	def, err := h.opts.Registry.Get(name)
	switch {
	case errors.Is(err, form.ErrUnknownForm):
		h.fail(w, r, http.StatusNotFound, err)
		return nil, false
	case err != nil:
		h.fail(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	return def, true
}

func (h *handler) formOptions(r *http.Request) []form.Option {
	name := chi.URLParam(r, "name")
	opts := []form.Option{
		form.WithValues(h.opts.Values),
		form.WithValue("request", requestinfo.FromContext(r.Context())),
		form.WithLogger(logger.FromContext(r.Context()).With("form", name)),
	}
	if h.opts.MaxDepth > 0 {
		opts = append(opts, form.WithMaxDepth(h.opts.MaxDepth))
	}
	return opts
}

// finish renders f and, when it passed, runs the actions.
func (h *handler) finish(r *http.Request, f *form.Form) result {
	res := newResult(f)
	if res.Valid && h.opts.Actions != nil {
		// Failures are logged and counted by the runner.
		_ = h.opts.Actions.Execute(r.Context(), f.Definition().Name(), f.Values())
	}
	return res
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	l := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		l.Errorw("form request failed", "path", r.URL.Path, "status", status, "err", err)
	} else {
		l.Infow("form request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, r, status, map[string]string{"error": http.StatusText(status)})
}

func statusForSource(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, source.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func maxBody(n int64) int64 {
	if n <= 0 {
		return 1 << 20
	}
	return n
}

// writeJSON encodes v before touching the response, so a value that cannot
// be encoded turns into a logged 500 rather than a truncated body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("response encoding failed",
			"path", r.URL.Path, "status", status, "err", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": http.StatusText(status)})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
