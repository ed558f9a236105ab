package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solatis/formulatree/internal/logger"
	"github.com/solatis/formulatree/internal/observability"
	"github.com/solatis/formulatree/internal/types"
)

// MaxRequestBytes caps /v1 request bodies: a full tree of MaxTreeNodes
// records at up to 1 KiB each.
const MaxRequestBytes = types.MaxTreeNodes << 10

// NewHTTPHandler routes the editor API onto svc. authenticate guards every
// /v1 route; nil disables authentication (tests and local tools only).
func NewHTTPHandler(svc *FormulaService, authenticate func(http.Handler) http.Handler, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(requestMetrics)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if authenticate != nil {
			r.Use(authenticate)
		}
		r.Use(middleware.RequestSize(MaxRequestBytes))

		r.Post("/preview", handle(svc.Preview, decodeBody[PreviewRequest]))
		r.Post("/mutate", handle(svc.Mutate, decodeBody[MutateRequest]))
		r.Get("/catalog", handle(svc.Catalog, noBody[CatalogRequest]))

		r.Route("/rulesets", func(r chi.Router) {
			r.Get("/", handle(svc.ListRuleSets, noBody[ListRuleSetsRequest]))
			r.Post("/", handle(svc.SaveRuleSet, decodeSave))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handle(svc.GetRuleSet, ruleSetFromPath))
				r.Put("/", handle(svc.SaveRuleSet, decodeSave))
				r.Delete("/", handle(svc.DeleteRuleSet, ruleSetFromPath))
			})
		})
	})

	return r
}

// handle adapts a service call to an http.HandlerFunc. decode builds the
// request from path and body.
func handle[Req, Resp any](call func(context.Context, *Req) (*Resp, error), decode func(*http.Request) (*Req, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decode(r)
		if err == nil {
			var resp *Resp
			if resp, err = call(r.Context(), req); err == nil {
				render.Status(r, http.StatusOK)
				render.JSON(w, r, resp)
				return
			}
		}

		code := HTTPStatus(err)
		if code >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		}
		render.Status(r, code)
		render.JSON(w, r, errorResponse(err))
	}
}

func decodeBody[Req any](r *http.Request) (*Req, error) {
	var req Req
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		}
		return nil, wrapBadRequest(err)
	}
	return &req, nil
}

func noBody[Req any](*http.Request) (*Req, error) {
	return new(Req), nil
}

func ruleSetFromPath(r *http.Request) (*RuleSetRequest, error) {
	return &RuleSetRequest{ID: chi.URLParam(r, "id")}, nil
}

// decodeSave reads the body; on PUT the path id wins over the body.
func decodeSave(r *http.Request) (*SaveRuleSetRequest, error) {
	req, err := decodeBody[SaveRuleSetRequest](r)
	if err != nil {
		return nil, err
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	return req, nil
}

// requestLogger logs each completed request and stores log in the request
// context. 5xx log at Error, 4xx at Warn.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			ctx := logger.WithContext(r.Context(), log.With("request_id", reqID))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			level := slog.LevelInfo
			status := ww.Status()
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			log.Log(ctx, level, "HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", time.Since(start).String(),
				"request_id", reqID,
			)
		})
	}
}

// requestMetrics records count and latency per chi route pattern, so ids in
// the path do not explode label cardinality.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
	})
}
