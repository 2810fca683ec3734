package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/melih/lighthouse-build/internal/config"
	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/core/ports"
	"github.com/melih/lighthouse-build/internal/service"
	"github.com/melih/lighthouse-build/internal/targets"
)

// Planner resolves build requests and runs them.
type Planner interface {
	Plan(ctx context.Context, req service.Request) (*service.Plan, error)
	Run(ctx context.Context, plan *service.Plan) iter.Seq2[domain.Event, error]
}

type BuildHandler struct {
	planner Planner
	builder ports.BuilderService
}

func NewBuildHandler(planner Planner, builder ports.BuilderService) *BuildHandler {
	return &BuildHandler{planner: planner, builder: builder}
}

// Register mounts the build routes on router.
func (h *BuildHandler) Register(router fiber.Router) {
	router.Get("/targets", h.ListTargets)
	router.Post("/builds", h.StartBuild)
	router.Post("/images", h.BuildImage)
}

type BuildRequest struct {
	Path       string   `json:"path"`
	RepoURL    string   `json:"repo_url"`
	Revision   string   `json:"revision"`
	Namespace  string   `json:"namespace"`
	Tags       []string `json:"tags"`
	Exact      []string `json:"exact"`
	Upto       []string `json:"upto"`
	Dependents []string `json:"dependents"`
	Exclude    []string `json:"exclude"`
}

func (r BuildRequest) request() service.Request {
	return service.Request{
		Dir:       r.Path,
		RepoURL:   r.RepoURL,
		Revision:  domain.Revision(r.Revision),
		Overrides: config.Overrides{Namespace: r.Namespace, Tags: r.Tags},
		Selection: service.Selection{
			Exact:      r.Exact,
			Upto:       r.Upto,
			Dependents: r.Dependents,
			Exclude:    r.Exclude,
		},
	}
}

func (h *BuildHandler) ListTargets(c *fiber.Ctx) error {
	req := BuildRequest{
		Path:      c.Query("path"),
		RepoURL:   c.Query("repo_url"),
		Namespace: c.Query("namespace"),
	}
	plan, err := h.planner.Plan(c.Context(), req.request())
	if err != nil {
		return planError(c, err)
	}
	defer plan.Close()

	return c.JSON(fiber.Map{
		"revision": plan.Revision(),
		"targets":  plan.Targets,
	})
}

// StartBuild streams the events of a build as newline-delimited JSON.
// The response starts once the targets have been resolved; later failures
// are reported in the stream as events of type "error".
func (h *BuildHandler) StartBuild(c *fiber.Ctx) error {
	var req BuildRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	plan, err := h.planner.Plan(c.Context(), req.request())
	if err != nil {
		return planError(c, err)
	}

	// The request context is recycled once the handler returns, so the
	// stream writer must not touch c.
	events := h.planner.Run(context.Background(), plan)
	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer plan.Close()
		enc := json.NewEncoder(w)
		for evt, err := range events {
			if err != nil {
				evt = domain.Event{domain.KeyEvent: "error", "error": err.Error()}
			}
			if err := enc.Encode(evt); err != nil {
				slog.Debug("failed to write build event", "error", err)
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away; stop pulling so no further targets build.
				return
			}
		}
	})
	return nil
}

type BuildImageRequest struct {
	Path     string `json:"path"`
	Target   string `json:"target"`
	Revision string `json:"revision"`
}

// BuildImage builds one target synchronously and returns its image ID.
func (h *BuildHandler) BuildImage(c *fiber.Ctx) error {
	var req BuildImageRequest
	if err := c.BodyParser(&req); err != nil || req.Target == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Path and target are required",
		})
	}

	plan, err := h.planner.Plan(c.Context(), service.Request{
		Dir:       req.Path,
		Revision:  domain.Revision(req.Revision),
		Selection: service.Selection{Exact: []string{req.Target}},
	})
	if err != nil {
		return planError(c, err)
	}
	defer plan.Close()

	target := plan.Targets[0]
	// Note: This is a blocking operation and might take time!
	id, err := h.builder.BuildImage(c.Context(), plan.Revision(), target)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Build failed: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    id,
		"image": target.Ref(plan.Revision()),
	})
}

func planError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNoSource), errors.Is(err, config.ErrNoNamespace):
		status = fiber.StatusBadRequest
	case errors.Is(err, targets.ErrUnknownTarget):
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
