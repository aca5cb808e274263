package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/progress"
)

type ProgressHandler struct {
	Progress *progress.Service
}

// POST /api/project-updates (multipart: project_id, title, description, files[])
func (h *ProgressHandler) Create(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	fields, err := formFields(c)
	if err != nil {
		return err
	}
	projectID, err := parseUUID(fields["project_id"], "project_id")
	if err != nil {
		return err
	}
	uploads, err := files(c, "files", "files[]")
	if err != nil {
		return err
	}

	upd, err := h.Progress.AddUpdate(c.UserContext(), u, progress.Input{
		ProjectID:   projectID,
		Title:       fields["title"],
		Description: fields["description"],
	}, uploads)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Avance publicado", upd)
}

// GET /api/project-updates?project_id=
func (h *ProgressHandler) List(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	projectID, err := parseUUID(c.Query("project_id"), "project_id")
	if err != nil {
		return err
	}
	out, err := h.Progress.ListUpdates(c.UserContext(), u, projectID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", out)
}
