package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/middleware"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
)

func currentUser(c *fiber.Ctx) (*models.User, error) {
	return middleware.CurrentUser(c)
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func invalidBody() error {
	return apperr.New(apperr.Validation, "Cuerpo de la solicitud inválido")
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		errs := apperr.FieldErrors{}
		errs.Add(field, "Identificador inválido")
		return uuid.Nil, apperr.Invalid(errs)
	}
	return id, nil
}

// optionalUUID parses raw when it is not blank.
func optionalUUID(raw, field string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseUUID(raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.NotFound, "Recurso no encontrado")
	}
	return id, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// singleFile returns the upload under field, or nil when none was sent.
func singleFile(c *fiber.Ctx, field string) *storage.File {
	if !isMultipart(c) {
		return nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	f := storage.FromMultipart(fh)
	return &f
}

// files returns every upload under the given field names, in form order.
func files(c *fiber.Ctx, fields ...string) ([]storage.File, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, invalidBody()
	}
	var fhs []*multipart.FileHeader
	for _, f := range fields {
		fhs = append(fhs, form.File[f]...)
	}
	return storage.FromMultipartList(fhs), nil
}

// formFields flattens a multipart form or a JSON object into the set of
// fields the client actually sent. JSON arrays are kept as JSON text.
func formFields(c *fiber.Ctx) (map[string]string, error) {
	out := map[string]string{}
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, invalidBody()
		}
		for k, v := range form.Value {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
		return out, nil
	}

	if len(c.Body()) == 0 {
		return out, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil, invalidBody()
	}
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			out[k] = strconv.FormatFloat(n, 'f', -1, 64)
			continue
		}
		if string(v) == "null" {
			out[k] = ""
			continue
		}
		out[k] = string(v)
	}
	return out, nil
}

func field(fields map[string]string, name string) *string {
	if v, ok := fields[name]; ok {
		return &v
	}
	return nil
}
