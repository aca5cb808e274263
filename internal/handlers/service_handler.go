package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/catalog"
)

type ServiceHandler struct {
	Catalog *catalog.Service
}

func NewServiceHandler(cat *catalog.Service) *ServiceHandler {
	return &ServiceHandler{Catalog: cat}
}

func catalogInput(fields map[string]string) catalog.Input {
	return catalog.Input{
		Title:        fields["title"],
		Description:  fields["description"],
		Category:     fields["category"],
		Subcategory:  fields["subcategory"],
		PriceType:    fields["price_type"],
		Price:        fields["price"],
		DeliveryTime: fields["delivery_time"],
		Requirements: fields["requirements"],
		Tags:         fields["tags"],
	}
}

// GET /api/services?freelancer_id=&category=&q=&page=&limit=
func (h *ServiceHandler) List(c *fiber.Ctx) error {
	freelancerID, err := optionalUUID(c.Query("freelancer_id"), "freelancer_id")
	if err != nil {
		return err
	}
	page, err := h.Catalog.List(c.UserContext(), catalog.ListQuery{
		FreelancerID: freelancerID,
		Category:     c.Query("category"),
		Query:        c.Query("q"),
		Page:         c.QueryInt("page", 1),
		Limit:        c.QueryInt("limit", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       page.Services,
		"pagination": page.Pagination,
	})
}

func (h *ServiceHandler) Mine(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.Catalog.Mine(c.UserContext(), u)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", items)
}

func (h *ServiceHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", s)
}

func (h *ServiceHandler) Create(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	fields, err := formFields(c)
	if err != nil {
		return err
	}
	images, err := files(c, "images")
	if err != nil {
		return err
	}
	s, err := h.Catalog.Create(c.UserContext(), u, catalogInput(fields), images)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Servicio creado", s)
}

func (h *ServiceHandler) Update(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	fields, err := formFields(c)
	if err != nil {
		return err
	}
	images, err := files(c, "images")
	if err != nil {
		return err
	}
	s, err := h.Catalog.Update(c.UserContext(), u, id, catalogInput(fields), images)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Servicio actualizado", s)
}

func (h *ServiceHandler) Delete(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.SoftDelete(c.UserContext(), u, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Servicio eliminado", nil)
}

func (h *ServiceHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", cats)
}
