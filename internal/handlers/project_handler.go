package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/contracts"
)

// ProjectHandler covers hiring, the project lifecycle and the dashboard.
type ProjectHandler struct {
	Contracts *contracts.Service
}

type CreateContractReq struct {
	ServiceID     string   `json:"service_id"`
	FreelancerID  string   `json:"freelancer_id"`
	Requirements  string   `json:"requirements"`
	PaymentMethod string   `json:"payment_method"`
	Amount        *float64 `json:"amount"`
}

func (h *ProjectHandler) CreateContract(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreateContractReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	serviceID, err := parseUUID(req.ServiceID, "service_id")
	if err != nil {
		return err
	}
	freelancerID, err := optionalUUID(req.FreelancerID, "freelancer_id")
	if err != nil {
		return err
	}

	d, err := h.Contracts.Create(c.UserContext(), u, contracts.Input{
		ServiceID:     serviceID,
		FreelancerID:  freelancerID,
		Requirements:  req.Requirements,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Contrato creado", d)
}

// GET /api/contratos and /api/projects, ?status=&role=
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.Contracts.List(c.UserContext(), u, contracts.ListQuery{
		Status: c.Query("status"),
		Role:   c.Query("role"),
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", out)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Contracts.Get(c.UserContext(), u, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", d)
}

type ChangeStatusReq struct {
	Status string `json:"status"`
}

func (h *ProjectHandler) ChangeStatus(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req ChangeStatusReq
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	p, err := h.Contracts.ChangeStatus(c.UserContext(), u, id, req.Status)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Estado actualizado", p)
}

func (h *ProjectHandler) Dashboard(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	st, err := h.Contracts.Dashboard(c.UserContext(), u)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", st)
}
