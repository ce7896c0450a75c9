package employeeshandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/employees"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, in employees.CreateInput) (*employees.Employee, error)
	Update(ctx context.Context, id string, in employees.UpdateInput) (*employees.Employee, error)
	Delete(ctx context.Context, id string, hard bool) (*employees.Employee, error)
	Get(ctx context.Context, id string) (*employees.Employee, error)
	List(ctx context.Context, filter employees.ListFilter) ([]employees.Employee, int, error)
	SetImage(ctx context.Context, id, data string) (string, error)
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
}

func NewHandler(service Service, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type createRequest struct {
	Name       string `json:"name" validate:"max=200"`
	Email      string `json:"email" validate:"max=320"`
	Password   string `json:"password" validate:"max=72"`
	Role       string `json:"role" validate:"omitempty,oneof=employee admin"`
	Department string `json:"department" validate:"max=200"`
	Position   string `json:"position" validate:"max=200"`
	Phone      string `json:"phone" validate:"max=40"`
	Image      string `json:"image"`
}

type updateRequest struct {
	Name       string  `json:"name" validate:"max=200"`
	Email      *string `json:"email" validate:"omitempty,max=320"`
	Password   *string `json:"password" validate:"omitempty,max=72"`
	Role       *string `json:"role" validate:"omitempty,oneof=employee admin"`
	Department *string `json:"department" validate:"omitempty,max=200"`
	Position   *string `json:"position" validate:"omitempty,max=200"`
	Phone      *string `json:"phone" validate:"omitempty,max=40"`
	Image      *string `json:"image"`
	Status     *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type imageRequest struct {
	Image string `json:"image" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{employeeID}", h.handleGet)
		r.Put("/{employeeID}", h.handleUpdate)
		r.Delete("/{employeeID}", h.handleDelete)
		r.Put("/{employeeID}/image", h.handleImage)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	q := r.URL.Query()
	items, total, err := h.Service.List(r.Context(), employees.ListFilter{
		Search:     q.Get("search"),
		Department: q.Get("department"),
		Role:       q.Get("role"),
		Status:     q.Get("status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.WriteError(w, r, err, "employee_list")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	emp, err := h.Service.Create(r.Context(), employees.CreateInput{
		Name:       payload.Name,
		Email:      payload.Email,
		Password:   payload.Password,
		Role:       payload.Role,
		Department: payload.Department,
		Position:   payload.Position,
		Phone:      payload.Phone,
		Image:      payload.Image,
	})
	if err != nil {
		shared.WriteError(w, r, err, "employee_create")
		return
	}
	shared.RecordAudit(r, h.Audit, "employee.create", "employee", emp.ID, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, "employee_get")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload updateRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	emp, err := h.Service.Update(r.Context(), chi.URLParam(r, "employeeID"), employees.UpdateInput{
		Name:       payload.Name,
		Email:      payload.Email,
		Password:   payload.Password,
		Role:       payload.Role,
		Department: payload.Department,
		Position:   payload.Position,
		Phone:      payload.Phone,
		Image:      payload.Image,
		Status:     payload.Status,
	})
	if err != nil {
		shared.WriteError(w, r, err, "employee_update")
		return
	}
	shared.RecordAudit(r, h.Audit, "employee.update", "employee", emp.ID, nil, emp)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	hard, _ := strconv.ParseBool(r.URL.Query().Get("hard"))
	emp, err := h.Service.Delete(r.Context(), chi.URLParam(r, "employeeID"), hard)
	if err != nil {
		shared.WriteError(w, r, err, "employee_delete")
		return
	}
	shared.RecordAudit(r, h.Audit, "employee.delete", "employee", emp.ID, emp, map[string]bool{"hard": hard})
	if hard {
		api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	var payload imageRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	image, err := h.Service.SetImage(r.Context(), chi.URLParam(r, "employeeID"), payload.Image)
	if err != nil {
		shared.WriteError(w, r, err, "employee_image")
		return
	}
	shared.RecordAudit(r, h.Audit, "employee.image", "employee", chi.URLParam(r, "employeeID"), nil, nil)
	api.Success(w, map[string]string{"image": image}, middleware.GetRequestID(r.Context()))
}
