package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

type CompanyHandler struct {
	companyService *service.CompanyService
	logger         *zap.Logger
}

func NewCompanyHandler(companyService *service.CompanyService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		logger:         logger,
	}
}

// Mine godoc
// @Summary Get the caller's company
// @Tags Companies
// @Produce json
// @Success 200 {object} domain.CompanyDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /company [get]
func (h *CompanyHandler) Mine(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyService.GetMyCompany(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// @Summary List companies
// @Tags Admin
// @Produce json
// @Param type query string false "Company type" Enums(customer, supplier)
// @Param search query string false "Name or number search"
// @Success 200 {array} domain.CompanyDTO
// @Security BearerAuth
// @Router /admin/companies [get]
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := repository.CompanyFilters{
		Type:   domain.CompanyType(r.URL.Query().Get("type")),
		Search: r.URL.Query().Get("search"),
	}
	if filters.Type != "" && !filters.Type.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid type: must be customer or supplier")
		return
	}

	companies, err := h.companyService.List(r.Context(), filters)
	if err != nil {
		handleServiceError(w, h.logger, err, "list companies")
		return
	}
	respondJSON(w, http.StatusOK, companies)
}

// @Summary Create company
// @Description The company number (CUxxxx or Vxxxx) is assigned from the sequence
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.CreateCompanyRequest true "Company"
// @Success 201 {object} domain.CompanyDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/companies [post]
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.companyService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create company")
		return
	}
	respondJSON(w, http.StatusCreated, company)
}

// @Summary Get company with members
// @Tags Admin
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} domain.CompanyDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/companies/{id} [get]
func (h *CompanyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "company")
	if !ok {
		return
	}

	company, err := h.companyService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// @Summary Assign a company number
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param request body domain.AssignCompanyNumberRequest true "Number"
// @Success 200 {object} domain.CompanyDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/companies/{id}/number [put]
func (h *CompanyHandler) AssignNumber(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "company")
	if !ok {
		return
	}
	var req domain.AssignCompanyNumberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.companyService.AssignNumber(r.Context(), id, req.CompanyNumber)
	if err != nil {
		handleServiceError(w, h.logger, err, "assign company number")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// @Summary Merge companies
// @Description Moves every member of the secondary companies into the primary and deletes the secondaries
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.MergeCompaniesRequest true "Primary and secondaries"
// @Success 200 {object} domain.CompanyDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/companies/merge [post]
func (h *CompanyHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req domain.MergeCompaniesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.companyService.Merge(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "merge companies")
		return
	}
	respondJSON(w, http.StatusOK, company)
}
