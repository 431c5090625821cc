package slot

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"certslot/infras/otel"
	"certslot/internal/domains/slot/model"
	"certslot/internal/domains/slot/model/dto"
	"certslot/internal/domains/slot/service"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	"certslot/shared/validator"
	"certslot/transport/http/response"
)

type Handler struct {
	service service.Slot
	otel    otel.Otel
}

func New(service service.Slot, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/slots", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetSlots)
		routerGroup.Get("/{id}", handler.GetSlotByID)
		routerGroup.Post("/", handler.CreateSlot)
		routerGroup.Patch("/{id}", handler.UpdateSlot)
		routerGroup.Delete("/{id}", handler.DeleteSlot)
	})
}

// GetSlots retrieves slots with derived availability for the caller.
// @Summary Get all slots
// @Description Retrieve all pickup slots with remaining capacity and booking state for the caller.
// @Tags Slot
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetSlotsResponse] "List of slots"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/slots [get]
// @Security BearerAuth
func (handler *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlots")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
	}

	if date := r.URL.Query().Get("date"); date != constant.Empty {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldSlotDate,
			Operator: gDto.FilterOperatorEq,
			Value:    date,
			Table:    model.TableName,
		})
	}

	slots, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slots")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Slots retrieved successfully")

	response.WithJSON(w, http.StatusOK, slots)
}

// GetSlotByID retrieves a slot by its ID.
// @Summary Get a slot by ID
// @Description Retrieve a pickup slot with derived availability for the caller.
// @Tags Slot
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Data[dto.SlotResponse] "Slot details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/slots/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetSlotByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	slot, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slot")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Slot retrieved successfully")

	response.WithJSON(w, http.StatusOK, slot)
}

// CreateSlot handles the creation of a new slot.
// @Summary Create a new slot
// @Description Create a pickup slot. Zero or absent capacity means unlimited.
// @Tags Slot
// @Accept json
// @Produce json
// @Param request body dto.CreateSlotRequest true "Create Slot Request"
// @Success 200 {object} response.Data[dto.SlotResponse] "Created slot"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/slots [post]
// @Security BearerAuth
func (handler *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateSlot")
	defer scope.End()

	req := dto.CreateSlotRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	slot, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create slot")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Slot created successfully by user " + user)

	response.WithJSON(w, http.StatusOK, slot)
}

// UpdateSlot handles partial updates of a slot.
// @Summary Update a slot
// @Description Update slot fields. Shrinking capacity below the approved count is rejected, and removing users from booked_by rejects their bookings.
// @Tags Slot
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param request body dto.UpdateSlotRequest true "Update Slot Request"
// @Success 200 {object} response.Data[dto.SlotResponse] "Updated slot"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/slots/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateSlot")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateSlotRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	slot, err := handler.service.Update(ctx, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update slot")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Slot updated successfully")

	response.WithJSON(w, http.StatusOK, slot)
}

// DeleteSlot handles slot deletion.
// @Summary Delete a slot
// @Description Delete a slot that has no pending or approved bookings.
// @Tags Slot
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Message "Slot deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/slots/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteSlot")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete slot")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Slot deleted successfully")

	response.WithMessage(w, http.StatusOK, "Slot deleted successfully")
}
