package booking

import (
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"certslot/infras/otel"
	"certslot/internal/domains/booking/model"
	"certslot/internal/domains/booking/model/dto"
	"certslot/internal/domains/booking/service"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	"certslot/shared/validator"
	"certslot/transport/http/response"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/my-bookings", handler.GetMyBookings)
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Patch("/{id}", handler.UpdateBookingStatus)
		routerGroup.Patch("/{id}/edit", handler.EditBooking)
	})
}

// GetBookings retrieves all bookings, meant for the admin review queue.
// @Summary Get all bookings
// @Description Retrieve all bookings with optional status and slot filtering.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Param slot_id query string false "Filter by slot"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
	}

	if status := r.URL.Query().Get(model.FieldStatus); status != constant.Empty {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	if slotID := r.URL.Query().Get(constant.FormSlotID); slotID != constant.Empty {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldSlotID,
			Operator: gDto.FilterOperatorEq,
			Value:    slotID,
			Table:    model.TableName,
		})
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetMyBookings retrieves the caller's bookings.
// @Summary Get my bookings
// @Description Retrieve the signed-in user's bookings.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/bookings/my-bookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	bookings, err := handler.service.GetMine(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get my bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("My bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// CreateBooking books a slot for the caller with proof documents.
// @Summary Create a booking
// @Description Book a slot with a certificate selection and proof documents.
// @Tags Booking
// @Accept multipart/form-data
// @Produce json
// @Param slot_id formData string true "Slot ID"
// @Param certificates formData []string true "Certificate types to collect"
// @Param files formData file true "Proof documents (png, jpeg or pdf)"
// @Success 200 {object} response.Data[dto.BookingResponse] "Created booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")

		response.WithError(w, err)

		return
	}

	req := dto.CreateBookingRequest{
		SlotID:       r.FormValue(constant.FormSlotID),
		Certificates: r.Form[constant.FormCertificates],
	}

	files, handles, closeAll := openFormFiles(r)
	defer closeAll()

	req.Files = files
	req.FileHandles = handles

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking created successfully by user " + user)

	response.WithJSON(w, http.StatusOK, booking)
}

// UpdateBookingStatus approves or rejects a booking.
// @Summary Update booking status
// @Description Approve or reject a booking. Approval fails with a conflict when the slot is full.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateBookingStatusRequest true "Status Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/bookings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBookingStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateBookingStatusRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.UpdateStatus(ctx, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update booking status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking status updated successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// EditBooking lets the owner rework a pending booking.
// @Summary Edit a pending booking
// @Description Replace the certificate selection or proof documents of a pending booking.
// @Tags Booking
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Booking ID"
// @Param certificates formData []string false "Certificate types to collect"
// @Param files formData file false "Proof documents (png, jpeg or pdf)"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /api/bookings/{id}/edit [patch]
// @Security BearerAuth
func (handler *Handler) EditBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".EditBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")

		response.WithError(w, err)

		return
	}

	req := dto.EditBookingRequest{
		Certificates: r.Form[constant.FormCertificates],
	}

	files, handles, closeAll := openFormFiles(r)
	defer closeAll()

	req.Files = files
	req.FileHandles = handles

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Edit(ctx, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to edit booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking edited successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// openFormFiles opens every uploaded proof document and returns a closer for
// all handles. Headers and handles stay index-aligned.
func openFormFiles(r *http.Request) ([]*multipart.FileHeader, []multipart.File, func()) {
	var (
		headers []*multipart.FileHeader
		handles []multipart.File
	)

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File[constant.FormFiles] {
			file, err := header.Open()
			if err != nil {
				log.Error().Err(err).Str("file", header.Filename).Msg("failed to open uploaded file")

				continue
			}

			headers = append(headers, header)
			handles = append(handles, file)
		}
	}

	return headers, handles, func() {
		for _, handle := range handles {
			_ = handle.Close()
		}
	}
}
