package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"certslot/config"
	"certslot/infras/kafka"
	"certslot/infras/otel"
	bookingModel "certslot/internal/domains/booking/model"
	bookingRepo "certslot/internal/domains/booking/repository"
	bookingService "certslot/internal/domains/booking/service"
	"certslot/internal/domains/slot/model"
	"certslot/internal/domains/slot/model/dto"
	"certslot/internal/domains/slot/repository"
	"certslot/shared"
	"certslot/shared/cache"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	"certslot/shared/failure"
	"certslot/shared/timezone"
)

const (
	cacheGetSlot    = "slot:get"
	cacheGetAllSlot = "slot:gets"
	cacheCountSlot  = "slot:count"
)

type Slot interface {
	Create(ctx context.Context, req dto.CreateSlotRequest) (dto.SlotResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetSlotsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.SlotResponse, error)
	Update(ctx context.Context, req dto.UpdateSlotRequest, id string) (dto.SlotResponse, error)
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo        repository.Slot
	bookingRepo bookingRepo.Booking
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	kafka       kafka.Client
}

func New(repo repository.Slot, bookingRepo bookingRepo.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, kafka kafka.Client) Slot {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		kafka:       kafka,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateSlotRequest) (res dto.SlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	slot, err := req.ToModel(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse slot request")

		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) // nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, slot); err != nil {
		log.Error().Err(err).Msg("failed to create slot")

		return res, fmt.Errorf("failed to create slot: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllSlot)
		shared.InvalidateCaches(c, s.cache, cacheCountSlot)
	}()

	res.FromModel(slot, nil, user)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetSlotsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	// Responses carry caller-specific fields, so the key includes the user.
	cacheKey := shared.BuildCacheKey(shared.BuildCacheKeyWithQuery(cacheGetAllSlot, req, filter), userID)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slots")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count slots")

		return res, fmt.Errorf("failed to count slots: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get slots")

		return res, fmt.Errorf("failed to get slots: %w", err)
	}

	slotIDs := make([]string, len(models))
	for i, mod := range models {
		slotIDs[i] = mod.ID
	}

	bookedBy, err := s.approvedUsersBySlot(ctx, slotIDs)
	if err != nil {
		return res, err
	}

	res.FromModels(models, bookedBy, userID, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slots to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountSlot, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slot count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count slots")

		return res, fmt.Errorf("failed to count slots: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slot count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.SlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	cacheKey := shared.BuildCacheKey(cacheGetSlot, id, userID)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slot")

		return res, nil
	}

	slot, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot")

		return res, fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot") // nolint:wrapcheck
	}

	bookedBy, err := s.approvedUsersBySlot(ctx, []string{id})
	if err != nil {
		return res, err
	}

	res.FromModel(slot, bookedBy[id], userID)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slot to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateSlotRequest, id string) (res dto.SlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	currentSlot, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check slot existence")

		return res, err
	}

	if currentSlot.ID == constant.Empty {
		log.Error().Msg("slot not found")

		return res, failure.NotFound("slot") // nolint:wrapcheck
	}

	approvedUsers, err := s.approvedUsersBySlot(ctx, []string{id})
	if err != nil {
		return res, err
	}

	updatedFields := shared.TransformFields(req, user)

	if req.Date != constant.Empty {
		slotDate, err := timezone.Parse(constant.SlotDateFormat, req.Date)
		if err != nil {
			return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) // nolint:wrapcheck
		}

		updatedFields[model.FieldSlotDate] = slotDate
	}

	if req.Capacity != nil {
		if *req.Capacity == 0 {
			// Zero lifts the limit entirely.
			updatedFields[model.FieldCapacity] = nil
		} else {
			if *req.Capacity < len(approvedUsers[id]) {
				return res, failure.CapacityBelowBookedError
			}

			updatedFields[model.FieldCapacity] = *req.Capacity
		}
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update slot")

		return res, fmt.Errorf("failed to update slot: %w", err)
	}

	if req.BookedBy != nil {
		if err = s.reconcileBookedBy(ctx, id, approvedUsers[id], req.BookedBy, user); err != nil {
			return res, err
		}
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetSlot)
		shared.InvalidateCaches(c, s.cache, cacheGetAllSlot)
	}()

	updatedSlot, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload slot")

		return res, fmt.Errorf("failed to reload slot: %w", err)
	}

	bookedBy, err := s.approvedUsersBySlot(ctx, []string{id})
	if err != nil {
		return res, err
	}

	res.FromModel(updatedSlot, bookedBy[id], user)

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exists, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check slot existence")

		return fmt.Errorf("failed to check slot existence: %w", err)
	}

	if !exists {
		return failure.NotFound("slot") // nolint:wrapcheck
	}

	active, err := s.bookingRepo.Exist(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    bookingModel.FieldSlotID,
				Table:    bookingModel.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    id,
			},
			gDto.Filter{
				Field:    bookingModel.FieldStatus,
				Table:    bookingModel.TableName,
				Operator: gDto.FilterOperatorIn,
				Value:    []string{constant.BookingStatusPending, constant.BookingStatusApproved},
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to check active bookings")

		return fmt.Errorf("failed to check active bookings: %w", err)
	}

	if active {
		return failure.HasActiveBookingsError
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete slot")

		return fmt.Errorf("failed to delete slot: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetSlot)
		shared.InvalidateCaches(c, s.cache, cacheGetAllSlot)
		shared.InvalidateCaches(c, s.cache, cacheCountSlot)
	}()

	return nil
}

// approvedUsersBySlot maps each slot id to the user ids holding an approved
// booking on it. The booked-by set and the derived status are never stored
// on the slot row.
func (s *serviceImpl) approvedUsersBySlot(ctx context.Context, slotIDs []string) (map[string][]string, error) {
	if len(slotIDs) == 0 {
		return map[string][]string{}, nil
	}

	bookings, err := s.bookingRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    bookingModel.FieldSlotID,
				Table:    bookingModel.TableName,
				Operator: gDto.FilterOperatorIn,
				Value:    slotIDs,
			},
			gDto.Filter{
				Field:    bookingModel.FieldStatus,
				Table:    bookingModel.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    constant.BookingStatusApproved,
			},
		},
	}, bookingModel.FieldSlotID, bookingModel.FieldUserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get approved bookings")

		return nil, fmt.Errorf("failed to get approved bookings: %w", err)
	}

	res := make(map[string][]string, len(slotIDs))
	for _, booking := range bookings {
		res[booking.SlotID] = append(res[booking.SlotID], booking.UserID)
	}

	return res, nil
}

// reconcileBookedBy rejects the approved bookings of users removed from the
// requested booked-by set. Users in the request without an approved booking
// are ignored, approvals only happen through the booking flow. Each rejection
// goes out on the booking.status topic like an admin reject would.
func (s *serviceImpl) reconcileBookedBy(ctx context.Context, slotID string, current, requested []string, user string) error {
	removed := []string{}

	for _, userID := range current {
		if !slices.Contains(requested, userID) {
			removed = append(removed, userID)
		}
	}

	if len(removed) == 0 {
		return nil
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    bookingModel.FieldSlotID,
				Table:    bookingModel.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    slotID,
			},
			gDto.Filter{
				Field:    bookingModel.FieldUserID,
				Table:    bookingModel.TableName,
				Operator: gDto.FilterOperatorIn,
				Value:    removed,
			},
			gDto.Filter{
				Field:    bookingModel.FieldStatus,
				Table:    bookingModel.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    constant.BookingStatusApproved,
			},
		},
	}

	bookings, err := s.bookingRepo.GetAll(ctx, gDto.QueryParams{}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get removed bookings")

		return fmt.Errorf("failed to get removed bookings: %w", err)
	}

	if len(bookings) == 0 {
		return nil
	}

	err = s.bookingRepo.Update(ctx, map[string]any{
		bookingModel.FieldStatus: constant.BookingStatusRejected,
		constant.FieldModifiedBy: user,
	}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to reject removed bookings")

		return fmt.Errorf("failed to reject removed bookings: %w", err)
	}

	for _, booking := range bookings {
		bookingService.PublishStatus(ctx, s.kafka, booking.ID, booking.SlotID, booking.UserID, constant.BookingStatusRejected)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, "booking:get")
	}()

	return nil
}
