package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"certslot/config"
	"certslot/infras/kafka"
	"certslot/infras/otel"
	"certslot/infras/s3"
	"certslot/internal/domains/booking/model"
	"certslot/internal/domains/booking/model/dto"
	"certslot/internal/domains/booking/repository"
	slotModel "certslot/internal/domains/slot/model"
	slotRepo "certslot/internal/domains/slot/repository"
	"certslot/shared"
	"certslot/shared/cache"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	"certslot/shared/failure"
	"certslot/shared/timezone"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	cacheSlotPrefix = "slot"
)

// StatusEvent is published to Kafka whenever a booking changes status, so
// downstream consumers (mailers, dashboards) can react without polling.
type StatusEvent struct {
	BookingID string `json:"booking_id"`
	SlotID    string `json:"slot_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
}

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	GetMine(ctx context.Context, req gDto.QueryParams) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) (dto.BookingResponse, error)
	Edit(ctx context.Context, req dto.EditBookingRequest, id string) (dto.BookingResponse, error)
}

type serviceImpl struct {
	repo     repository.Booking
	slotRepo slotRepo.Slot
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
	s3       s3.S3
	kafka    kafka.Client
}

func New(repo repository.Booking, slotRepo slotRepo.Slot, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3, kafka kafka.Client) Booking {
	return &serviceImpl{
		repo:     repo,
		slotRepo: slotRepo,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
		s3:       s3,
		kafka:    kafka,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	slot, err := s.slotRepo.Get(ctx, shared.FilterByID(req.SlotID, slotModel.FieldID, slotModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot")

		return res, fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot") // nolint:wrapcheck
	}

	if timezone.DateOnly(slot.SlotDate).Before(timezone.StartOfDay()) {
		return res, failure.BadRequestFromString("slot is no longer open for booking") // nolint:wrapcheck
	}

	if !isSubset(req.Certificates, slot.Certificates) {
		return res, failure.InvalidCertificateSelectionError
	}

	duplicate, err := s.repo.Exist(ctx, activeBookingFilter(req.SlotID, user))
	if err != nil {
		log.Error().Err(err).Msg("failed to check existing bookings")

		return res, fmt.Errorf("failed to check existing bookings: %w", err)
	}

	if duplicate {
		return res, failure.DuplicateBookingError
	}

	if slot.Capacity != nil {
		approved, err := s.approvedCount(ctx, req.SlotID)
		if err != nil {
			return res, err
		}

		if approved >= *slot.Capacity {
			return res, failure.CapacityExceededError
		}
	}

	fileURLs, uploaded, err := s.uploadProofs(ctx, req.Files, req.FileHandles)
	if err != nil {
		return res, err
	}

	bookingCount, err := s.repo.Count(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldSlotID,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    req.SlotID,
			},
			gDto.Filter{
				Field:    model.FieldUserID,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    user,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    constant.BookingStatusApproved,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to count prior bookings")

		return res, fmt.Errorf("failed to count prior bookings: %w", err)
	}

	booking := req.ToModel(user, fileURLs, bookingCount)

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		s.cleanupProofs(ctx, uploaded)

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publishStatus(ctx, booking.ID, booking.SlotID, user, constant.BookingStatusPending)
	s.invalidate(ctx, true)

	created, err := s.repo.Get(ctx, shared.FilterByID(booking.ID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to reload booking")

		return res, fmt.Errorf("failed to reload booking: %w", err)
	}

	res.FromModel(created)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetMine(ctx context.Context, req gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMine")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		return res, failure.Unauthorized("missing user identity") // nolint:wrapcheck
	}

	return s.GetAll(ctx, req, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldUserID,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    user,
			},
		},
	})
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

// UpdateStatus applies an approve or reject decision. Approval runs under a
// slot row lock so a full slot can never be oversubscribed, rejection is
// legal from both pending and approved.
func (s *serviceImpl) UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking") // nolint:wrapcheck
	}

	switch req.Status {
	case constant.BookingStatusApproved:
		// Approve is legal from pending only. The repository re-checks the
		// state under the slot lock, but a booking that already left pending
		// must fail as an invalid transition, not as a capacity problem.
		if booking.Status != constant.BookingStatusPending {
			return res, failure.InvalidTransitionError
		}

		err = s.repo.Approve(ctx, id, booking.SlotID, user)
	case constant.BookingStatusRejected:
		err = s.repo.Reject(ctx, id, user)
	default:
		return res, failure.BadRequestFromString("unknown status") // nolint:wrapcheck
	}

	if err != nil {
		return res, err
	}

	s.publishStatus(ctx, booking.ID, booking.SlotID, booking.UserID, req.Status)
	s.invalidate(ctx, true)

	booking.Status = req.Status
	res.FromModel(booking)

	return res, nil
}

// Edit replaces the certificate selection and proof documents of a pending
// booking. Only the owner may edit, and only while the decision is pending.
func (s *serviceImpl) Edit(ctx context.Context, req dto.EditBookingRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Edit")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking") // nolint:wrapcheck
	}

	if booking.UserID != user {
		return res, failure.ResourceRestrictedError
	}

	if booking.Status != constant.BookingStatusPending {
		return res, failure.BookingNotEditableError
	}

	updatedFields := map[string]any{
		constant.FieldModifiedBy: user,
		constant.FieldModifiedAt: timezone.Now(),
	}

	if req.Certificates != nil {
		slot, err := s.slotRepo.Get(ctx, shared.FilterByID(booking.SlotID, slotModel.FieldID, slotModel.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get slot")

			return res, fmt.Errorf("failed to get slot: %w", err)
		}

		if !isSubset(req.Certificates, slot.Certificates) {
			return res, failure.InvalidCertificateSelectionError
		}

		updatedFields[model.FieldCertificates] = pq.StringArray(req.Certificates)
	}

	var uploaded []string

	if len(req.Files) > 0 {
		fileURLs, uploadedNames, err := s.uploadProofs(ctx, req.Files, req.FileHandles)
		if err != nil {
			return res, err
		}

		uploaded = uploadedNames
		updatedFields[model.FieldFiles] = pq.StringArray(fileURLs)
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to edit booking")

		s.cleanupProofs(ctx, uploaded)

		return res, fmt.Errorf("failed to edit booking: %w", err)
	}

	// Old proofs are dropped once the new set is persisted.
	if len(req.Files) > 0 {
		bucketName := s.cfg.External.S3.BucketName

		for _, url := range booking.Files {
			objectName := s.s3.GetObjectNameFromURL(bucketName, url)
			_ = s.s3.DeleteFile(ctx, bucketName, model.EntityName, objectName)
		}
	}

	s.invalidate(ctx, false)

	edited, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload booking")

		return res, fmt.Errorf("failed to reload booking: %w", err)
	}

	res.FromModel(edited)

	return res, nil
}

// uploadProofs stores each proof document under a fresh object name and
// returns the public URLs plus the object names for cleanup on failure.
func (s *serviceImpl) uploadProofs(ctx context.Context, headers []*multipart.FileHeader, handles []multipart.File) ([]string, []string, error) {
	if len(handles) != len(headers) {
		return nil, nil, failure.MissingProofError
	}

	bucketName := s.cfg.External.S3.BucketName

	fileURLs := make([]string, 0, len(headers))
	uploaded := make([]string, 0, len(headers))

	for i, header := range headers {
		filename := uuid.NewString()

		parts := strings.Split(header.Filename, ".")
		if len(parts) > 1 {
			filename = fmt.Sprintf("%s.%s", filename, parts[len(parts)-1])
		}

		url, err := s.s3.UploadFile(ctx, bucketName, model.EntityName, handles[i], header, filename)
		if err != nil {
			log.Error().Err(err).Msg("failed to upload proof document")

			s.cleanupProofs(ctx, uploaded)

			return nil, nil, fmt.Errorf("failed to upload proof document: %w", err)
		}

		fileURLs = append(fileURLs, url)
		uploaded = append(uploaded, filename)
	}

	return fileURLs, uploaded, nil
}

func (s *serviceImpl) approvedCount(ctx context.Context, slotID string) (int, error) {
	count, err := s.repo.Count(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldSlotID,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    slotID,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    constant.BookingStatusApproved,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to count approved bookings")

		return 0, fmt.Errorf("failed to count approved bookings: %w", err)
	}

	return count, nil
}

func (s *serviceImpl) cleanupProofs(ctx context.Context, objectNames []string) {
	bucketName := s.cfg.External.S3.BucketName

	for _, objectName := range objectNames {
		_ = s.s3.DeleteFile(ctx, bucketName, model.EntityName, objectName)
	}
}

func (s *serviceImpl) publishStatus(ctx context.Context, bookingID, slotID, userID, status string) {
	PublishStatus(ctx, s.kafka, bookingID, slotID, userID, status)
}

// PublishStatus emits a booking.status event. Fire and forget, a delivery
// failure is logged and never fails the triggering mutation. Shared with the
// slot service, whose booked-by reconciliation rejects bookings too.
func PublishStatus(ctx context.Context, client kafka.Client, bookingID, slotID, userID, status string) {
	go func() {
		c := context.WithoutCancel(ctx)

		err := client.SendMessages(c, constant.KafkaTopicBookingStatus, kafka.Message{
			Key: bookingID,
			Value: StatusEvent{
				BookingID: bookingID,
				SlotID:    slotID,
				UserID:    userID,
				Status:    status,
			},
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to publish booking status event")
		}
	}()
}

// invalidate clears booking caches, and slot caches too when the change
// affects derived slot state.
func (s *serviceImpl) invalidate(ctx context.Context, slots bool) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)

		if slots {
			shared.InvalidateCaches(c, s.cache, cacheSlotPrefix)
		}
	}()
}

func isSubset(selection, allowed []string) bool {
	if len(selection) == 0 {
		return false
	}

	for _, cert := range selection {
		if !slices.Contains(allowed, cert) {
			return false
		}
	}

	return true
}

func activeBookingFilter(slotID, userID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldSlotID,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    slotID,
			},
			gDto.Filter{
				Field:    model.FieldUserID,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorEq,
				Value:    userID,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Table:    model.TableName,
				Operator: gDto.FilterOperatorIn,
				Value:    []string{constant.BookingStatusPending, constant.BookingStatusApproved},
			},
		},
	}
}
