package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"certslot/config"
	kafkaMocks "certslot/infras/kafka/mocks"
	"certslot/infras/otel/mocks"
	s3Mocks "certslot/infras/s3/mocks"
	bookingMocks "certslot/internal/domains/booking/mocks"
	"certslot/internal/domains/booking/model"
	"certslot/internal/domains/booking/model/dto"
	"certslot/internal/domains/booking/service"
	slotMocks "certslot/internal/domains/slot/mocks"
	slotModel "certslot/internal/domains/slot/model"
	cacheMocks "certslot/shared/cache/mocks"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	"certslot/shared/failure"
	gModel "certslot/shared/model"
	"certslot/shared/timezone"
)

func intPtr(v int) *int {
	return &v
}

func bookableSlot(capacity *int) slotModel.Slot {
	return slotModel.Slot{
		ID:           "slot-id",
		SlotDate:     timezone.Now().AddDate(0, 0, 3),
		SlotTime:     "09:00 - 11:00",
		Capacity:     capacity,
		Certificates: []string{"degree", "transcript"},
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "admin-id",
			ModifiedBy: "admin-id",
		},
	}
}

func pendingBooking(id, userID string) model.Booking {
	return model.Booking{
		ID:           id,
		SlotID:       "slot-id",
		UserID:       userID,
		Certificates: []string{"degree"},
		Files:        []string{"https://cdn.example.com/booking/proof.pdf"},
		Status:       constant.BookingStatusPending,
		SlotDate:     timezone.Now().AddDate(0, 0, 3),
		SlotTime:     "09:00 - 11:00",
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  userID,
			ModifiedBy: userID,
		},
	}
}

func createRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		SlotID:       "slot-id",
		Certificates: []string{"degree"},
		Files:        []*multipart.FileHeader{{Filename: "proof.pdf"}},
		FileHandles:  []multipart.File{nil},
	}
}

func TestBookingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockSlotRepo := slotMocks.NewMockSlot(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.External.S3.BucketName = "certslot"

	svc := service.New(mockRepo, mockSlotRepo, cfg, mockCache, mockOtel, mockS3, mockKafka)

	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func()
		wantErr   bool
		wantFail  error
	}{
		{
			name: "successful booking",
			req:  createRequest(),
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				// Approved seats, then the user's prior approvals on the slot.
				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(1, nil)

				mockS3.EXPECT().
					UploadFile(gomock.Any(), "certslot", model.EntityName, gomock.Any(), gomock.Any(), gomock.Any()).
					Return("https://cdn.example.com/booking/proof.pdf", nil)

				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) error {
						assert.Equal(t, constant.BookingStatusPending, booking.Status)
						assert.Equal(t, 0, booking.BookingCount)
						return nil
					})

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockKafka.EXPECT().
					SendMessages(gomock.Any(), constant.KafkaTopicBookingStatus, gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "unlimited slot skips the capacity check",
			req:  createRequest(),
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(nil), nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				mockS3.EXPECT().
					UploadFile(gomock.Any(), "certslot", model.EntityName, gomock.Any(), gomock.Any(), gomock.Any()).
					Return("https://cdn.example.com/booking/proof.pdf", nil)

				// Only the prior-approvals count runs for unlimited slots.
				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockKafka.EXPECT().
					SendMessages(gomock.Any(), constant.KafkaTopicBookingStatus, gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "slot not found",
			req:  createRequest(),
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(slotModel.Slot{}, nil)
			},
			wantErr: true,
		},
		{
			name: "expired slot",
			req:  createRequest(),
			setupMock: func() {
				expired := bookableSlot(intPtr(2))
				expired.SlotDate = timezone.Now().AddDate(0, 0, -1)

				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(expired, nil)
			},
			wantErr: true,
		},
		{
			name: "certificates outside the slot's set",
			req: dto.CreateBookingRequest{
				SlotID:       "slot-id",
				Certificates: []string{"degree", "marksheet"},
				Files:        []*multipart.FileHeader{{Filename: "proof.pdf"}},
				FileHandles:  []multipart.File{nil},
			},
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)
			},
			wantErr:  true,
			wantFail: failure.InvalidCertificateSelectionError,
		},
		{
			name: "duplicate active booking",
			req:  createRequest(),
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
			},
			wantErr:  true,
			wantFail: failure.DuplicateBookingError,
		},
		{
			name: "slot already full",
			req:  createRequest(),
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(2, nil)
			},
			wantErr:  true,
			wantFail: failure.CapacityExceededError,
		},
		{
			name: "missing file handles",
			req: dto.CreateBookingRequest{
				SlotID:       "slot-id",
				Certificates: []string{"degree"},
				Files:        []*multipart.FileHeader{{Filename: "proof.pdf"}},
			},
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, nil)
			},
			wantErr:  true,
			wantFail: failure.MissingProofError,
		},
		{
			name: "upload failure",
			req:  createRequest(),
			setupMock: func() {
				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, nil)

				mockS3.EXPECT().
					UploadFile(gomock.Any(), "certslot", model.EntityName, gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", errors.New("storage unavailable"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-id")
			_, err := svc.Create(ctx, tt.req)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantFail != nil {
					assert.ErrorIs(t, err, tt.wantFail)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_UpdateStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockSlotRepo := slotMocks.NewMockSlot(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockSlotRepo, cfg, mockCache, mockOtel, mockS3, mockKafka)

	tests := []struct {
		name       string
		req        dto.UpdateBookingStatusRequest
		id         string
		setupMock  func()
		wantErr    bool
		wantFail   error
		wantStatus string
	}{
		{
			name: "approve a pending booking",
			req:  dto.UpdateBookingStatusRequest{Status: constant.BookingStatusApproved},
			id:   "booking-id",
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockRepo.EXPECT().
					Approve(gomock.Any(), "booking-id", "slot-id", "admin-id").
					Return(nil)

				mockKafka.EXPECT().
					SendMessages(gomock.Any(), constant.KafkaTopicBookingStatus, gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr:    false,
			wantStatus: constant.BookingStatusApproved,
		},
		{
			name: "approval on a full slot",
			req:  dto.UpdateBookingStatusRequest{Status: constant.BookingStatusApproved},
			id:   "booking-id",
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockRepo.EXPECT().
					Approve(gomock.Any(), "booking-id", "slot-id", "admin-id").
					Return(failure.CapacityExceededError)
			},
			wantErr:  true,
			wantFail: failure.CapacityExceededError,
		},
		{
			name: "reject an approved booking frees the seat",
			req:  dto.UpdateBookingStatusRequest{Status: constant.BookingStatusRejected},
			id:   "booking-id",
			setupMock: func() {
				approved := pendingBooking("booking-id", "user-id")
				approved.Status = constant.BookingStatusApproved

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(approved, nil)

				mockRepo.EXPECT().
					Reject(gomock.Any(), "booking-id", "admin-id").
					Return(nil)

				mockKafka.EXPECT().
					SendMessages(gomock.Any(), constant.KafkaTopicBookingStatus, gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr:    false,
			wantStatus: constant.BookingStatusRejected,
		},
		{
			name: "approving a rejected booking is refused",
			req:  dto.UpdateBookingStatusRequest{Status: constant.BookingStatusApproved},
			id:   "booking-id",
			setupMock: func() {
				rejected := pendingBooking("booking-id", "user-id")
				rejected.Status = constant.BookingStatusRejected

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(rejected, nil)
			},
			wantErr:  true,
			wantFail: failure.InvalidTransitionError,
		},
		{
			// A second approval on a full slot is a state problem, not a
			// capacity one. The capacity check never runs.
			name: "re-approving an approved booking on a full slot",
			req:  dto.UpdateBookingStatusRequest{Status: constant.BookingStatusApproved},
			id:   "booking-id",
			setupMock: func() {
				approved := pendingBooking("booking-id", "user-id")
				approved.Status = constant.BookingStatusApproved

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(approved, nil)
			},
			wantErr:  true,
			wantFail: failure.InvalidTransitionError,
		},
		{
			name: "booking not found",
			req:  dto.UpdateBookingStatusRequest{Status: constant.BookingStatusApproved},
			id:   "missing-id",
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-id")
			res, err := svc.UpdateStatus(ctx, tt.req, tt.id)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantFail != nil {
					assert.ErrorIs(t, err, tt.wantFail)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantStatus, res.Status)
			}
		})
	}
}

// Walks a capacity-two slot through three contenders: two approvals fill
// it, the third fails on the recount, rejecting one frees the seat and the
// third lands. The recount itself runs in the repository under the slot
// lock, so the repo return values stand in for it here.
func TestBookingService_CapacityScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockSlotRepo := slotMocks.NewMockSlot(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockSlotRepo, cfg, mockCache, mockOtel, mockS3, mockKafka)

	mockKafka.EXPECT().
		SendMessages(gomock.Any(), constant.KafkaTopicBookingStatus, gomock.Any()).
		Return(nil).
		AnyTimes()

	mockCache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-id")
	approve := dto.UpdateBookingStatusRequest{Status: constant.BookingStatusApproved}
	reject := dto.UpdateBookingStatusRequest{Status: constant.BookingStatusRejected}

	// A and B take the two seats.
	mockRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pendingBooking("booking-a", "user-a"), nil)
	mockRepo.EXPECT().
		Approve(gomock.Any(), "booking-a", "slot-id", "admin-id").
		Return(nil)

	res, err := svc.UpdateStatus(ctx, approve, "booking-a")
	assert.NoError(t, err)
	assert.Equal(t, constant.BookingStatusApproved, res.Status)

	mockRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pendingBooking("booking-b", "user-b"), nil)
	mockRepo.EXPECT().
		Approve(gomock.Any(), "booking-b", "slot-id", "admin-id").
		Return(nil)

	_, err = svc.UpdateStatus(ctx, approve, "booking-b")
	assert.NoError(t, err)

	// The slot is full, C bounces off the recount.
	mockRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pendingBooking("booking-c", "user-c"), nil)
	mockRepo.EXPECT().
		Approve(gomock.Any(), "booking-c", "slot-id", "admin-id").
		Return(failure.CapacityExceededError)

	_, err = svc.UpdateStatus(ctx, approve, "booking-c")
	assert.ErrorIs(t, err, failure.CapacityExceededError)

	// Rejecting A frees exactly one seat.
	bookingA := pendingBooking("booking-a", "user-a")
	bookingA.Status = constant.BookingStatusApproved

	mockRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(bookingA, nil)
	mockRepo.EXPECT().
		Reject(gomock.Any(), "booking-a", "admin-id").
		Return(nil)

	_, err = svc.UpdateStatus(ctx, reject, "booking-a")
	assert.NoError(t, err)

	// C is still pending and lands on the freed seat.
	mockRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pendingBooking("booking-c", "user-c"), nil)
	mockRepo.EXPECT().
		Approve(gomock.Any(), "booking-c", "slot-id", "admin-id").
		Return(nil)

	res, err = svc.UpdateStatus(ctx, approve, "booking-c")
	assert.NoError(t, err)
	assert.Equal(t, constant.BookingStatusApproved, res.Status)

	time.Sleep(10 * time.Millisecond)
}

func TestBookingService_Edit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockSlotRepo := slotMocks.NewMockSlot(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.External.S3.BucketName = "certslot"

	svc := service.New(mockRepo, mockSlotRepo, cfg, mockCache, mockOtel, mockS3, mockKafka)

	tests := []struct {
		name      string
		req       dto.EditBookingRequest
		id        string
		setupMock func()
		wantErr   bool
		wantFail  error
	}{
		{
			name: "owner edits certificates while pending",
			req:  dto.EditBookingRequest{Certificates: []string{"transcript"}},
			id:   "booking-id",
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "replacing proofs deletes the old objects",
			req: dto.EditBookingRequest{
				Files:       []*multipart.FileHeader{{Filename: "proof-v2.pdf"}},
				FileHandles: []multipart.File{nil},
			},
			id: "booking-id",
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockS3.EXPECT().
					UploadFile(gomock.Any(), "certslot", model.EntityName, gomock.Any(), gomock.Any(), gomock.Any()).
					Return("https://cdn.example.com/booking/proof-v2.pdf", nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				mockS3.EXPECT().
					GetObjectNameFromURL("certslot", "https://cdn.example.com/booking/proof.pdf").
					Return("booking/proof.pdf")

				mockS3.EXPECT().
					DeleteFile(gomock.Any(), "certslot", model.EntityName, "booking/proof.pdf").
					Return(nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "only the owner may edit",
			req:  dto.EditBookingRequest{Certificates: []string{"transcript"}},
			id:   "booking-id",
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "someone-else"), nil)
			},
			wantErr:  true,
			wantFail: failure.ResourceRestrictedError,
		},
		{
			name: "approved bookings are frozen",
			req:  dto.EditBookingRequest{Certificates: []string{"transcript"}},
			id:   "booking-id",
			setupMock: func() {
				approved := pendingBooking("booking-id", "user-id")
				approved.Status = constant.BookingStatusApproved

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(approved, nil)
			},
			wantErr:  true,
			wantFail: failure.BookingNotEditableError,
		},
		{
			name: "certificates outside the slot's set",
			req:  dto.EditBookingRequest{Certificates: []string{"marksheet"}},
			id:   "booking-id",
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingBooking("booking-id", "user-id"), nil)

				mockSlotRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookableSlot(intPtr(2)), nil)
			},
			wantErr:  true,
			wantFail: failure.InvalidCertificateSelectionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-id")
			_, err := svc.Edit(ctx, tt.req, tt.id)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantFail != nil {
					assert.ErrorIs(t, err, tt.wantFail)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_GetMine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockSlotRepo := slotMocks.NewMockSlot(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockSlotRepo, cfg, mockCache, mockOtel, mockS3, mockKafka)

	tests := []struct {
		name      string
		userID    string
		setupMock func()
		wantErr   bool
	}{
		{
			name:   "successful listing",
			userID: "user-id",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss")).
					Times(2)

				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(1, nil)

				mockRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{pendingBooking("booking-id", "user-id")}, nil)

				mockCache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr: false,
		},
		{
			name:      "missing user identity",
			userID:    "",
			setupMock: func() {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.Background()
			if tt.userID != "" {
				ctx = context.WithValue(ctx, constant.ContextKeyUserID, tt.userID)
			}

			res, err := svc.GetMine(ctx, gDto.QueryParams{Page: 1, Limit: 10})

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, res.Bookings, 1)
			}
		})
	}
}
