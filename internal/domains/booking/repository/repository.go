package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"certslot/infras/otel"
	"certslot/infras/postgres"
	"certslot/internal/domains/booking/model"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	"certslot/shared/failure"
	"certslot/shared/logger"
	gRepo "certslot/shared/repository"
)

const (
	queryLockSlot      = "SELECT capacity FROM slots WHERE id = $1 FOR UPDATE"
	queryCountApproved = "SELECT COUNT(*) FROM bookings WHERE slot_id = $1 AND status = $2"
	queryApprove       = "UPDATE bookings SET status = $1, modified_by = $2, modified_at = NOW() WHERE id = $3 AND status = $4"
	queryReject        = "UPDATE bookings SET status = $1, modified_by = $2, modified_at = NOW() WHERE id = $3 AND status IN ($4, $5)"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	Approve(ctx context.Context, bookingID, slotID, user string) error
	Reject(ctx context.Context, bookingID, user string) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// Approve flips a pending booking to approved while holding a row lock on
// the slot, so the capacity check and the status change are atomic against
// concurrent approvals.
func (repo *repositoryImpl) Approve(ctx context.Context, bookingID, slotID, user string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Approve")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin transaction (%s): %w", model.EntityName, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity *int

	err = tx.GetContext(ctx, &capacity, queryLockSlot, slotID)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to lock slot (%s): %w", model.EntityName, err)
	}

	if capacity != nil {
		var approved int

		err = tx.GetContext(ctx, &approved, queryCountApproved, slotID, constant.BookingStatusApproved)
		if err != nil {
			logger.ErrorWithStack(err)

			return fmt.Errorf("failed to count approved bookings (%s): %w", model.EntityName, err)
		}

		if approved >= *capacity {
			return failure.CapacityExceededError
		}
	}

	res, err := tx.ExecContext(ctx, queryApprove,
		constant.BookingStatusApproved, user, bookingID, constant.BookingStatusPending)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to approve booking (%s): %w", model.EntityName, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to read affected rows (%s): %w", model.EntityName, err)
	}

	if affected == 0 {
		return failure.InvalidTransitionError
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit transaction (%s): %w", model.EntityName, err)
	}

	return nil
}

// Reject moves a pending or approved booking to rejected. Rejecting an
// approved booking frees its seat implicitly since capacity is counted
// over approved rows only.
func (repo *repositoryImpl) Reject(ctx context.Context, bookingID, user string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	res, err := repo.db.Write.ExecContext(ctx, queryReject,
		constant.BookingStatusRejected, user, bookingID, constant.BookingStatusPending, constant.BookingStatusApproved)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to reject booking (%s): %w", model.EntityName, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to read affected rows (%s): %w", model.EntityName, err)
	}

	if affected == 0 {
		return failure.InvalidTransitionError
	}

	return nil
}
