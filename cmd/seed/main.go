package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"certslot/config"
	"certslot/infras/otel"
	"certslot/infras/postgres"
	slotModel "certslot/internal/domains/slot/model"
	slotRepo "certslot/internal/domains/slot/repository"
	userModel "certslot/internal/domains/user/model"
	userRepo "certslot/internal/domains/user/repository"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	"certslot/shared/logger"
	gModel "certslot/shared/model"
	"certslot/shared/password"
	"certslot/shared/timezone"
)

const seedUser = "seed"

var defaultCertificates = []string{"degree", "transcript", "provisional"}

// Seeds an admin account and a week of morning/afternoon pickup slots.
// Safe to rerun, existing rows are left alone.
func main() {
	cfg := config.Get()

	logger.InitLogger()
	logger.SetLogLevel(cfg)

	ctx := context.Background()

	db := postgres.New(cfg)
	otl := otel.New(cfg)

	users := userRepo.New(db, otl)
	slots := slotRepo.New(db, otl)

	seedAdmin(ctx, users)
	seedSlots(ctx, slots)

	log.Info().Msg("Seeding completed")
}

func seedAdmin(ctx context.Context, users userRepo.User) {
	adminEmail := "admin@certslot.local"

	exists, err := users.Exist(ctx, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    userModel.FieldEmail,
				Operator: gDto.FilterOperatorEq,
				Value:    adminEmail,
				Table:    userModel.TableName,
			},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to check admin account")
	}

	if exists {
		log.Info().Msg("Admin account already present")

		return
	}

	hashed, err := password.Hash("changeme-admin")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash admin password")
	}

	admin := userModel.User{
		ID:         uuid.NewString(),
		RollNumber: "ADMIN-0001",
		Email:      adminEmail,
		Password:   hashed,
		Label:      constant.RoleAdmin,
		Active:     true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  seedUser,
			ModifiedBy: seedUser,
		},
	}

	if err := users.Insert(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	log.Info().Str("email", adminEmail).Msg("Seeded admin account")
}

func seedSlots(ctx context.Context, slots slotRepo.Slot) {
	capacity := 10
	times := []string{"09:00 - 11:00", "14:00 - 16:00"}

	for day := 1; day <= 7; day++ {
		date := timezone.DateOnly(timezone.Now().AddDate(0, 0, day))

		for _, slotTime := range times {
			exists, err := slots.Exist(ctx, gDto.FilterGroup{
				Operator: gDto.FilterGroupOperatorAnd,
				Filters: []any{
					gDto.Filter{
						Field:    slotModel.FieldSlotDate,
						Operator: gDto.FilterOperatorEq,
						Value:    date.Format(constant.SlotDateFormat),
						Table:    slotModel.TableName,
					},
					gDto.Filter{
						Field:    slotModel.FieldSlotTime,
						Operator: gDto.FilterOperatorEq,
						Value:    slotTime,
						Table:    slotModel.TableName,
					},
				},
			})
			if err != nil {
				log.Fatal().Err(err).Msg("failed to check slot")
			}

			if exists {
				continue
			}

			slot := slotModel.Slot{
				ID:           uuid.NewString(),
				SlotDate:     date,
				SlotTime:     slotTime,
				Capacity:     &capacity,
				Certificates: pq.StringArray(defaultCertificates),
				Metadata: gModel.Metadata{
					CreatedAt:  timezone.Now(),
					ModifiedAt: timezone.Now(),
					CreatedBy:  seedUser,
					ModifiedBy: seedUser,
				},
			}

			if err := slots.Insert(ctx, slot); err != nil {
				log.Fatal().Err(err).Msg("failed to seed slot")
			}
		}
	}

	log.Info().Msg("Seeded pickup slots")
}
