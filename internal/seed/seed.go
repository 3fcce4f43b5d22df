// Package seed creates the reference data a fresh installation needs:
// program catalog, fee schedules, dormitory inventory and default staff
// accounts. Every insert is idempotent, so seeding runs on every startup.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/auth"
)

type programSeed struct {
	name          string
	code          string
	durationYears int
	fees          []feeSeed
}

type feeSeed struct {
	feeType   models.FeeType
	amount    float64
	mandatory bool
}

type roomSeed struct {
	number   string
	roomType models.RoomType
	capacity int
	gender   *models.Gender
}

type userSeed struct {
	email    string
	password string
	fullName string
	role     models.RoleType
}

func genderPtr(g models.Gender) *models.Gender { return &g }

var defaultFees = []feeSeed{
	{models.FeeTypeTuition, 2500, true},
	{models.FeeTypeProject, 300, true},
	{models.FeeTypeLibrary, 150, true},
	{models.FeeTypeSports, 100, false},
	{models.FeeTypeBoarding, 1200, false},
}

var defaultPrograms = []programSeed{
	{"Diploma in Civil Engineering", "DCE", 3, defaultFees},
	{"Diploma in Electrical Engineering", "DEE", 3, defaultFees},
	{"Diploma in Business Studies", "DBS", 2, defaultFees},
}

var defaultRooms = []roomSeed{
	{"A-101", models.RoomTypeShared, 4, genderPtr(models.GenderMale)},
	{"A-102", models.RoomTypeShared, 4, genderPtr(models.GenderMale)},
	{"A-201", models.RoomTypeStandard, 2, genderPtr(models.GenderMale)},
	{"B-101", models.RoomTypeShared, 4, genderPtr(models.GenderFemale)},
	{"B-102", models.RoomTypeShared, 4, genderPtr(models.GenderFemale)},
	{"B-201", models.RoomTypeStandard, 2, genderPtr(models.GenderFemale)},
	{"C-101", models.RoomTypeSingle, 1, nil},
	{"C-102", models.RoomTypeSingle, 1, nil},
}

var defaultUsers = []userSeed{
	{"registrar@npi.ac.pg", "Registrar123!", "Martha Waiko", models.RoleRegistrar},
	{"bursar@npi.ac.pg", "Bursar123!", "Peter Namaliu", models.RoleBursar},
	{"admin@npi.ac.pg", "Admin123!", "System Administrator", models.RoleAdmin},
}

// CreateDefaultData seeds programs, fee schedules, rooms and staff accounts
// if they don't exist. Failures are collected and reported together so one
// bad row does not stop the rest.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	academicYear := time.Now().Year()

	for _, p := range defaultPrograms {
		var programID int64
		err := dbPool.QueryRow(ctx, `
			INSERT INTO programs (name, code, duration_years, is_active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			p.name, p.code, p.durationYears,
		).Scan(&programID)
		if err != nil {
			lgr.Error().Err(err).Str("program", p.code).Msg("Error seeding program")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		for _, f := range p.fees {
			_, err := dbPool.Exec(ctx, `
				INSERT INTO fee_items (program_id, fee_type, amount, is_mandatory, academic_year)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (program_id, fee_type, academic_year) DO NOTHING`,
				programID, f.feeType, f.amount, f.mandatory, academicYear,
			)
			if err != nil {
				lgr.Error().Err(err).Str("program", p.code).Str("feeType", string(f.feeType)).Msg("Error seeding fee item")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	for _, r := range defaultRooms {
		_, err := dbPool.Exec(ctx, `
			INSERT INTO rooms (room_number, room_type, capacity, current_occupancy, gender_restriction, is_available)
			VALUES ($1, $2, $3, 0, $4, TRUE)
			ON CONFLICT (room_number) DO NOTHING`,
			r.number, r.roomType, r.capacity, r.gender,
		)
		if err != nil {
			lgr.Error().Err(err).Str("room", r.number).Msg("Error seeding room")
			finalErr = errors.Join(finalErr, err)
		}
	}

	for _, u := range defaultUsers {
		hashed, err := auth.HashPassword(u.password)
		if err != nil {
			lgr.Error().Err(err).Str("email", u.email).Msg("Error hashing seed password")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		tag, err := dbPool.Exec(ctx, `
			INSERT INTO users (email, password, full_name, role, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (email) DO NOTHING`,
			u.email, hashed, u.fullName, u.role,
		)
		if err != nil {
			lgr.Error().Err(err).Str("email", u.email).Msg("Error seeding staff user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if tag.RowsAffected() > 0 {
			lgr.Info().Str("email", u.email).Str("role", string(u.role)).Msg("Created default staff user")
		}
	}

	return finalErr
}
