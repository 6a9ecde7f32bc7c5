package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
)

type FlightRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *FlightRepo) With(db DB) *FlightRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *FlightRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const classColumns = `id, flight_id, name, currency, travel_type, admin_only,
	seats, available_seats,
	fare_adult, fare_child, fare_infant, tax_adult, tax_child, cat_fee,
	surcharge_short, surcharge_long, surcharge_multi,
	comm_adult, comm_child, fare_rules, deleted`

func scanClass(row pgx.Row) (*domain.Class, error) {
	var c domain.Class
	err := row.Scan(
		&c.ID, &c.FlightID, &c.Name, &c.Currency, &c.TravelType, &c.AdminOnly,
		&c.Seats, &c.AvailableSeats,
		&c.FareAdult, &c.FareChild, &c.FareInfant, &c.TaxAdult, &c.TaxChild, &c.CatFee,
		&c.SurchargeShort, &c.SurchargeLong, &c.SurchargeMulti,
		&c.CommAdult, &c.CommChild, &c.FareRules, &c.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *FlightRepo) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	const op = "postgres.FlightRepo.GetFlight"

	var f domain.Flight
	err := r.handle().QueryRow(ctx,
		`SELECT id, origin, destination, starts_at, ends_at,
		        airline, airline_code, seats, currency, status, created_at
		 FROM flights
		 WHERE id = $1 AND status <> 'deleted'`,
		id,
	).Scan(
		&f.ID, &f.Origin, &f.Destination, &f.StartsAt, &f.EndsAt,
		&f.Airline, &f.AirlineCode, &f.Seats, &f.Currency, &f.Status, &f.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &f, nil
}

func (r *FlightRepo) ListFlights(
	ctx context.Context,
	origin, destination string,
	from time.Time,
	limit, offset int,
) ([]domain.Flight, error) {
	const op = "postgres.FlightRepo.ListFlights"

	rows, err := r.handle().Query(ctx,
		`SELECT id, origin, destination, starts_at, ends_at,
		        airline, airline_code, seats, currency, status, created_at
		 FROM flights
		 WHERE status <> 'deleted'
		   AND ($1 = '' OR origin = $1)
		   AND ($2 = '' OR destination = $2)
		   AND starts_at >= $3
		 ORDER BY starts_at
		 LIMIT $4 OFFSET $5`,
		origin, destination, from, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Flight
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(
			&f.ID, &f.Origin, &f.Destination, &f.StartsAt, &f.EndsAt,
			&f.Airline, &f.AirlineCode, &f.Seats, &f.Currency, &f.Status, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *FlightRepo) CreateFlight(ctx context.Context, f *domain.Flight) (int64, error) {
	const op = "postgres.FlightRepo.CreateFlight"

	var id int64
	err := r.handle().QueryRow(ctx,
		`INSERT INTO flights(origin, destination, starts_at, ends_at,
		                     airline, airline_code, seats, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'upcoming')
		 RETURNING id`,
		f.Origin, f.Destination, f.StartsAt, f.EndsAt,
		f.Airline, f.AirlineCode, f.Seats, f.Currency,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *FlightRepo) UpdateFlight(ctx context.Context, f *domain.Flight) error {
	const op = "postgres.FlightRepo.UpdateFlight"

	tag, err := r.handle().Exec(ctx,
		`UPDATE flights
		 SET origin = $2, destination = $3, starts_at = $4, ends_at = $5,
		     airline = $6, airline_code = $7, seats = $8, currency = $9
		 WHERE id = $1 AND status <> 'deleted'`,
		f.ID, f.Origin, f.Destination, f.StartsAt, f.EndsAt,
		f.Airline, f.AirlineCode, f.Seats, f.Currency,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *FlightRepo) SoftDeleteFlight(ctx context.Context, id int64) error {
	const op = "postgres.FlightRepo.SoftDeleteFlight"

	tag, err := r.handle().Exec(ctx,
		`UPDATE flights SET status = 'deleted' WHERE id = $1 AND status <> 'deleted'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *FlightRepo) GetClass(ctx context.Context, id int64) (*domain.Class, error) {
	const op = "postgres.FlightRepo.GetClass"

	c, err := scanClass(r.handle().QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = $1 AND NOT deleted`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return c, nil
}

// ClassesByFlight lists non-deleted classes of a flight. Admin-only
// classes are hidden unless includeAdminOnly is set.
func (r *FlightRepo) ClassesByFlight(
	ctx context.Context,
	flightID int64,
	includeAdminOnly bool,
) ([]domain.Class, error) {
	const op = "postgres.FlightRepo.ClassesByFlight"

	rows, err := r.handle().Query(ctx,
		`SELECT `+classColumns+`
		 FROM classes
		 WHERE flight_id = $1 AND NOT deleted AND ($2 OR NOT admin_only)
		 ORDER BY id`,
		flightID, includeAdminOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *FlightRepo) CreateClass(ctx context.Context, c *domain.Class) (int64, error) {
	const op = "postgres.FlightRepo.CreateClass"

	var id int64
	err := r.handle().QueryRow(ctx,
		`INSERT INTO classes(flight_id, name, currency, travel_type, admin_only,
		                     seats, available_seats,
		                     fare_adult, fare_child, fare_infant,
		                     tax_adult, tax_child, cat_fee,
		                     surcharge_short, surcharge_long, surcharge_multi,
		                     comm_adult, comm_child, fare_rules)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING id`,
		c.FlightID, c.Name, c.Currency, c.TravelType, c.AdminOnly,
		c.Seats, c.AvailableSeats,
		c.FareAdult, c.FareChild, c.FareInfant,
		c.TaxAdult, c.TaxChild, c.CatFee,
		c.SurchargeShort, c.SurchargeLong, c.SurchargeMulti,
		c.CommAdult, c.CommChild, c.FareRules,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *FlightRepo) UpdateClass(ctx context.Context, c *domain.Class) error {
	const op = "postgres.FlightRepo.UpdateClass"

	tag, err := r.handle().Exec(ctx,
		`UPDATE classes
		 SET name = $2, travel_type = $3, admin_only = $4,
		     seats = $5, available_seats = $6,
		     fare_adult = $7, fare_child = $8, fare_infant = $9,
		     tax_adult = $10, tax_child = $11, cat_fee = $12,
		     surcharge_short = $13, surcharge_long = $14, surcharge_multi = $15,
		     comm_adult = $16, comm_child = $17, fare_rules = $18
		 WHERE id = $1 AND NOT deleted`,
		c.ID, c.Name, c.TravelType, c.AdminOnly,
		c.Seats, c.AvailableSeats,
		c.FareAdult, c.FareChild, c.FareInfant,
		c.TaxAdult, c.TaxChild, c.CatFee,
		c.SurchargeShort, c.SurchargeLong, c.SurchargeMulti,
		c.CommAdult, c.CommChild, c.FareRules,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *FlightRepo) SoftDeleteClass(ctx context.Context, id int64) error {
	const op = "postgres.FlightRepo.SoftDeleteClass"

	tag, err := r.handle().Exec(ctx,
		`UPDATE classes SET deleted = TRUE WHERE id = $1 AND NOT deleted`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// SumClassSeats is the total seat count of all non-deleted classes of
// a flight, optionally excluding one class. Used for the flight
// capacity check.
func (r *FlightRepo) SumClassSeats(ctx context.Context, flightID, excludeClassID int64) (int, error) {
	const op = "postgres.FlightRepo.SumClassSeats"

	var sum int
	err := r.handle().QueryRow(ctx,
		`SELECT COALESCE(SUM(seats), 0)
		 FROM classes
		 WHERE flight_id = $1 AND NOT deleted AND id <> $2`,
		flightID, excludeClassID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return sum, nil
}
