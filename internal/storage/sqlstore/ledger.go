package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// LoadSnapshot reads the four ledger collections inside one transaction.
func (s *Store) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	var opts *sql.TxOptions
	if s.dialect.name == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var snap models.Snapshot
	if snap.Loads, err = s.queryLoads(ctx, tx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Contracts, err = s.queryContracts(ctx, tx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Entries, err = s.queryEntries(ctx, tx); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Provisionings, err = s.queryProvisionings(ctx, tx); err != nil {
		return models.Snapshot{}, err
	}

	return snap, nil
}

func (s *Store) queryLoads(ctx context.Context, tx *sql.Tx) ([]models.Load, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, number, status, loading_date, quantity, destination_contract_id,
		       origin_contract_id, freight_cost, grain_value, operation_id
		FROM loads ORDER BY number, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get loads: %w", err)
	}
	defer rows.Close()

	loads := make([]models.Load, 0)
	for rows.Next() {
		var (
			l                         models.Load
			loadingDate, dest, origin sql.NullString
			operation                 sql.NullString
			quantity                  sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.Number, &l.Status, &loadingDate, &quantity, &dest,
			&origin, &l.FreightCost, &l.GrainValue, &operation); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		if loadingDate.Valid {
			t, err := parseTime(loadingDate.String)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", l.ID, err)
			}
			l.LoadingDate = &t
		}
		l.Quantity = floatPtr(quantity)
		l.DestinationContractID = dest.String
		l.OriginContractID = origin.String
		l.OperationID = operation.String
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loads: %w", err)
	}
	return loads, nil
}

func (s *Store) queryContracts(ctx context.Context, tx *sql.Tx) ([]models.Contract, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, buyer_id, seller_id, quantity, price_per_unit, delivery_deadline,
		       done, canceled, in_progress, created_at
		FROM contracts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get contracts: %w", err)
	}
	defer rows.Close()

	contracts := make([]models.Contract, 0)
	for rows.Next() {
		var (
			c                       models.Contract
			buyer, seller, deadline sql.NullString
			createdAt               string
		)
		if err := rows.Scan(&c.ID, &buyer, &seller, &c.Quantity, &c.PricePerUnit, &deadline,
			&c.Done, &c.Canceled, &c.InProgress, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		c.BuyerID = buyer.String
		c.SellerID = seller.String
		c.DeliveryDeadline = models.Deadline(deadline.String)
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("contract %s: %w", c.ID, err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contracts: %w", err)
	}
	return contracts, nil
}

func (s *Store) queryEntries(ctx context.Context, tx *sql.Tx) ([]models.SettlementEntry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, quantity, load_id, destination_contract_id, origin_contract_id,
		       status, distance_km, value
		FROM settlement_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.SettlementEntry, 0)
	for rows.Next() {
		var (
			e                    models.SettlementEntry
			loadID, dest, origin sql.NullString
			distance             sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.Quantity, &loadID, &dest, &origin,
			&e.Status, &distance, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan settlement entry: %w", err)
		}
		e.LoadID = loadID.String
		e.DestinationContractID = dest.String
		e.OriginContractID = origin.String
		e.DistanceKm = floatPtr(distance)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement entries: %w", err)
	}
	return entries, nil
}

func (s *Store) queryProvisionings(ctx context.Context, tx *sql.Tx) ([]models.Provisioning, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, contract_id, user_id, quantity, remaining, price_per_unit,
		       is_grain, delivery_deadline, created_at
		FROM provisionings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get provisionings: %w", err)
	}
	defer rows.Close()

	provisionings := make([]models.Provisioning, 0)
	for rows.Next() {
		var (
			p                            models.Provisioning
			contractID, userID, deadline sql.NullString
			quantity, remaining          sql.NullFloat64
			createdAt                    string
		)
		if err := rows.Scan(&p.ID, &contractID, &userID, &quantity, &remaining, &p.PricePerUnit,
			&p.IsGrain, &deadline, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan provisioning: %w", err)
		}
		p.ContractID = contractID.String
		p.UserID = userID.String
		p.Quantity = floatPtr(quantity)
		p.Remaining = floatPtr(remaining)
		p.DeliveryDeadline = models.Deadline(deadline.String)
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("provisioning %s: %w", p.ID, err)
		}
		provisionings = append(provisionings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provisionings: %w", err)
	}
	return provisionings, nil
}

// ImportSnapshot upserts every record by id. Records already stored but
// absent from snap are left untouched.
func (s *Store) ImportSnapshot(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	for _, c := range snap.Contracts {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO contracts (id, buyer_id, seller_id, quantity, price_per_unit,
			                       delivery_deadline, done, canceled, in_progress, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				buyer_id = excluded.buyer_id,
				seller_id = excluded.seller_id,
				quantity = excluded.quantity,
				price_per_unit = excluded.price_per_unit,
				delivery_deadline = excluded.delivery_deadline,
				done = excluded.done,
				canceled = excluded.canceled,
				in_progress = excluded.in_progress,
				created_at = excluded.created_at`),
			c.ID, nullString(c.BuyerID), nullString(c.SellerID), c.Quantity, c.PricePerUnit,
			nullString(string(c.DeliveryDeadline)), c.Done, c.Canceled, c.InProgress, formatTime(createdAt),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert contract %s: %w", c.ID, err)
		}
	}

	for _, l := range snap.Loads {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO loads (id, number, status, loading_date, quantity, destination_contract_id,
			                   origin_contract_id, freight_cost, grain_value, operation_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				number = excluded.number,
				status = excluded.status,
				loading_date = excluded.loading_date,
				quantity = excluded.quantity,
				destination_contract_id = excluded.destination_contract_id,
				origin_contract_id = excluded.origin_contract_id,
				freight_cost = excluded.freight_cost,
				grain_value = excluded.grain_value,
				operation_id = excluded.operation_id`),
			l.ID, l.Number, l.Status, nullTime(l.LoadingDate), nullFloat(l.Quantity),
			nullString(l.DestinationContractID), nullString(l.OriginContractID),
			l.FreightCost, l.GrainValue, nullString(l.OperationID),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert load %s: %w", l.ID, err)
		}
	}

	for _, e := range snap.Entries {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO settlement_entries (id, quantity, load_id, destination_contract_id,
			                                origin_contract_id, status, distance_km, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				quantity = excluded.quantity,
				load_id = excluded.load_id,
				destination_contract_id = excluded.destination_contract_id,
				origin_contract_id = excluded.origin_contract_id,
				status = excluded.status,
				distance_km = excluded.distance_km,
				value = excluded.value`),
			e.ID, e.Quantity, nullString(e.LoadID), nullString(e.DestinationContractID),
			nullString(e.OriginContractID), e.Status, nullFloat(e.DistanceKm), e.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert settlement entry %s: %w", e.ID, err)
		}
	}

	for _, p := range snap.Provisionings {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO provisionings (id, contract_id, user_id, quantity, remaining,
			                           price_per_unit, is_grain, delivery_deadline, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				contract_id = excluded.contract_id,
				user_id = excluded.user_id,
				quantity = excluded.quantity,
				remaining = excluded.remaining,
				price_per_unit = excluded.price_per_unit,
				is_grain = excluded.is_grain,
				delivery_deadline = excluded.delivery_deadline,
				created_at = excluded.created_at`),
			p.ID, nullString(p.ContractID), nullString(p.UserID), nullFloat(p.Quantity),
			nullFloat(p.Remaining), p.PricePerUnit, p.IsGrain,
			nullString(string(p.DeliveryDeadline)), formatTime(createdAt),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert provisioning %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
