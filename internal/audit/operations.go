package audit

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// ErrNoLoads is returned when an operation is built from an empty load group.
var ErrNoLoads = errors.New("operation has no loads")

// loadGroup is one partition of loads sharing an operation id.
type loadGroup struct {
	id    string
	loads []models.Load
}

// partitionLoads groups loads by operation id, keeping groups in order of
// first appearance. Loads without an operation id are left out.
func partitionLoads(loads []models.Load) []loadGroup {
	var groups []loadGroup
	position := make(map[string]int)
	for _, l := range loads {
		if l.OperationID == "" {
			continue
		}
		i, ok := position[l.OperationID]
		if !ok {
			i = len(groups)
			position[l.OperationID] = i
			groups = append(groups, loadGroup{id: l.OperationID})
		}
		groups[i].loads = append(groups[i].loads, l)
	}
	return groups
}

// BuildOperations partitions loads by operation id and builds one Operation
// per group. A group that fails to build does not stop the others; all
// failures are returned joined together with the operations that succeeded.
func BuildOperations(loads []models.Load, contracts []models.Contract) ([]models.Operation, error) {
	return buildGroups(partitionLoads(loads), contracts)
}

func buildGroups(groups []loadGroup, contracts []models.Contract) ([]models.Operation, error) {
	operations := make([]models.Operation, 0, len(groups))
	var errs []error
	for _, g := range groups {
		op, err := BuildOperation(g.id, g.loads, contracts)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to build operation %s: %w", g.id, err))
			continue
		}
		operations = append(operations, op)
	}
	return operations, errors.Join(errs...)
}

// BuildOperation aggregates one group of loads.
//
// Algorithm:
//   - contracts: union of destination/origin references that exist, first-reference order
//   - dates: min/max of the loading dates present
//   - totals: sums of quantity, freight and grain value, absent counted as zero
//   - status: finalized if every load is finalized, with-issues if any is
//     canceled, active otherwise
func BuildOperation(groupID string, loads []models.Load, contracts []models.Contract) (models.Operation, error) {
	if len(loads) == 0 {
		return models.Operation{}, ErrNoLoads
	}

	known := contractIndex(contracts)
	seen := make(map[string]struct{})
	op := models.Operation{
		ID:          "op_" + groupID,
		GroupID:     groupID,
		LoadIDs:     make([]string, 0, len(loads)),
		ContractIDs: make([]string, 0),
		FreightCost: decimal.Zero,
		GrainValue:  decimal.Zero,
		LoadCount:   len(loads),
	}

	addContract := func(ref string) {
		if ref == "" {
			return
		}
		if _, ok := known[ref]; !ok {
			return
		}
		if _, dup := seen[ref]; dup {
			return
		}
		seen[ref] = struct{}{}
		op.ContractIDs = append(op.ContractIDs, ref)
	}

	allFinalized := true
	anyCanceled := false
	for _, l := range loads {
		op.LoadIDs = append(op.LoadIDs, l.ID)
		addContract(l.DestinationContractID)
		addContract(l.OriginContractID)

		op.Quantity += l.QuantityOrZero()
		op.FreightCost = op.FreightCost.Add(models.ValueOrZero(l.FreightCost))
		op.GrainValue = op.GrainValue.Add(models.ValueOrZero(l.GrainValue))

		if l.LoadingDate != nil {
			op.StartDate = earliest(op.StartDate, *l.LoadingDate)
			op.EndDate = latest(op.EndDate, *l.LoadingDate)
		}

		if l.Status != models.LoadStatusFinalized {
			allFinalized = false
		}
		if l.Status == models.LoadStatusCanceled {
			anyCanceled = true
		}
	}

	switch {
	case allFinalized:
		op.Status = models.OperationFinalized
	case anyCanceled:
		op.Status = models.OperationWithIssues
	default:
		op.Status = models.OperationActive
	}

	return op, nil
}

func earliest(current *time.Time, t time.Time) *time.Time {
	if current == nil || t.Before(*current) {
		return &t
	}
	return current
}

func latest(current *time.Time, t time.Time) *time.Time {
	if current == nil || t.After(*current) {
		return &t
	}
	return current
}
