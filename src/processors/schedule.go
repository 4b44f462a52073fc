package processors

import (
	"github.com/username/settlementdash/backend/src/models"
)

var pendingStatuses = map[string]bool{
	models.StatusOpen:                 true,
	models.StatusProcessingSettlement: true,
}

// PendingSchedule projects open and in-settlement rows onto a timeline from
// transaction date to settlement date. Rows missing either date go to
// Invalid instead of being dropped.
func PendingSchedule(view []models.Transaction) Schedule {
	s := Schedule{Valid: []ScheduleItem{}, Invalid: []ScheduleItem{}}
	for _, t := range view {
		if !pendingStatuses[t.SettlementStatus] {
			continue
		}
		item := ScheduleItem{
			Client:        t.ClientName,
			Project:       t.ProjectName,
			Start:         t.TransactionDate,
			Finish:        t.SettlementDate,
			SettledAmount: t.SettledAmount,
			Status:        t.SettlementStatus,
		}
		if item.Start.IsNull() || item.Finish.IsNull() {
			s.Invalid = append(s.Invalid, item)
			continue
		}
		s.Valid = append(s.Valid, item)
	}

	switch {
	case len(s.Valid) == 0:
		s.Status = ScheduleNoData
	case len(s.Invalid) > 0:
		s.Status = ScheduleInvalidRows
	default:
		s.Status = ScheduleOK
	}
	return s
}
