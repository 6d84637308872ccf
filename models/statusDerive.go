package models

// WeekdayColumns in board display order, between Prepare and Completed.
var WeekdayColumns = []JobColumn{
	JobColumnMonday,
	JobColumnTuesday,
	JobColumnWednesday,
	JobColumnThursday,
	JobColumnFriday,
}

// BoardColumns is the full column set in display order.
func BoardColumns() []JobColumn {
	columns := make([]JobColumn, 0, len(WeekdayColumns)+3)
	columns = append(columns, JobColumnPrepare)
	columns = append(columns, WeekdayColumns...)
	columns = append(columns, JobColumnCompleted, JobColumnArchive)
	return columns
}

// DeriveStatusForColumn resolves the lifecycle status for a job entering the
// given column outside the full completion workflow (a plain drag between
// board columns). Entering Completed forces Completed; leaving it demotes to
// InProgress, never back to New.
func DeriveStatusForColumn(column JobColumn, previous JobStatus) JobStatus {
	switch column {
	case JobColumnCompleted:
		return JobStatusCompleted
	case JobColumnArchive:
		return JobStatusArchived
	default:
		if previous == JobStatusCompleted || previous == JobStatusArchived {
			return JobStatusInProgress
		}
		return previous
	}
}
