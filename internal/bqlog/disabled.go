package bqlog

import "context"

// Disabled is the sink used when BigQuery is not configured or failed to
// initialize. Detection keeps working; logging reports itself disabled.
type Disabled struct{}

func (Disabled) Enabled() bool {
	return false
}

func (Disabled) Insert(context.Context, []*Row) error {
	return nil
}

func (Disabled) QueryHistory(context.Context, string, int) ([]HistoryEntry, error) {
	return nil, nil
}

func (Disabled) Status() Status {
	return Status{Enabled: false}
}

func (d Disabled) WithOverride(TargetOverride) Logger {
	return d
}
