// Package notify tells administrators that an export finished.
package notify

import (
	"context"
	"errors"
)

// ExportCompleted is emitted once per successful export.
type ExportCompleted struct {
	ExportID string `json:"exportId"`
	ActorID  string `json:"actorId"`
	Type     string `json:"type"`
	Format   string `json:"format"`
	FileURL  string `json:"fileUrl"`
	FileSize int64  `json:"fileSize"`
	RowCount int    `json:"rowCount"`
}

// Notifier delivers completion messages.
type Notifier interface {
	Notify(ctx context.Context, msg ExportCompleted) error
}

// MultiNotifier fans a message out to several notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier constructs a MultiNotifier. Nil entries are skipped.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	kept := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return &MultiNotifier{notifiers: kept}
}

// Notify forwards msg to every notifier and joins their errors.
func (m *MultiNotifier) Notify(ctx context.Context, msg ExportCompleted) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
