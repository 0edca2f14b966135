// Package writer defines sinks for transaction records.
package writer

import (
	"context"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// Writer consumes records until in is closed or ctx is done.
type Writer interface {
	Write(ctx context.Context, in <-chan api.TransactionRecord) error
}

// Drain feeds records into w and returns w's result.
func Drain(ctx context.Context, w Writer, records []api.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in := make(chan api.TransactionRecord)
	errCh := make(chan error, 1)
	go func() { errCh <- w.Write(ctx, in) }()

	for _, r := range records {
		select {
		case in <- r:
		case err := <-errCh:
			// The writer stopped early; nothing will read the rest.
			return err
		case <-ctx.Done():
			close(in)
			<-errCh
			return ctx.Err()
		}
	}
	close(in)
	return <-errCh
}
