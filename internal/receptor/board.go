// Package receptor is the operator console: it shows the live queue of the
// room the workstation's module belongs to.
package receptor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"text/tabwriter"

	"qms/shift-service/internal/async"
	"qms/shift-service/internal/client"
	"qms/shift-service/internal/feed"
	"qms/shift-service/internal/view"
)

type Board struct {
	api    *client.Client
	feed   *feed.Subscriber
	out    io.Writer
	logger *slog.Logger

	mu         sync.Mutex
	module     view.Module
	distracted []view.Shift
}

// NewBoard renders every queue snapshot the subscriber produces to out.
func NewBoard(api *client.Client, sub *feed.Subscriber, out io.Writer, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Board{api: api, feed: sub, out: out, logger: logger}
	sub.Observe(b.render)
	return b
}

// Load resolves the workstation's module, subscribes to its room channel
// and then fetches the room queue, so events published during the fetch
// are folded in. The distracted list is fetched alongside. Only a failure
// to resolve the module or to subscribe is returned; list fetch failures
// are logged and leave the list empty.
func (b *Board) Load(ctx context.Context) error {
	module, err := b.api.MyModule(ctx)
	if err != nil {
		return fmt.Errorf("resolve module %s: %w", b.api.ModuleIP(), err)
	}
	b.mu.Lock()
	b.module = module
	b.mu.Unlock()

	roomID := module.Room.ID
	distracted := async.Run(ctx, func(ctx context.Context) ([]view.Shift, error) {
		return b.api.DistractedShifts(ctx, roomID)
	}, async.Callbacks[[]view.Shift]{
		OnSuccess: func(shifts []view.Shift) {
			b.mu.Lock()
			b.distracted = shifts
			b.mu.Unlock()
		},
		OnError: func(err error) { b.logger.Error("load distracted shifts", "room_id", roomID, "error", err) },
	})

	err = b.feed.Follow(ctx, roomID, func(ctx context.Context) ([]view.Shift, error) {
		queue := async.Run(ctx, func(ctx context.Context) ([]view.Shift, error) {
			return b.api.ShiftsByRoom(ctx, roomID)
		}, async.Callbacks[[]view.Shift]{
			OnError: func(err error) { b.logger.Error("load room queue", "room_id", roomID, "error", err) },
		})
		initial, _ := async.Wait(queue)
		<-queue
		return initial, nil
	})

	// the channel closes once the callbacks are done
	<-distracted
	return err
}

func (b *Board) Module() view.Module {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.module
}

func (b *Board) Queue() []view.Shift {
	return b.feed.Snapshot()
}

func (b *Board) Distracted() []view.Shift {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.distracted)
}

// CancelShift asks the server to remove a shift. The queue changes when the
// shift.deleted broadcast arrives.
func (b *Board) CancelShift(ctx context.Context, shiftID string) error {
	if err := b.api.DeleteShift(ctx, shiftID); err != nil {
		b.logger.Error("cancel shift failed", "shift_id", shiftID, "error", err)
		return err
	}
	b.logger.Info("shift cancelled", "shift_id", shiftID)
	return nil
}

func (b *Board) Close() error {
	return b.feed.Close()
}

func (b *Board) render(queue []view.Shift) {
	module := b.Module()
	tw := tabwriter.NewWriter(b.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s / %s (%s)\n", module.Room.Name, module.Name, module.IPAddress)
	fmt.Fprintln(tw, "#\tSTATE\tCLIENT\tTYPE\tSHIFT")
	for i, s := range queue {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, s.State, s.Client.Name, s.Client.ClientType, s.ID)
	}
	if err := tw.Flush(); err != nil {
		b.logger.Warn("render queue", "error", err)
	}
}
