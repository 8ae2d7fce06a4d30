package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chainfeed/internal/chain"
	"chainfeed/internal/model"
)

type sourceKind int

const (
	sourceProgram sourceKind = iota
	sourceScoped
	sourceTracked
	sourceSlots
)

func (k sourceKind) String() string {
	switch k {
	case sourceProgram:
		return "program"
	case sourceScoped:
		return "scoped-program"
	case sourceTracked:
		return "tracked-account"
	case sourceSlots:
		return "slots"
	default:
		return "unknown"
	}
}

// streamItem is one merged arrival: a raw payload from one subscription
// group, or that group's end-of-stream error.
type streamItem struct {
	source  sourceKind
	tag     string
	account *model.RawKeyedAccount
	slot    *model.RawSlotUpdate
	err     error
}

// runSession drives one complete connection lifecycle: connect, open the
// four subscription groups, then pump merged events until any group ends,
// the idle timer fires, or a payload fails to decode. A nil return means
// the session ended cleanly and should simply be restarted.
func (f *Feed) runSession(ctx context.Context) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	session, err := f.cfg.Dial(sessionCtx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer session.Close()

	merged := make(chan streamItem)

	programSub, err := session.ProgramSubscribe(f.cfg.Program, nil)
	if err != nil {
		return fmt.Errorf("subscribe program %s: %w", f.cfg.Program, err)
	}
	defer programSub.Unsubscribe()
	go pumpAccounts(sessionCtx, sourceProgram, "", programSub, merged)

	scopedSub, err := session.ProgramSubscribe(f.cfg.ScopedProgram, f.cfg.ScopedFilters)
	if err != nil {
		return fmt.Errorf("subscribe scoped program %s: %w", f.cfg.ScopedProgram, err)
	}
	defer scopedSub.Unsubscribe()
	go pumpAccounts(sessionCtx, sourceScoped, "", scopedSub, merged)

	for _, account := range f.cfg.TrackedAccounts {
		sub, err := session.AccountSubscribe(account)
		if err != nil {
			return fmt.Errorf("subscribe account %s: %w", account, err)
		}
		defer sub.Unsubscribe()
		go pumpAccounts(sessionCtx, sourceTracked, account.String(), sub, merged)
	}

	slotSub, err := session.SlotsSubscribe()
	if err != nil {
		return fmt.Errorf("subscribe slot updates: %w", err)
	}
	defer slotSub.Unsubscribe()
	go pumpSlots(sessionCtx, slotSub, merged)

	idle := time.NewTimer(f.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-merged:
			if item.err != nil {
				// Losing any one group means the local view would
				// silently stop tracking that population, so the whole
				// session goes down with it.
				f.logger.Warn("subscription stream closed",
					zap.Stringer("source", item.source),
					zap.String("account", item.tag),
					zap.Error(item.err))
				return nil
			}
			if err := f.forward(ctx, item); err != nil {
				return err
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(f.cfg.IdleTimeout)
		case <-idle.C:
			f.logger.Warn("websocket idle timeout, assuming dead connection",
				zap.Duration("idle_timeout", f.cfg.IdleTimeout))
			return nil
		}
	}
}

// forward normalizes one raw payload and pushes the resulting event
// downstream. The push blocks when the channel is full: the session has no
// other useful work while the consumer is behind, and dropping events is
// not an option. A decode failure is fatal to the session, since a
// malformed payload signals transport desync rather than a transient blip.
func (f *Feed) forward(ctx context.Context, item streamItem) error {
	var event model.Event
	switch {
	case item.account != nil:
		update, err := model.NormalizeAccount(*item.account)
		if err != nil {
			return fmt.Errorf("%s notification: %w", item.source, err)
		}
		event = model.AccountEvent(update)
	case item.slot != nil:
		update, ok := model.NormalizeSlot(*item.slot)
		if !ok {
			return nil
		}
		event = model.SlotEvent(update)
	default:
		return nil
	}

	select {
	case f.out <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func pumpAccounts(ctx context.Context, source sourceKind, tag string, stream chain.AccountStream, merged chan<- streamItem) {
	for {
		raw, err := stream.Recv(ctx)
		if err != nil {
			select {
			case merged <- streamItem{source: source, tag: tag, err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case merged <- streamItem{source: source, tag: tag, account: raw}:
		case <-ctx.Done():
			return
		}
	}
}

func pumpSlots(ctx context.Context, stream chain.SlotStream, merged chan<- streamItem) {
	for {
		raw, err := stream.Recv(ctx)
		if err != nil {
			select {
			case merged <- streamItem{source: sourceSlots, err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case merged <- streamItem{source: sourceSlots, slot: raw}:
		case <-ctx.Done():
			return
		}
	}
}
