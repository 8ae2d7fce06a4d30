package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"chainfeed/internal/chain"
	"chainfeed/internal/model"
)

var (
	testProgram = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	testScoped  = solana.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")
	testOracle  = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
)

var errUpstreamEnded = errors.New("upstream subscription ended")

type accountRecv struct {
	raw *model.RawKeyedAccount
	err error
}

type fakeAccountStream struct {
	items chan accountRecv
}

func newFakeAccountStream() *fakeAccountStream {
	return &fakeAccountStream{items: make(chan accountRecv, 16)}
}

func (s *fakeAccountStream) Recv(ctx context.Context) (*model.RawKeyedAccount, error) {
	select {
	case item, ok := <-s.items:
		if !ok {
			return nil, errUpstreamEnded
		}
		return item.raw, item.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeAccountStream) Unsubscribe() {}

type slotRecv struct {
	raw *model.RawSlotUpdate
	err error
}

type fakeSlotStream struct {
	items chan slotRecv
}

func newFakeSlotStream() *fakeSlotStream {
	return &fakeSlotStream{items: make(chan slotRecv, 16)}
}

func (s *fakeSlotStream) Recv(ctx context.Context) (*model.RawSlotUpdate, error) {
	select {
	case item, ok := <-s.items:
		if !ok {
			return nil, errUpstreamEnded
		}
		return item.raw, item.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSlotStream) Unsubscribe() {}

type fakeSession struct {
	program      *fakeAccountStream
	scoped       *fakeAccountStream
	tracked      *fakeAccountStream
	slots        *fakeSlotStream
	subscribeErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		program: newFakeAccountStream(),
		scoped:  newFakeAccountStream(),
		tracked: newFakeAccountStream(),
		slots:   newFakeSlotStream(),
	}
}

func (s *fakeSession) ProgramSubscribe(_ solana.PublicKey, filters []rpc.RPCFilter) (chain.AccountStream, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	if len(filters) > 0 {
		return s.scoped, nil
	}
	return s.program, nil
}

func (s *fakeSession) AccountSubscribe(solana.PublicKey) (chain.AccountStream, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	return s.tracked, nil
}

func (s *fakeSession) SlotsSubscribe() (chain.SlotStream, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	return s.slots, nil
}

func (s *fakeSession) Close() {}

func testConfig(session *fakeSession) Config {
	return Config{
		Program:         testProgram,
		ScopedProgram:   testScoped,
		ScopedFilters:   []rpc.RPCFilter{{DataSize: 3228}},
		TrackedAccounts: []solana.PublicKey{testOracle},
		IdleTimeout:     time.Second,
		Dial: func(context.Context) (chain.Session, error) {
			return session, nil
		},
	}
}

func rawAccount(t *testing.T, pubkey string, slot uint64) *model.RawKeyedAccount {
	t.Helper()
	var data rpc.DataBytesOrJSON
	if err := json.Unmarshal([]byte(`["aGVsbG8=","base64"]`), &data); err != nil {
		t.Fatalf("build account data: %v", err)
	}
	return &model.RawKeyedAccount{
		Pubkey: pubkey,
		Slot:   slot,
		Account: &rpc.Account{
			Lamports: 1,
			Data:     &data,
		},
	}
}
