package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"

	"chainfeed/internal/model"
)

// AccountStream delivers raw keyed-account notifications for one
// subscription until the upstream ends.
type AccountStream interface {
	Recv(ctx context.Context) (*model.RawKeyedAccount, error)
	Unsubscribe()
}

// SlotStream delivers raw slot lifecycle notifications until the upstream
// ends.
type SlotStream interface {
	Recv(ctx context.Context) (*model.RawSlotUpdate, error)
	Unsubscribe()
}

// Session is one live pubsub connection. All subscriptions opened on a
// session die with it; nothing is reusable after Close.
type Session interface {
	ProgramSubscribe(program solana.PublicKey, filters []rpc.RPCFilter) (AccountStream, error)
	AccountSubscribe(account solana.PublicKey) (AccountStream, error)
	SlotsSubscribe() (SlotStream, error)
	Close()
}

// Client wraps the websocket pubsub client and implements Session.
type Client struct {
	ws *ws.Client
}

// Dial opens a websocket pubsub connection to the node.
func Dial(ctx context.Context, wsURL string) (*Client, error) {
	conn, err := ws.Connect(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	return &Client{ws: conn}, nil
}

// Close tears down the websocket connection and every subscription on it.
func (c *Client) Close() {
	if c.ws != nil {
		c.ws.Close()
	}
}

// ProgramSubscribe opens a program-accounts subscription, optionally scoped
// by filters. Account payloads arrive base64 encoded at processed
// commitment.
func (c *Client) ProgramSubscribe(program solana.PublicKey, filters []rpc.RPCFilter) (AccountStream, error) {
	sub, err := c.ws.ProgramSubscribeWithOpts(program, rpc.CommitmentProcessed, solana.EncodingBase64, filters)
	if err != nil {
		return nil, err
	}
	return &programStream{sub: sub}, nil
}

// AccountSubscribe opens a single-account subscription. The stream stamps
// the subscribed address into every payload, since account notifications
// carry no pubkey of their own.
func (c *Client) AccountSubscribe(account solana.PublicKey) (AccountStream, error) {
	sub, err := c.ws.AccountSubscribeWithOpts(account, rpc.CommitmentProcessed, solana.EncodingBase64)
	if err != nil {
		return nil, err
	}
	return &accountStream{sub: sub, pubkey: account.String()}, nil
}

// SlotsSubscribe opens the chain-wide slot lifecycle subscription.
func (c *Client) SlotsSubscribe() (SlotStream, error) {
	sub, err := c.ws.SlotsUpdatesSubscribe()
	if err != nil {
		return nil, err
	}
	return &slotStream{sub: sub}, nil
}

type programStream struct {
	sub *ws.ProgramSubscription
}

func (s *programStream) Recv(ctx context.Context) (*model.RawKeyedAccount, error) {
	res, err := s.sub.Recv(ctx)
	if err != nil {
		return nil, err
	}
	return &model.RawKeyedAccount{
		Pubkey:  res.Value.Pubkey.String(),
		Slot:    res.Context.Slot,
		Account: res.Value.Account,
	}, nil
}

func (s *programStream) Unsubscribe() {
	s.sub.Unsubscribe()
}

type accountStream struct {
	sub    *ws.AccountSubscription
	pubkey string
}

func (s *accountStream) Recv(ctx context.Context) (*model.RawKeyedAccount, error) {
	res, err := s.sub.Recv(ctx)
	if err != nil {
		return nil, err
	}
	account := res.Value.Account
	return &model.RawKeyedAccount{
		Pubkey:  s.pubkey,
		Slot:    res.Context.Slot,
		Account: &account,
	}, nil
}

func (s *accountStream) Unsubscribe() {
	s.sub.Unsubscribe()
}

type slotStream struct {
	sub *ws.SlotsUpdatesSubscription
}

func (s *slotStream) Recv(ctx context.Context) (*model.RawSlotUpdate, error) {
	res, err := s.sub.Recv(ctx)
	if err != nil {
		return nil, err
	}
	return &model.RawSlotUpdate{
		Type:   res.Type,
		Slot:   res.Slot,
		Parent: res.Parent,
	}, nil
}

func (s *slotStream) Unsubscribe() {
	s.sub.Unsubscribe()
}
