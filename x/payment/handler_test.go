package payment

import (
	"context"
	"math/big"
	"testing"
	"time"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/app"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
	"github.com/iov-one/weave/x/cash"
	"github.com/pulsar-money/pulsard/x/token"
)

// genesis is an arbitrary anchor for block times used in the tests.
const genesis weave.UnixTime = 1600000000

// mintingCash is the slice of the cash controller the tests need: the
// handler-facing interface plus minting to seed accounts.
type mintingCash interface {
	CashController
	CoinMint(weave.KVStore, weave.Address, coin.Coin) error
}

type testEnv struct {
	t       *testing.T
	db      weave.CacheableKVStore
	rt      *app.Router
	auth    *weavetest.CtxAuth
	cash    mintingCash
	tokens  *token.Controller
	owner   weave.Condition
	creator weave.Condition
	holder  weave.Condition
}

func newTestEnv(t *testing.T, fee uint32) *testEnv {
	t.Helper()

	db := store.MemStore()
	migration.MustInitPkg(db, "payment", "cash", "token")

	env := &testEnv{
		t:       t,
		db:      db,
		rt:      app.NewRouter(),
		auth:    &weavetest.CtxAuth{Key: "auth"},
		tokens:  token.NewController(),
		owner:   weavetest.NewCondition(),
		creator: weavetest.NewCondition(),
		holder:  weavetest.NewCondition(),
	}
	env.cash = cash.NewController(cash.NewBucket())
	RegisterRoutes(env.rt, env.auth, env.cash, env.tokens)

	conf := Configuration{
		Metadata:      &weave.Metadata{Schema: 1},
		Owner:         env.owner.Address(),
		PaymentTicker: "PAY",
		CancelTicker:  "CNL",
		Fee:           fee,
	}
	assert.Nil(t, gconf.Save(db, "payment", &conf))

	return env
}

func (env *testEnv) ctx(at weave.UnixTime, signers ...weave.Condition) weave.Context {
	ctx := weave.WithHeight(context.Background(), 100)
	ctx = weave.WithChainID(ctx, "testchain-123")
	ctx = weave.WithBlockTime(ctx, time.Unix(int64(at), 0))
	return env.auth.SetConditions(ctx, signers...)
}

func (env *testEnv) mint(dest weave.Address, c coin.Coin) {
	env.t.Helper()
	assert.Nil(env.t, env.cash.CoinMint(env.db, dest, c))
}

func (env *testEnv) balance(addr weave.Address) coin.Coins {
	env.t.Helper()
	coins, err := env.cash.Balance(env.db, addr)
	if err != nil && !errors.ErrEmpty.Is(err) && !errors.ErrNotFound.Is(err) {
		env.t.Fatalf("cannot get balance: %+v", err)
	}
	return coins
}

func (env *testEnv) assertBalance(addr weave.Address, want coin.Coin) {
	env.t.Helper()
	coins := env.balance(addr)
	if want.IsZero() {
		if len(coins) != 0 {
			env.t.Fatalf("want an empty balance, got %v", coins)
		}
		return
	}
	if !coins.Equals(coin.Coins{&want}) {
		env.t.Fatalf("want %v, got %v", want, coins)
	}
}

func (env *testEnv) deliver(ctx weave.Context, msg weave.Msg) error {
	env.t.Helper()
	cache := env.db.CacheWrap()
	_, err := env.rt.Check(ctx, cache, &weavetest.Tx{Msg: msg})
	cache.Discard()
	if err != nil {
		return err
	}
	_, err = env.rt.Deliver(ctx, env.db, &weavetest.Tx{Msg: msg})
	return err
}

// title reads the payload of an entitlement title instance.
func (env *testEnv) title(nonce uint64) *Payment {
	env.t.Helper()
	raw, err := env.tokens.Attributes(env.db, "PAY", nonce)
	assert.Nil(env.t, err)
	var p Payment
	assert.Nil(env.t, p.Unmarshal(raw))
	return &p
}

func createMsg(receivers []weave.Address) *CreateMsg {
	return &CreateMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		PaymentType: Stream,
		Name:        "salary stream",
		Receivers:   receivers,
		Releases: []*Release{
			{
				// 1 IOV over 10 intervals of 10 seconds each.
				Amount:    amountBytes(big.NewInt(1000000000)),
				StartDate: genesis + 10,
				EndDate:   genesis + 110,
				Interval:  10,
			},
		},
		Amount: coin.NewCoinp(1, 0, "IOV"),
	}
}

func TestCreateAndClaim(t *testing.T) {
	env := newTestEnv(t, 0)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	msg := createMsg([]weave.Address{env.holder.Address()})
	assert.Nil(t, env.deliver(env.ctx(genesis, env.creator), msg))

	// The whole principal is locked, no tax with a zero fee.
	env.assertBalance(env.creator.Address(), coin.NewCoin(0, 0, "IOV"))
	env.assertBalance(PoolAccount(), coin.NewCoin(1, 0, "IOV"))
	env.assertBalance(env.owner.Address(), coin.NewCoin(0, 0, "IOV"))

	// The receiver holds a full title paying 0.1 IOV per interval.
	q, err := env.tokens.Quantity(env.db, env.holder.Address(), "PAY", 1)
	assert.Nil(t, err)
	assert.Equal(t, uint64(oneTitleUnit), q)
	p := env.title(1)
	assert.Equal(t, uint64(1), p.PaymentId)
	assert.Equal(t, int64(100000000), bigAmount(p.Releases[0].Amount).Int64())

	// Claiming 2.5 intervals in pays out two whole intervals.
	claim := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 1, Quantity: oneTitleUnit}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+35, env.holder), claim))
	env.assertBalance(env.holder.Address(), coin.NewCoin(0, 200000000, "IOV"))

	// The old title is burned and a new one reissued with the start
	// advanced to the last settled boundary.
	if _, err := env.tokens.Attributes(env.db, "PAY", 1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want the title burned, got %+v", err)
	}
	reissued := env.title(2)
	assert.Equal(t, genesis+30, reissued.Releases[0].StartDate)
	assert.Equal(t, genesis+110, reissued.Releases[0].EndDate)

	// Claiming again at the same time pays nothing more.
	claim2 := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 2, Quantity: oneTitleUnit}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+35, env.holder), claim2))
	env.assertBalance(env.holder.Address(), coin.NewCoin(0, 200000000, "IOV"))

	// After the end the full remainder is paid and nothing is reissued.
	claim3 := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 3, Quantity: oneTitleUnit}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+500, env.holder), claim3))
	env.assertBalance(env.holder.Address(), coin.NewCoin(1, 0, "IOV"))
	env.assertBalance(PoolAccount(), coin.NewCoin(0, 0, "IOV"))
	if _, err := env.tokens.Attributes(env.db, "PAY", 4); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want no reissued title, got %+v", err)
	}
}

func TestCreateTaxesThePrincipal(t *testing.T) {
	// A fee of 50 per mille taxes a 1 IOV payment with 0.05 IOV.
	env := newTestEnv(t, 50)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	msg := createMsg([]weave.Address{env.holder.Address()})
	assert.Nil(t, env.deliver(env.ctx(genesis, env.creator), msg))

	env.assertBalance(env.owner.Address(), coin.NewCoin(0, 50000000, "IOV"))
	env.assertBalance(PoolAccount(), coin.NewCoin(0, 950000000, "IOV"))

	p := env.title(1)
	assert.Equal(t, int64(95000000), bigAmount(p.Releases[0].Amount).Int64())
	assert.Equal(t, int64(950000000), bigAmount(p.Amount).Int64())
}

func TestCreateSplitsBetweenReceivers(t *testing.T) {
	env := newTestEnv(t, 0)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	receivers := []weave.Address{
		weavetest.NewCondition().Address(),
		weavetest.NewCondition().Address(),
	}
	msg := createMsg(receivers)
	assert.Nil(t, env.deliver(env.ctx(genesis, env.creator), msg))

	// Every receiver holds a full title over half the rate.
	for i, receiver := range receivers {
		nonce := uint64(i + 1)
		q, err := env.tokens.Quantity(env.db, receiver, "PAY", nonce)
		assert.Nil(t, err)
		assert.Equal(t, uint64(oneTitleUnit), q)
		p := env.title(nonce)
		assert.Equal(t, int64(50000000), bigAmount(p.Releases[0].Amount).Int64())
		assert.Equal(t, uint64(i+1), p.PaymentId)
	}
}

func TestCreateRejections(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*CreateMsg)
		at      weave.UnixTime
		wantErr *errors.Error
	}{
		"release starting in the past": {
			mutate:  func(*CreateMsg) {},
			at:      genesis + 20,
			wantErr: ErrInvalidRelease,
		},
		"release amounts not summing up to the principal": {
			mutate: func(msg *CreateMsg) {
				msg.Releases[0].Amount = amountBytes(big.NewInt(999999999))
			},
			at:      genesis,
			wantErr: ErrAmountMismatch,
		},
		"per interval rate below the minimum": {
			mutate: func(msg *CreateMsg) {
				msg.Releases[0].Amount = amountBytes(big.NewInt(1000000))
				msg.Amount = coin.NewCoinp(0, 1000000, "IOV")
			},
			at:      genesis,
			wantErr: ErrRateBelowMinimum,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			env := newTestEnv(t, 0)
			env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

			msg := createMsg([]weave.Address{env.holder.Address()})
			tc.mutate(msg)
			if err := env.deliver(env.ctx(tc.at, env.creator), msg); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
			// A rejected creation must not move any funds.
			env.assertBalance(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))
			env.assertBalance(PoolAccount(), coin.NewCoin(0, 0, "IOV"))
		})
	}
}

func TestCreateRequiresSigner(t *testing.T) {
	env := newTestEnv(t, 0)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	msg := createMsg([]weave.Address{env.holder.Address()})
	if err := env.deliver(env.ctx(genesis), msg); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want an unauthorized error, got %+v", err)
	}
	env.assertBalance(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t, 0)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	msg := createMsg([]weave.Address{env.holder.Address()})
	msg.Cancelable = true
	assert.Nil(t, env.deliver(env.ctx(genesis, env.creator), msg))

	// The creator holds the cancellation title, issued after the
	// entitlement title.
	q, err := env.tokens.Quantity(env.db, env.creator.Address(), "CNL", 2)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), q)

	// Cancelling 3.5 intervals in aligns the cut to the last settled
	// boundary and claws back the eight remaining intervals.
	cancel := &CancelMsg{
		Metadata:      &weave.Metadata{Schema: 1},
		Cancellations: []*TitleClaim{{Nonce: 2, Quantity: 1}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+35, env.creator), cancel))
	env.assertBalance(env.creator.Address(), coin.NewCoin(0, 800000000, "IOV"))

	// The cancellation title is burned, a second cancel has nothing to
	// present.
	if err := env.deliver(env.ctx(genesis+40, env.creator), cancel); !ErrInvalidTitle.Is(err) {
		t.Fatalf("want an invalid title error, got %+v", err)
	}

	// The holder can still claim what vested before the cut, and the
	// title is not reissued afterwards.
	claim := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 1, Quantity: oneTitleUnit}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+500, env.holder), claim))
	env.assertBalance(env.holder.Address(), coin.NewCoin(0, 200000000, "IOV"))
	env.assertBalance(PoolAccount(), coin.NewCoin(0, 0, "IOV"))
}

func TestCancelBeforeStartRefundsEverything(t *testing.T) {
	env := newTestEnv(t, 0)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	msg := createMsg([]weave.Address{env.holder.Address()})
	msg.Cancelable = true
	assert.Nil(t, env.deliver(env.ctx(genesis, env.creator), msg))

	cancel := &CancelMsg{
		Metadata:      &weave.Metadata{Schema: 1},
		Cancellations: []*TitleClaim{{Nonce: 2, Quantity: 1}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+5, env.creator), cancel))
	env.assertBalance(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	// The entitlement title pays nothing anymore.
	claim := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 1, Quantity: oneTitleUnit}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+500, env.holder), claim))
	env.assertBalance(env.holder.Address(), coin.NewCoin(0, 0, "IOV"))
}

func TestClaimWithPartialQuantity(t *testing.T) {
	env := newTestEnv(t, 0)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	msg := createMsg([]weave.Address{env.holder.Address()})
	assert.Nil(t, env.deliver(env.ctx(genesis, env.creator), msg))

	// The holder passes half the title on, both halves settle
	// independently.
	other := weavetest.NewCondition()
	transfer := &token.TransferMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Dest:     other.Address(),
		Ticker:   "PAY",
		Nonce:    1,
		Quantity: 500,
	}
	tokenRt := app.NewRouter()
	token.RegisterRoutes(tokenRt, env.auth, env.tokens)
	_, err := tokenRt.Deliver(env.ctx(genesis, env.holder), env.db, &weavetest.Tx{Msg: transfer})
	assert.Nil(t, err)

	claim := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 1, Quantity: 500}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+35, env.holder), claim))
	env.assertBalance(env.holder.Address(), coin.NewCoin(0, 100000000, "IOV"))

	// Presenting more than held is rejected and rolls the whole
	// transaction back.
	tooMuch := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 1, Quantity: 501}},
	}
	if err := env.deliver(env.ctx(genesis+35, other), tooMuch); !errors.ErrAmount.Is(err) {
		t.Fatalf("want an amount error, got %+v", err)
	}
	env.assertBalance(other.Address(), coin.NewCoin(0, 0, "IOV"))
}

func TestClaimUnknownTitle(t *testing.T) {
	env := newTestEnv(t, 0)

	claim := &ClaimMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Claims:   []*TitleClaim{{Nonce: 42, Quantity: oneTitleUnit}},
	}
	if err := env.deliver(env.ctx(genesis, env.holder), claim); !ErrInvalidTitle.Is(err) {
		t.Fatalf("want an invalid title error, got %+v", err)
	}
}

func TestCancellationLedgerQuery(t *testing.T) {
	env := newTestEnv(t, 0)
	env.mint(env.creator.Address(), coin.NewCoin(1, 0, "IOV"))

	msg := createMsg([]weave.Address{env.holder.Address()})
	msg.Cancelable = true
	assert.Nil(t, env.deliver(env.ctx(genesis, env.creator), msg))

	bucket := NewCancelRecordBucket()

	// Not cancelled yet.
	cancelled, err := cancelDate(env.db, bucket, 1)
	assert.Nil(t, err)
	assert.Equal(t, weave.UnixTime(0), cancelled)

	cancel := &CancelMsg{
		Metadata:      &weave.Metadata{Schema: 1},
		Cancellations: []*TitleClaim{{Nonce: 2, Quantity: 1}},
	}
	assert.Nil(t, env.deliver(env.ctx(genesis+35, env.creator), cancel))

	cancelled, err = cancelDate(env.db, bucket, 1)
	assert.Nil(t, err)
	assert.Equal(t, genesis+35, cancelled)
}
