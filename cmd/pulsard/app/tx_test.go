package app

import (
	"bytes"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
	"github.com/iov-one/weave/x/sigs"
	"github.com/pulsar-money/pulsard/x/payment"
)

func TestTxRoundTrip(t *testing.T) {
	tx := &Tx{
		Sum: &Tx_PaymentClaimMsg{
			PaymentClaimMsg: &payment.ClaimMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Claims:   []*payment.TitleClaim{{Nonce: 4, Quantity: 500}},
			},
		},
	}

	raw, err := tx.Marshal()
	assert.Nil(t, err)

	decoded, err := TxDecoder(raw)
	assert.Nil(t, err)
	msg, err := decoded.GetMsg()
	assert.Nil(t, err)
	claim, ok := msg.(*payment.ClaimMsg)
	if !ok {
		t.Fatalf("unexpected message type: %T", msg)
	}
	assert.Equal(t, uint64(4), claim.Claims[0].Nonce)
	assert.Equal(t, uint64(500), claim.Claims[0].Quantity)
}

func TestGetSignBytesIgnoresSignatures(t *testing.T) {
	tx := &Tx{
		Sum: &Tx_PaymentCancelMsg{
			PaymentCancelMsg: &payment.CancelMsg{
				Metadata:      &weave.Metadata{Schema: 1},
				Cancellations: []*payment.TitleClaim{{Nonce: 1, Quantity: 1}},
			},
		},
	}
	unsigned, err := tx.GetSignBytes()
	assert.Nil(t, err)

	sig, err := sigs.SignTx(weavetest.NewKey(), tx, "testchain-123", 0)
	assert.Nil(t, err)
	tx.Signatures = append(tx.Signatures, sig)

	signed, err := tx.GetSignBytes()
	assert.Nil(t, err)
	if !bytes.Equal(unsigned, signed) {
		t.Fatal("sign bytes must not depend on attached signatures")
	}
	assert.Equal(t, 1, len(tx.Signatures))
}
