package payment

import (
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func TestConfigurationValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*Configuration)
		wantErr *errors.Error
	}{
		"valid": {
			mutate:  func(*Configuration) {},
			wantErr: nil,
		},
		"missing owner": {
			mutate: func(c *Configuration) {
				c.Owner = nil
			},
			wantErr: errors.ErrEmpty,
		},
		"invalid payment ticker": {
			mutate: func(c *Configuration) {
				c.PaymentTicker = "po"
			},
			wantErr: errors.ErrInput,
		},
		"invalid cancel ticker": {
			mutate: func(c *Configuration) {
				c.CancelTicker = "this-is-not-a-ticker"
			},
			wantErr: errors.ErrInput,
		},
		"same ticker for both titles": {
			mutate: func(c *Configuration) {
				c.CancelTicker = c.PaymentTicker
			},
			wantErr: errors.ErrInput,
		},
		"fee of a whole per mille": {
			mutate: func(c *Configuration) {
				c.Fee = 1000
			},
			wantErr: errors.ErrAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			conf := Configuration{
				Metadata:      &weave.Metadata{Schema: 1},
				Owner:         weavetest.NewCondition().Address(),
				PaymentTicker: "PAY",
				CancelTicker:  "CNL",
				Fee:           25,
			}
			tc.mutate(&conf)
			if err := conf.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}
