package types

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/opentrade-labs/mobridge/pkg/errors"
)

type OrderRequestTestSuite struct {
	suite.Suite
}

func TestOrderRequestTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRequestTestSuite))
}

func valid() OrderRequest {
	return OrderRequest{
		ClientID:       "C001",
		Name:           "Alice",
		Exchange:       "NSE",
		SecurityID:     2885,
		Side:           SideBuy,
		OrderType:      "MARKET",
		ProductType:    "CNC",
		OrderDuration:  "DAY",
		Price:          0,
		TriggerPrice:   0,
		QuantityInLots: 1,
		DisclosedQty:   0,
		AMOOrder:       "N",
		Tag:            "T1",
	}
}

func (suite *OrderRequestTestSuite) TestValidRequest() {
	req := valid()
	suite.NoError(req.Validate())
}

func (suite *OrderRequestTestSuite) TestInvalidRequests() {
	tests := []struct {
		name   string
		mutate func(*OrderRequest)
	}{
		{"missing client id", func(r *OrderRequest) { r.ClientID = "" }},
		{"missing security id", func(r *OrderRequest) { r.SecurityID = 0 }},
		{"bad side", func(r *OrderRequest) { r.Side = "HOLD" }},
		{"zero quantity", func(r *OrderRequest) { r.QuantityInLots = 0 }},
		{"negative price", func(r *OrderRequest) { r.Price = -1 }},
		{"missing product type", func(r *OrderRequest) { r.ProductType = "" }},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			req := valid()
			tc.mutate(&req)

			err := req.Validate()
			suite.Require().Error(err)
			suite.Equal(errors.ErrCodeInvalidOrderRequest, errors.GetCode(err))
		})
	}
}

type AccountRecordTestSuite struct {
	suite.Suite
}

func TestAccountRecordTestSuite(t *testing.T) {
	suite.Run(t, new(AccountRecordTestSuite))
}

func (suite *AccountRecordTestSuite) TestDisplayNameFallsBackToUserID() {
	record := AccountRecord{UserID: "C001", Name: "", Credentials: Credentials{}, Capital: 0}
	suite.Equal("C001", record.DisplayName())

	record.Name = "Alice"
	suite.Equal("Alice", record.DisplayName())
}

func (suite *AccountRecordTestSuite) TestHasLoginCredentials() {
	record := AccountRecord{
		UserID: "C001",
		Name:   "Alice",
		Credentials: Credentials{
			APIKey:   "k",
			Password: "p",
			PAN:      "ABCDE1234F",
			TOTPKey:  "",
		},
		Capital: 0,
	}
	suite.True(record.HasLoginCredentials())

	missingPAN := record
	missingPAN.Credentials.PAN = ""
	suite.False(missingPAN.HasLoginCredentials())

	missingKey := record
	missingKey.Credentials.APIKey = ""
	suite.False(missingKey.HasLoginCredentials())
}
