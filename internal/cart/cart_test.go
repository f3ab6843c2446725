package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestAddLineMergesSameVariantAndBranch(t *testing.T) {
	branch := uuid.New()
	c := New("s1", branch)
	variant := uuid.New()

	require.NoError(t, c.AddLine(Line{VariantID: variant, Quantity: 2}))
	require.NoError(t, c.AddLine(Line{VariantID: variant, BranchID: branch, Quantity: 3}))
	require.Len(t, c.Lines, 1)
	require.Equal(t, 5, c.Lines[0].Quantity)

	require.NoError(t, c.AddLine(Line{VariantID: variant, BranchID: uuid.New(), Quantity: 1}))
	require.Len(t, c.Lines, 2)
}

func TestAddLineValidates(t *testing.T) {
	c := New("s1", uuid.New())
	negative := dec("-5")

	cases := map[string]Line{
		"zero qty":        {VariantID: uuid.New(), Quantity: 0},
		"missing variant": {Quantity: 1},
		"negative price":  {VariantID: uuid.New(), Quantity: 1, CustomUnitPrice: &negative},
		"discount > 100":  {VariantID: uuid.New(), Quantity: 1, DiscountPercent: dec("101")},
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			require.True(t, pkgerrors.IsCode(c.AddLine(line), pkgerrors.CodeValidation))
		})
	}
	require.True(t, c.IsEmpty())
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	c := New("s1", uuid.New())
	variant := uuid.New()
	key := LineKey{VariantID: variant}
	require.NoError(t, c.AddLine(Line{VariantID: variant, Quantity: 2}))

	require.NoError(t, c.UpdateQuantity(key, 7))
	require.Equal(t, 7, c.Lines[0].Quantity)

	require.NoError(t, c.UpdateQuantity(key, 0))
	require.True(t, c.IsEmpty())

	require.True(t, pkgerrors.IsCode(c.UpdateQuantity(key, 1), pkgerrors.CodeNotFound))
}

func TestUpdateCustomPriceAndDiscount(t *testing.T) {
	c := New("s1", uuid.New())
	variant := uuid.New()
	key := LineKey{VariantID: variant}
	require.NoError(t, c.AddLine(Line{VariantID: variant, Quantity: 1}))

	price := dec("80")
	require.NoError(t, c.UpdateCustomPrice(key, &price))
	require.True(t, c.Lines[0].CustomUnitPrice.Equal(price))

	require.NoError(t, c.UpdateCustomPrice(key, nil))
	require.Nil(t, c.Lines[0].CustomUnitPrice)

	negative := dec("-0.01")
	require.True(t, pkgerrors.IsCode(c.UpdateCustomPrice(key, &negative), pkgerrors.CodeValidation))

	require.NoError(t, c.UpdateDiscount(key, dec("15")))
	require.True(t, c.Lines[0].DiscountPercent.Equal(dec("15")))
	require.True(t, pkgerrors.IsCode(c.UpdateDiscount(key, dec("-1")), pkgerrors.CodeValidation))
}

func TestRemoveLineAndPaymentType(t *testing.T) {
	c := New("s1", uuid.New())
	variant := uuid.New()
	key := LineKey{VariantID: variant}
	require.NoError(t, c.AddLine(Line{VariantID: variant, Quantity: 1}))
	require.True(t, c.RemoveLine(key))
	require.False(t, c.RemoveLine(key))

	require.Equal(t, enums.PaymentTypeCard, c.PaymentType)
	require.NoError(t, c.SetPaymentType(enums.PaymentTypeCash))
	require.Error(t, c.SetPaymentType(enums.PaymentType("barter")))
}

func TestLineMutationsAddressVariantAndBranch(t *testing.T) {
	home := uuid.New()
	other := uuid.New()
	c := New("s1", home)
	variant := uuid.New()
	require.NoError(t, c.AddLine(Line{VariantID: variant, Quantity: 2}))
	require.NoError(t, c.AddLine(Line{VariantID: variant, BranchID: other, Quantity: 5}))

	require.NoError(t, c.UpdateQuantity(LineKey{VariantID: variant}, 3))
	require.Equal(t, 3, c.Lines[0].Quantity)
	require.Equal(t, 5, c.Lines[1].Quantity)

	require.NoError(t, c.UpdateDiscount(LineKey{VariantID: variant, BranchID: other}, dec("10")))
	require.True(t, c.Lines[0].DiscountPercent.IsZero())
	require.True(t, c.Lines[1].DiscountPercent.Equal(dec("10")))

	price := dec("40")
	require.NoError(t, c.UpdateCustomPrice(LineKey{VariantID: variant, BranchID: home}, &price))
	require.True(t, c.Lines[0].CustomUnitPrice.Equal(price))
	require.Nil(t, c.Lines[1].CustomUnitPrice)

	require.True(t, c.RemoveLine(LineKey{VariantID: variant, BranchID: other}))
	require.Len(t, c.Lines, 1)
	require.Equal(t, home, c.Lines[0].BranchID)
	require.Equal(t, 3, c.Lines[0].Quantity)

	err := c.UpdateQuantity(LineKey{VariantID: variant, BranchID: other}, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.NoError(t, c.UpdateQuantity(LineKey{VariantID: variant}, 0))
	require.True(t, c.IsEmpty())
}
