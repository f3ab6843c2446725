package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/internal/pricing"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

type memStore struct {
	mu    sync.Mutex
	carts map[string]Cart
	err   error
}

func newMemStore() *memStore { return &memStore{carts: map[string]Cart{}} }

func (m *memStore) Load(_ context.Context, sessionID string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[sessionID]
	if !ok {
		return nil, nil
	}
	c.Lines = append([]Line{}, c.Lines...)
	return &c, nil
}

func (m *memStore) Save(_ context.Context, c *Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.SessionID] = *c
	return nil
}

func (m *memStore) Discard(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type serviceFixture struct {
	svc     Service
	store   *memStore
	catalog dbtest.Catalog
	db      *gorm.DB
	cap     auth.Capability
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	client := dbtest.Open(t)
	catalog := dbtest.SeedCatalog(t, client.DB(), "ROJ", "100.00")
	repo := pricing.NewRepository(client.DB())
	resolver, err := pricing.NewResolver(20, repo)
	require.NoError(t, err)
	pricer, err := NewPricer(repo, resolver)
	require.NoError(t, err)
	store := newMemStore()
	svc, err := NewService(store, repo, pricer)
	require.NoError(t, err)

	return serviceFixture{
		svc:     svc,
		store:   store,
		catalog: catalog,
		db:      client.DB(),
		cap: auth.Capability{
			UserID:    uuid.New(),
			BranchID:  uuid.New(),
			Role:      enums.MemberRoleCashier,
			SessionID: "session-1",
		},
	}
}

func TestServiceTotalsCashDiscountThenLineDiscount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, f.cap, ReplaceInput{
		PriceListID: f.catalog.PriceList.ID,
		PaymentType: enums.PaymentTypeCash,
		Lines:       []Line{{VariantID: f.catalog.Variant.ID, Quantity: 2, DiscountPercent: dec("10")}},
	})
	require.NoError(t, err)

	totals, err := f.svc.Totals(ctx, f.cap)
	require.NoError(t, err)
	require.Len(t, totals.Lines, 1)
	require.Equal(t, "72.00", pricing.RoundForSale(totals.Lines[0].Unit).StringFixed(2))
	require.Equal(t, "160.00", totals.Subtotal.StringFixed(2))
	require.Equal(t, "144.00", totals.Total.StringFixed(2))
	require.Equal(t, "16.00", totals.DiscountTotal.StringFixed(2))

	card := enums.PaymentTypeCard
	_, err = f.svc.UpdateSettings(ctx, f.cap, SettingsInput{PaymentType: &card})
	require.NoError(t, err)
	totals, err = f.svc.Totals(ctx, f.cap)
	require.NoError(t, err)
	require.Equal(t, "180.00", totals.Total.StringFixed(2))
}

func TestServiceLineMutations(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	variant := f.catalog.Variant.ID
	key := LineKey{VariantID: variant}

	c, err := f.svc.AddLine(ctx, f.cap, Line{VariantID: variant, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, f.cap.BranchID, c.Lines[0].BranchID)

	qty := 4
	override := dec("50")
	c, err = f.svc.UpdateLine(ctx, f.cap, key, UpdateLineInput{
		Quantity:        &qty,
		CustomUnitPrice: types.NullableDecimal{Valid: true, Value: &override},
	})
	require.NoError(t, err)
	require.Equal(t, 4, c.Lines[0].Quantity)
	require.True(t, c.Lines[0].CustomUnitPrice.Equal(override))

	c, err = f.svc.UpdateLine(ctx, f.cap, key, UpdateLineInput{CustomUnitPrice: types.NullableDecimal{Valid: true}})
	require.NoError(t, err)
	require.Nil(t, c.Lines[0].CustomUnitPrice)

	c, err = f.svc.RemoveLine(ctx, f.cap, key)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	_, err = f.svc.RemoveLine(ctx, f.cap, key)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddLine(ctx, f.cap, Line{VariantID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceCrossBranchLineNeedsCapability(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	line := Line{VariantID: f.catalog.Variant.ID, BranchID: uuid.New(), Quantity: 1}

	_, err := f.svc.AddLine(ctx, f.cap, line)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePermissionDenied))

	granted := f.cap
	granted.Permissions.ManageOtherBranchesStock = true
	_, err = f.svc.AddLine(ctx, granted, line)
	require.NoError(t, err)
}

func TestServiceDiscardAndSessionRequired(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, f.cap, Line{VariantID: f.catalog.Variant.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, f.svc.Discard(ctx, f.cap))

	c, err := f.svc.Get(ctx, f.cap)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	anonymous := f.cap
	anonymous.SessionID = ""
	_, err = f.svc.Get(ctx, anonymous)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	f.store.err = errors.New("redis down")
	_, err = f.svc.Get(ctx, f.cap)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStoreUnavailable))
}

func TestTotalsRequiresPriceListAndPrice(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, f.cap, Line{VariantID: f.catalog.Variant.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Totals(ctx, f.cap)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	other := seedPriceList(t, f.db, "Lista 2", true)
	_, err = f.svc.UpdateSettings(ctx, f.cap, SettingsInput{PriceListID: &other.ID})
	require.NoError(t, err)
	_, err = f.svc.Totals(ctx, f.cap)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePriceNotFound))
}

func TestServiceRejectsInactiveOrUnknownPriceList(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	inactive := seedPriceList(t, f.db, "Lista vieja", false)

	_, err := f.svc.UpdateSettings(ctx, f.cap, SettingsInput{PriceListID: &inactive.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Replace(ctx, f.cap, ReplaceInput{
		PriceListID: inactive.ID,
		Lines:       []Line{{VariantID: f.catalog.Variant.ID, Quantity: 1}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	unknown := uuid.New()
	_, err = f.svc.UpdateSettings(ctx, f.cap, SettingsInput{PriceListID: &unknown})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	c, err := f.svc.Get(ctx, f.cap)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, c.PriceListID)
	require.True(t, c.IsEmpty())
}

func TestServiceLineRoutesAddressBranch(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	granted := f.cap
	granted.Permissions.ManageOtherBranchesStock = true
	variant := f.catalog.Variant.ID
	foreign := uuid.New()

	_, err := f.svc.AddLine(ctx, granted, Line{VariantID: variant, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, granted, Line{VariantID: variant, BranchID: foreign, Quantity: 2})
	require.NoError(t, err)

	qty := 6
	c, err := f.svc.UpdateLine(ctx, granted, LineKey{VariantID: variant}, UpdateLineInput{Quantity: &qty})
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)
	require.Equal(t, 6, c.Lines[0].Quantity)
	require.Equal(t, 2, c.Lines[1].Quantity)

	c, err = f.svc.RemoveLine(ctx, granted, LineKey{VariantID: variant, BranchID: foreign})
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Equal(t, granted.BranchID, c.Lines[0].BranchID)

	_, err = f.svc.RemoveLine(ctx, granted, LineKey{VariantID: variant, BranchID: foreign})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

// seedPriceList inserts a list and then sets active, since gorm skips a false bool on create.
func seedPriceList(t *testing.T, db *gorm.DB, name string, active bool) models.PriceList {
	t.Helper()
	list := models.PriceList{ID: uuid.New(), Name: name, Active: true}
	require.NoError(t, db.Create(&list).Error)
	if !active {
		require.NoError(t, db.Model(&list).Update("active", false).Error)
		list.Active = false
	}
	return list
}
