package discount

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fashionsphere-service/internal/domain/campaign"
	"fashionsphere-service/internal/domain/product"
	"fashionsphere-service/internal/domain/user"
	"fashionsphere-service/internal/domain/websocket"
	xerrors "fashionsphere-service/internal/pkg/errors"
	"fashionsphere-service/internal/repository/memory"
	campaignUsecase "fashionsphere-service/internal/service/campaign"
	productUsecase "fashionsphere-service/internal/service/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

// flakyCatalog fails writes for selected products and can fail listing.
type flakyCatalog struct {
	*memory.ProductRepository
	failIDs map[string]bool
	listErr error
	writes  int
	mu      sync.Mutex
}

func (f *flakyCatalog) ListAll(ctx context.Context) ([]product.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ProductRepository.ListAll(ctx)
}

func (f *flakyCatalog) ApplyDiscount(ctx context.Context, id string, percentage float64) (bool, error) {
	if f.failIDs[id] {
		return false, errors.New("write timeout")
	}
	changed, err := f.ProductRepository.ApplyDiscount(ctx, id, percentage)
	if changed {
		f.mu.Lock()
		f.writes++
		f.mu.Unlock()
	}
	return changed, err
}

// editingCatalog runs an admin edit right after the run has read the catalog.
type editingCatalog struct {
	*flakyCatalog
	afterList func()
}

func (c *editingCatalog) ListAll(ctx context.Context) ([]product.Product, error) {
	products, err := c.flakyCatalog.ListAll(ctx)
	if fn := c.afterList; fn != nil {
		c.afterList = nil
		fn()
	}
	return products, err
}

// racingPricer lets a reconciliation complete between an edit reading the active
// sale and the edit being written.
type racingPricer struct {
	productUsecase.SalePricer
	afterRead func()
}

func (p *racingPricer) ActivePercentage(ctx context.Context) (float64, error) {
	pct, err := p.SalePricer.ActivePercentage(ctx)
	if fn := p.afterRead; fn != nil {
		p.afterRead = nil
		fn()
	}
	return pct, err
}

type flakyCampaigns struct {
	*memory.CampaignRepository
	listErr error
}

func (f *flakyCampaigns) ListAll(ctx context.Context) ([]campaign.Campaign, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.CampaignRepository.ListAll(ctx)
}

// failingActivity cannot flip campaign activity.
type failingActivity struct {
	*flakyCampaigns
}

func (f *failingActivity) SetWinner(context.Context, string) (string, error) {
	return "", errors.New("serialization failure")
}

func (f *failingActivity) ClearActive(context.Context) (string, error) {
	return "", errors.New("serialization failure")
}

type sentMail struct {
	to      string
	subject string
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failTo[to] {
		return errors.New("mailbox unavailable")
	}
	n.sent = append(n.sent, sentMail{to: to, subject: subject})
	return nil
}

type recordingPublisher struct {
	events []websocket.EventType
}

func (p *recordingPublisher) Publish(t websocket.EventType, _ interface{}) {
	p.events = append(p.events, t)
}

type fixture struct {
	campaigns *flakyCampaigns
	catalog   *flakyCatalog
	users     *memory.UserRepository
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		campaigns: &flakyCampaigns{CampaignRepository: memory.NewCampaignRepository()},
		catalog:   &flakyCatalog{ProductRepository: memory.NewProductRepository(), failIDs: map[string]bool{}},
		users:     memory.NewUserRepository(),
		notifier:  &recordingNotifier{failTo: map[string]bool{}},
		publisher: &recordingPublisher{},
	}
}

func (f *fixture) reconciler(policy NotifyPolicy) *Reconciler {
	return NewReconciler(f.campaigns, f.catalog, f.users, f.notifier,
		Options{Concurrency: 4, NotifyPolicy: policy}, zap.NewNop()).WithPublisher(f.publisher)
}

func (f *fixture) addCampaign(t *testing.T, name string, pct float64, start, end time.Time) *campaign.Campaign {
	t.Helper()
	c := &campaign.Campaign{Name: name, DiscountPercentage: pct, StartDate: start, EndDate: end}
	require.NoError(t, f.campaigns.Create(context.Background(), c))
	return c
}

func (f *fixture) addProduct(t *testing.T, name string, price float64) *product.Product {
	t.Helper()
	p := &product.Product{Name: name, Price: price}
	require.NoError(t, f.catalog.Create(context.Background(), p))
	return p
}

func (f *fixture) addSubscriber(t *testing.T, name, addr string) {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), &user.User{Name: name, Email: addr, SaleNotification: true}))
}

func (f *fixture) active(t *testing.T) []string {
	t.Helper()
	all, err := f.campaigns.CampaignRepository.ListAll(context.Background())
	require.NoError(t, err)
	var ids []string
	for _, c := range all {
		if c.IsActive {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (f *fixture) productService(pricer productUsecase.SalePricer) *productUsecase.ProductService {
	return productUsecase.NewProductService(f.catalog.ProductRepository, pricer, nil, nil, zap.NewNop())
}

func floatPtr(v float64) *float64 { return &v }

func (f *fixture) prices(t *testing.T) map[string]float64 {
	t.Helper()
	all, err := f.catalog.ProductRepository.ListAll(context.Background())
	require.NoError(t, err)
	out := make(map[string]float64, len(all))
	for _, p := range all {
		out[p.ID] = p.DiscountPrice
	}
	return out
}

func TestReconcile_HighestValidCampaignWins(t *testing.T) {
	f := newFixture(t)
	a := f.addCampaign(t, "A", 20, day(time.January, 1), day(time.January, 31))
	b := f.addCampaign(t, "B", 35, day(time.January, 15), day(time.February, 15))
	p1 := f.addProduct(t, "Linen Shirt", 100)
	p2 := f.addProduct(t, "Denim", 59.99)

	rep, err := f.reconciler(NotifyOnChange).Reconcile(context.Background(), day(time.January, 20))
	require.NoError(t, err)

	assert.Equal(t, b.ID, rep.WinnerID)
	assert.True(t, rep.WinnerChanged)
	assert.Equal(t, []string{b.ID}, f.active(t))
	assert.NotContains(t, f.active(t), a.ID)

	prices := f.prices(t)
	assert.Equal(t, 65.00, prices[p1.ID])
	assert.Equal(t, 38.99, prices[p2.ID])
	assert.Equal(t, 2, rep.ProductsUpdated)
}

func TestReconcile_NoValidCampaignClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.addCampaign(t, "A", 20, day(time.January, 1), day(time.January, 31))
	f.addCampaign(t, "B", 35, day(time.January, 15), day(time.February, 15))
	p := f.addProduct(t, "Linen Shirt", 100)
	f.addSubscriber(t, "Ada", "ada@example.com")

	r := f.reconciler(NotifyOnChange)
	_, err := r.Reconcile(context.Background(), day(time.January, 20))
	require.NoError(t, err)
	require.Len(t, f.active(t), 1)
	f.notifier.sent = nil

	rep, err := r.Reconcile(context.Background(), day(time.March, 1))
	require.NoError(t, err)

	assert.True(t, rep.NoActiveCampaign)
	assert.True(t, rep.WinnerChanged)
	assert.Empty(t, f.active(t))
	assert.Equal(t, 0.0, f.prices(t)[p.ID])
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, websocket.EventTypeSaleCleared, f.publisher.events[len(f.publisher.events)-1])
}

func TestReconcile_DateBoundsAreInclusive(t *testing.T) {
	f := newFixture(t)
	start := day(time.May, 1)
	end := day(time.May, 10)
	c := f.addCampaign(t, "May", 10, start, end)
	f.addProduct(t, "Scarf", 20)

	r := f.reconciler(NotifyOnChange)
	for _, at := range []time.Time{start, end} {
		rep, err := r.Reconcile(context.Background(), at)
		require.NoError(t, err)
		assert.Equal(t, c.ID, rep.WinnerID)
	}

	rep, err := r.Reconcile(context.Background(), end.Add(time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, rep.NoActiveCampaign)
}

func TestReconcile_TieGoesToFirstListed(t *testing.T) {
	f := newFixture(t)
	first := f.addCampaign(t, "First", 30, day(time.June, 1), day(time.June, 30))
	f.addCampaign(t, "Second", 30, day(time.June, 1), day(time.June, 30))

	rep, err := f.reconciler(NotifyOnChange).Reconcile(context.Background(), day(time.June, 10))
	require.NoError(t, err)
	assert.Equal(t, first.ID, rep.WinnerID)
	assert.Equal(t, []string{first.ID}, f.active(t))
}

func TestReconcile_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addCampaign(t, "A", 20, day(time.January, 1), day(time.January, 31))
	f.addCampaign(t, "B", 35, day(time.January, 15), day(time.February, 15))
	for i := 0; i < 5; i++ {
		f.addProduct(t, "item", float64(10*(i+1))+0.49)
	}

	r := f.reconciler(NotifyOnChange)
	now := day(time.January, 20)
	_, err := r.Reconcile(context.Background(), now)
	require.NoError(t, err)
	firstActive, firstPrices := f.active(t), f.prices(t)
	writes := f.catalog.writes

	rep, err := r.Reconcile(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, firstActive, f.active(t))
	assert.Equal(t, firstPrices, f.prices(t))
	assert.False(t, rep.WinnerChanged)
	assert.Equal(t, 5, rep.ProductsUnchanged)
	assert.Equal(t, writes, f.catalog.writes, "unchanged prices are not rewritten")
}

func TestReconcile_ProductWriteFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	c := f.addCampaign(t, "Sale", 50, day(time.January, 1), day(time.January, 31))
	good1 := f.addProduct(t, "a", 10)
	bad := f.addProduct(t, "b", 20)
	good2 := f.addProduct(t, "c", 30)
	f.catalog.failIDs[bad.ID] = true

	rep, err := f.reconciler(NotifyOnChange).Reconcile(context.Background(), day(time.January, 5))
	require.NoError(t, err)

	assert.Equal(t, "partial", rep.Outcome)
	require.Len(t, rep.PriceFailures, 1)
	assert.Equal(t, bad.ID, rep.PriceFailures[0].ID)
	assert.Equal(t, 2, rep.ProductsUpdated)

	prices := f.prices(t)
	assert.Equal(t, 5.0, prices[good1.ID])
	assert.Equal(t, 15.0, prices[good2.ID])
	assert.Equal(t, []string{c.ID}, f.active(t))
}

func TestReconcile_ReadFailureAbortsWithoutWrites(t *testing.T) {
	tests := []struct {
		name       string
		breakStore func(f *fixture)
	}{
		{"campaigns", func(f *fixture) { f.campaigns.listErr = errors.New("connection reset") }},
		{"catalog", func(f *fixture) { f.catalog.listErr = errors.New("connection reset") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			old := f.addCampaign(t, "Old", 10, day(time.January, 1), day(time.January, 31))
			f.addCampaign(t, "New", 40, day(time.January, 1), day(time.January, 31))
			_, err := f.campaigns.SetWinner(context.Background(), old.ID)
			require.NoError(t, err)
			p := f.addProduct(t, "a", 100)
			f.addSubscriber(t, "Ada", "ada@example.com")
			tt.breakStore(f)

			rep, err := f.reconciler(NotifyEveryRun).Reconcile(context.Background(), day(time.January, 10))
			require.Error(t, err)
			assert.True(t, errors.Is(err, xerrors.ErrStoreRead))
			assert.Equal(t, "failed", rep.Outcome)

			assert.Equal(t, []string{old.ID}, f.active(t))
			assert.Equal(t, 0.0, f.prices(t)[p.ID])
			assert.Zero(t, f.catalog.writes)
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestReconcile_ActivityUpdateFailureWritesNoPrices(t *testing.T) {
	f := newFixture(t)
	f.addCampaign(t, "Sale", 40, day(time.January, 1), day(time.January, 31))
	p := f.addProduct(t, "a", 100)

	r := NewReconciler(&failingActivity{f.campaigns}, f.catalog, f.users, f.notifier, Options{}, zap.NewNop())
	rep, err := r.Reconcile(context.Background(), day(time.January, 10))
	require.Error(t, err)
	assert.Equal(t, "failed", rep.Outcome)
	assert.Zero(t, f.catalog.writes)
	assert.Equal(t, 0.0, f.prices(t)[p.ID])
}

func TestReconcile_PriceEditAfterSnapshotIsPricedFromNewPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCampaign(t, "Summer", 35, day(time.January, 15), day(time.February, 15))
	p := f.addProduct(t, "Linen Shirt", 100)
	products := f.productService(campaignUsecase.NewCampaignService(f.campaigns.CampaignRepository, zap.NewNop()))

	catalog := &editingCatalog{flakyCatalog: f.catalog, afterList: func() {
		_, err := products.UpdateProduct(ctx, p.ID, &product.UpdateProductRequest{Price: floatPtr(200)})
		require.NoError(t, err)
	}}
	r := NewReconciler(f.campaigns, catalog, f.users, f.notifier, Options{Concurrency: 2}, zap.NewNop())

	_, err := r.Reconcile(ctx, day(time.January, 20))
	require.NoError(t, err)

	stored, err := f.catalog.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, stored.Price)
	assert.Equal(t, 130.0, stored.DiscountPrice)
}

func TestReconcile_PriceEditThatReadTheOldSaleIsRepriced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCampaign(t, "Summer", 35, day(time.January, 15), day(time.February, 15))
	p := f.addProduct(t, "Linen Shirt", 100)

	r := f.reconciler(NotifyOnChange)
	pricer := &racingPricer{
		SalePricer: campaignUsecase.NewCampaignService(f.campaigns.CampaignRepository, zap.NewNop()),
		afterRead: func() {
			_, err := r.Reconcile(ctx, day(time.January, 20))
			require.NoError(t, err)
			assert.Equal(t, 65.0, f.prices(t)[p.ID])
		},
	}

	updated, err := f.productService(pricer).UpdateProduct(ctx, p.ID, &product.UpdateProductRequest{Price: floatPtr(200)})
	require.NoError(t, err)
	assert.Equal(t, 130.0, updated.DiscountPrice)

	stored, err := f.catalog.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, stored.DiscountPrice)
}

func TestReconcile_NotifyOnChangeOnlyOncePerWinner(t *testing.T) {
	f := newFixture(t)
	f.addCampaign(t, "Sale", 25, day(time.January, 1), day(time.January, 31))
	f.addSubscriber(t, "Ada", "ada@example.com")
	f.addSubscriber(t, "Bo", "bo@example.com")
	require.NoError(t, f.users.Create(context.Background(), &user.User{Name: "Cy", Email: "cy@example.com"}))

	r := f.reconciler(NotifyOnChange)
	rep, err := r.Reconcile(context.Background(), day(time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.NotificationsSent)

	rep, err = r.Reconcile(context.Background(), day(time.January, 3))
	require.NoError(t, err)
	assert.Zero(t, rep.NotificationsSent)
	assert.Len(t, f.notifier.sent, 2)
	for _, m := range f.notifier.sent {
		assert.Equal(t, "Sale Notification", m.subject)
	}
}

func TestReconcile_NotifyEveryRun(t *testing.T) {
	f := newFixture(t)
	f.addCampaign(t, "Sale", 25, day(time.January, 1), day(time.January, 31))
	f.addSubscriber(t, "Ada", "ada@example.com")

	r := f.reconciler(NotifyEveryRun)
	for i := 0; i < 3; i++ {
		_, err := r.Reconcile(context.Background(), day(time.January, 2+i))
		require.NoError(t, err)
	}
	assert.Len(t, f.notifier.sent, 3)
}

func TestReconcile_NotificationFailuresAreNonFatal(t *testing.T) {
	f := newFixture(t)
	c := f.addCampaign(t, "Sale", 25, day(time.January, 1), day(time.January, 31))
	p := f.addProduct(t, "a", 80)
	f.addSubscriber(t, "Ada", "ada@example.com")
	f.addSubscriber(t, "Bo", "bo@example.com")
	f.notifier.failTo["ada@example.com"] = true

	rep, err := f.reconciler(NotifyOnChange).Reconcile(context.Background(), day(time.January, 2))
	require.NoError(t, err)

	assert.Equal(t, "success", rep.Outcome)
	assert.Equal(t, 1, rep.NotificationsSent)
	assert.Len(t, rep.NotificationFailures, 1)
	assert.Equal(t, []string{c.ID}, f.active(t))
	assert.Equal(t, 60.0, f.prices(t)[p.ID])
}

func TestReconcile_PublishesOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	f.addCampaign(t, "Sale", 25, day(time.January, 1), day(time.January, 31))

	r := f.reconciler(NotifyOnChange)
	_, err := r.Reconcile(context.Background(), day(time.January, 2))
	require.NoError(t, err)
	_, err = r.Reconcile(context.Background(), day(time.January, 3))
	require.NoError(t, err)

	assert.Equal(t, []websocket.EventType{websocket.EventTypeSaleApplied}, f.publisher.events)
}

func TestReconcile_SingleWinnerAcrossOverlaps(t *testing.T) {
	f := newFixture(t)
	pcts := []float64{5, 50, 15, 50, 45, 100, 1}
	for i, pct := range pcts {
		f.addCampaign(t, "c", pct, day(time.March, 1+i), day(time.March, 20))
	}
	products := []*product.Product{f.addProduct(t, "a", 12.34), f.addProduct(t, "b", 99.99)}

	r := f.reconciler(NotifyOnChange)
	for d := 1; d <= 25; d++ {
		now := day(time.March, d)
		rep, err := r.Reconcile(context.Background(), now)
		require.NoError(t, err)

		all, err := f.campaigns.ListAll(context.Background())
		require.NoError(t, err)
		expected := campaign.SelectWinner(all, now)

		active := f.active(t)
		if expected == nil {
			assert.Empty(t, active, "day %d", d)
		} else {
			require.Len(t, active, 1, "day %d", d)
			assert.Equal(t, expected.ID, active[0])
			assert.Equal(t, expected.DiscountPercentage, rep.DiscountPercentage)
		}

		prices := f.prices(t)
		for _, p := range products {
			assert.Equal(t, product.DiscountPriceFor(p.Price, rep.DiscountPercentage), prices[p.ID], "day %d", d)
		}
	}
}

func TestParseNotifyPolicy(t *testing.T) {
	p, err := ParseNotifyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, NotifyOnChange, p)

	p, err = ParseNotifyPolicy("every_run")
	require.NoError(t, err)
	assert.Equal(t, NotifyEveryRun, p)

	_, err = ParseNotifyPolicy("hourly")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
