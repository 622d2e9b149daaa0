package service

import (
	"context"
	"sync"
	"testing"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/internal/db"
	"github.com/ikkim/gadgetshop-backend/pkg/payment/intent"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	customerRepo repository.CustomerRepository
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cartRepo     repository.CartRepository
	orderRepo    repository.OrderRepository
	notifier     *recordingNotifier
	carts        CartService
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	env := &testEnv{
		db:           testDB,
		userRepo:     repository.NewUserRepository(testDB),
		customerRepo: repository.NewCustomerRepository(testDB),
		categoryRepo: repository.NewCategoryRepository(testDB),
		productRepo:  repository.NewProductRepository(testDB),
		cartRepo:     repository.NewCartRepository(testDB),
		orderRepo:    repository.NewOrderRepository(testDB),
		notifier:     &recordingNotifier{},
	}
	env.carts = NewCartService(testDB, env.cartRepo, env.productRepo, env.notifier)
	return env
}

func (e *testEnv) customer(t *testing.T, username string, role model.UserRole) *model.Customer {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "hash", Role: role, FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, e.userRepo.Create(user))
	require.NoError(t, e.customerRepo.Create(&model.Customer{UserID: user.ID}))
	customer, err := e.customerRepo.FindByUserID(user.ID)
	require.NoError(t, err)
	return customer
}

func (e *testEnv) category(t *testing.T, slug string) *model.Category {
	t.Helper()
	category := &model.Category{Name: slug, Slug: slug}
	require.NoError(t, e.categoryRepo.Create(category))
	return category
}

func (e *testEnv) notebook(t *testing.T, category *model.Category, slug, price string) *model.Product {
	t.Helper()
	product := &model.Product{
		Kind:       model.ProductKindNotebook,
		CategoryID: category.ID,
		Name:       "Notebook " + slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
		Notebook:   &model.NotebookSpec{Diagonal: "15.6", Display: "IPS", Processor: "3.2 GHz", RAM: "16 GB", BatteryLife: "10h"},
	}
	require.NoError(t, e.productRepo.Create(product))
	return product
}

func (e *testEnv) smartphone(t *testing.T, category *model.Category, slug, price string) *model.Product {
	t.Helper()
	product := &model.Product{
		Kind:       model.ProductKindSmartphone,
		CategoryID: category.ID,
		Name:       "Phone " + slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
		Smartphone: &model.SmartphoneSpec{Diagonal: "6.1", Display: "OLED", Resolution: "2532x1170", RAM: "6 GB", SD: true, SDMaxVolume: "16"},
	}
	require.NoError(t, e.productRepo.Create(product))
	return product
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[uint][]interface{}
}

func (n *recordingNotifier) PublishToCustomer(customerID uint, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.messages == nil {
		n.messages = map[uint][]interface{}{}
	}
	n.messages[customerID] = append(n.messages[customerID], message)
}

func (n *recordingNotifier) count(customerID uint) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages[customerID])
}

type recordingPublisher struct {
	orders []uint
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, order *model.Order) error {
	p.orders = append(p.orders, order.ID)
	return p.err
}

type stubPayments struct {
	requests []intent.CreateRequest
	err      error
}

func (p *stubPayments) CreatePaymentIntent(_ context.Context, req intent.CreateRequest) (*intent.Intent, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &intent.Intent{ID: "pi_1", Amount: req.Amount, ClientSecret: "pi_1_secret"}, nil
}

type memoryImages struct {
	objects map[string][]byte
	deleted []string
}

func (m *memoryImages) PutObject(_ context.Context, key, _ string, data []byte) (string, error) {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryImages) DeleteObject(_ context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}
