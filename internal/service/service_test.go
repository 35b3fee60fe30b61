package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vansh16aug/goala-foods-backend/internal/catalog"
	"github.com/vansh16aug/goala-foods-backend/internal/model"
	"github.com/vansh16aug/goala-foods-backend/internal/repository"
)

type stubRepo struct {
	userByUsername *model.User
	userByEmail    *model.User

	createUserID  int64
	createUserErr error
	createdHash   []byte

	cart    *model.Order
	cartErr error

	updateCalls  int
	updatedItems []model.OrderItem
	updatedTotal float64
	updateErr    error

	createdOrder *model.Order
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, username, email string, passwordHash []byte) (int64, error) {
	s.createdHash = passwordHash
	return s.createUserID, s.createUserErr
}

func (s *stubRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if s.userByUsername != nil {
		return s.userByUsername, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.userByEmail != nil {
		return s.userByEmail, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubRepo) GetCartByUser(ctx context.Context, userID int64) (*model.Order, error) {
	if s.cartErr != nil {
		return nil, s.cartErr
	}
	if s.cart != nil {
		return s.cart, nil
	}
	return nil, repository.ErrCartNotFound
}

func (s *stubRepo) CreateCart(ctx context.Context, userID int64) (*model.Order, error) {
	s.cart = &model.Order{
		ID:     1,
		UserID: userID,
		Items:  []model.OrderItem{},
		Status: model.OrderStatusCart,
	}
	return s.cart, nil
}

func (s *stubRepo) UpdateOrderItems(ctx context.Context, orderID int64, items []model.OrderItem, totalAmount float64) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updateCalls++
	s.updatedItems = items
	s.updatedTotal = totalAmount
	if s.cart != nil && s.cart.ID == orderID {
		s.cart.Items = items
		s.cart.TotalAmount = totalAmount
	}
	return nil
}

func (s *stubRepo) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	order.ID = 99
	s.createdOrder = order
	return order, nil
}

type stubCatalog struct {
	products map[string]*model.Product
}

func (s *stubCatalog) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, catalog.ErrProductNotFound
}

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	repo := &stubRepo{
		userByUsername: &model.User{ID: 1, Username: "user"},
	}
	svc := NewService(repo, nil)

	err := svc.RegisterUser(context.Background(), "user", "new@example.com", "pass")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	repo := &stubRepo{
		userByEmail: &model.User{ID: 1, Username: "other", Email: "user@example.com"},
	}
	svc := NewService(repo, nil)

	err := svc.RegisterUser(context.Background(), "newuser", "user@example.com", "pass")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterUser_HashesPassword(t *testing.T) {
	repo := &stubRepo{createUserID: 42}
	svc := NewService(repo, nil)

	err := svc.RegisterUser(context.Background(), "user", "user@example.com", "secret")
	if err != nil {
		t.Fatalf("RegisterUser error: %v", err)
	}

	if string(repo.createdHash) == "secret" {
		t.Fatalf("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword(repo.createdHash, []byte("secret")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthenticateUser_UniformError(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	// Неизвестный email
	svc := NewService(&stubRepo{}, nil)
	_, errUnknown := svc.AuthenticateUser(context.Background(), "missing@example.com", "correct")

	// Известный email, неверный пароль
	svc = NewService(&stubRepo{
		userByEmail: &model.User{ID: 1, Email: "user@example.com", PasswordHash: hash},
	}, nil)
	_, errWrongPass := svc.AuthenticateUser(context.Background(), "user@example.com", "wrong")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPass, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPass)
	}
	if errUnknown.Error() != errWrongPass.Error() {
		t.Fatalf("error messages differ: %q vs %q", errUnknown, errWrongPass)
	}
}

func TestAuthenticateUser_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	svc := NewService(&stubRepo{
		userByEmail: &model.User{ID: 7, Username: "user", Email: "user@example.com", PasswordHash: hash},
	}, nil)

	u, err := svc.AuthenticateUser(context.Background(), "user@example.com", "correct")
	if err != nil {
		t.Fatalf("AuthenticateUser error: %v", err)
	}
	if u.ID != 7 || u.Username != "user" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetCart_CreatesWhenMissing(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	cart, err := svc.GetCart(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if cart.UserID != 5 || cart.Status != model.OrderStatusCart {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if len(cart.Items) != 0 || cart.TotalAmount != 0 {
		t.Fatalf("new cart must be empty, got %+v", cart)
	}
}

func TestGetCart_PopulatesProducts(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Order{
			ID:     1,
			UserID: 5,
			Status: model.OrderStatusCart,
			Items: []model.OrderItem{
				{ProductID: "p1", Name: "Tea", Quantity: 2, Price: 5},
				{ProductID: "gone", Name: "Old", Quantity: 1, Price: 3},
			},
		},
	}
	cat := &stubCatalog{
		products: map[string]*model.Product{
			"p1": {ID: "p1", Name: "Tea", Price: 5},
		},
	}
	svc := NewService(repo, cat)

	cart, err := svc.GetCart(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if cart.Items[0].Product == nil || cart.Items[0].Product.ID != "p1" {
		t.Fatalf("first item not populated: %+v", cart.Items[0])
	}
	// Товар, исчезнувший из каталога, остаётся без карточки
	if cart.Items[1].Product != nil {
		t.Fatalf("missing product must stay unpopulated: %+v", cart.Items[1])
	}
}

func TestAddCartItem_MergesExisting(t *testing.T) {
	repo := &stubRepo{}
	cat := &stubCatalog{
		products: map[string]*model.Product{
			"p1": {ID: "p1", Name: "Tea", Price: 5},
		},
	}
	svc := NewService(repo, cat)

	cart, err := svc.AddCartItem(context.Background(), 5, "p1", 2)
	if err != nil {
		t.Fatalf("first add error: %v", err)
	}
	if cart.TotalAmount != 10 {
		t.Fatalf("total after first add = %v, want 10", cart.TotalAmount)
	}

	cart, err = svc.AddCartItem(context.Background(), 5, "p1", 3)
	if err != nil {
		t.Fatalf("second add error: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1 merged line", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", cart.Items[0].Quantity)
	}
	if cart.TotalAmount != 25 {
		t.Fatalf("total = %v, want 25", cart.TotalAmount)
	}
}

func TestAddCartItem_ProductNotFound(t *testing.T) {
	svc := NewService(&stubRepo{}, &stubCatalog{})

	_, err := svc.AddCartItem(context.Background(), 5, "missing", 1)
	if !errors.Is(err, catalog.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestUpdateCartItem_OverwritesQuantity(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Order{
			ID:     1,
			UserID: 5,
			Status: model.OrderStatusCart,
			Items: []model.OrderItem{
				{ProductID: "p1", Quantity: 2, Price: 5},
			},
			TotalAmount: 10,
		},
	}
	svc := NewService(repo, nil)

	cart, err := svc.UpdateCartItem(context.Background(), 5, "p1", 7)
	if err != nil {
		t.Fatalf("UpdateCartItem error: %v", err)
	}
	if cart.Items[0].Quantity != 7 || cart.TotalAmount != 35 {
		t.Fatalf("quantity = %d, total = %v, want 7 and 35", cart.Items[0].Quantity, cart.TotalAmount)
	}

	// Нулевое количество принимается без коррекции
	cart, err = svc.UpdateCartItem(context.Background(), 5, "p1", 0)
	if err != nil {
		t.Fatalf("UpdateCartItem error: %v", err)
	}
	if cart.Items[0].Quantity != 0 || cart.TotalAmount != 0 {
		t.Fatalf("quantity = %d, total = %v, want 0 and 0", cart.Items[0].Quantity, cart.TotalAmount)
	}
}

func TestUpdateCartItem_ItemNotFound(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Order{ID: 1, UserID: 5, Status: model.OrderStatusCart, Items: []model.OrderItem{}},
	}
	svc := NewService(repo, nil)

	_, err := svc.UpdateCartItem(context.Background(), 5, "p1", 3)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestUpdateCartItem_NoCart(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)

	_, err := svc.UpdateCartItem(context.Background(), 5, "p1", 3)
	if !errors.Is(err, repository.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestRemoveCartItem_NoopWhenAbsent(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Order{
			ID:     1,
			UserID: 5,
			Status: model.OrderStatusCart,
			Items: []model.OrderItem{
				{ProductID: "p1", Quantity: 2, Price: 5},
			},
			TotalAmount: 10,
		},
	}
	svc := NewService(repo, nil)

	cart, err := svc.RemoveCartItem(context.Background(), 5, "absent")
	if err != nil {
		t.Fatalf("RemoveCartItem error: %v", err)
	}
	if len(cart.Items) != 1 || cart.TotalAmount != 10 {
		t.Fatalf("cart changed by no-op removal: %+v", cart)
	}
}

func TestRemoveCartItem_RecalculatesTotal(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Order{
			ID:     1,
			UserID: 5,
			Status: model.OrderStatusCart,
			Items: []model.OrderItem{
				{ProductID: "p1", Quantity: 2, Price: 5},
				{ProductID: "p2", Quantity: 1, Price: 3},
			},
			TotalAmount: 13,
		},
	}
	svc := NewService(repo, nil)

	cart, err := svc.RemoveCartItem(context.Background(), 5, "p1")
	if err != nil {
		t.Fatalf("RemoveCartItem error: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ProductID != "p2" {
		t.Fatalf("unexpected items: %+v", cart.Items)
	}
	if cart.TotalAmount != 3 {
		t.Fatalf("total = %v, want 3", cart.TotalAmount)
	}
}

func TestClearCart_Idempotent(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Order{ID: 1, UserID: 5, Status: model.OrderStatusCart, Items: []model.OrderItem{}},
	}
	svc := NewService(repo, nil)

	for i := 0; i < 2; i++ {
		if err := svc.ClearCart(context.Background(), 5); err != nil {
			t.Fatalf("ClearCart error: %v", err)
		}
		if len(repo.updatedItems) != 0 || repo.updatedTotal != 0 {
			t.Fatalf("cleared cart must stay empty: items=%v total=%v", repo.updatedItems, repo.updatedTotal)
		}
	}
}

func TestClearCart_NoCart(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)

	err := svc.ClearCart(context.Background(), 5)
	if !errors.Is(err, repository.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestPlaceOrder_DoesNotTouchCart(t *testing.T) {
	repo := &stubRepo{
		cart: &model.Order{
			ID:     1,
			UserID: 5,
			Status: model.OrderStatusCart,
			Items: []model.OrderItem{
				{ProductID: "p1", Quantity: 2, Price: 5},
			},
			TotalAmount: 10,
		},
	}
	svc := NewService(repo, nil)

	items := []model.OrderItem{
		{ProductID: "p1", Name: "Tea", Quantity: 2, Price: 5},
	}
	shipping := &model.ShippingInfo{Name: "Ivan", City: "Moscow"}

	order, err := svc.PlaceOrder(context.Background(), 5, items, shipping, 123.45)
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	if order.Status != model.OrderStatusPending {
		t.Fatalf("status = %s, want Pending", order.Status)
	}
	// Сумма сохраняется как передана клиентом, без пересчёта
	if order.TotalAmount != 123.45 {
		t.Fatalf("total = %v, want 123.45", order.TotalAmount)
	}

	if repo.updateCalls != 0 {
		t.Fatalf("cart was updated during place-order")
	}
	cart, err := svc.repo.GetCartByUser(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetCartByUser error: %v", err)
	}
	if len(cart.Items) != 1 || cart.TotalAmount != 10 {
		t.Fatalf("cart changed after place-order: %+v", cart)
	}
}

func TestCartTotalInvariant(t *testing.T) {
	repo := &stubRepo{}
	cat := &stubCatalog{
		products: map[string]*model.Product{
			"p1": {ID: "p1", Name: "Tea", Price: 5},
			"p2": {ID: "p2", Name: "Coffee", Price: 7.5},
		},
	}
	svc := NewService(repo, cat)
	ctx := context.Background()

	checkTotal := func(cart *model.Order) {
		t.Helper()
		want := 0.0
		for _, item := range cart.Items {
			want += float64(item.Quantity) * item.Price
		}
		if cart.TotalAmount != want {
			t.Fatalf("total = %v, want %v for items %+v", cart.TotalAmount, want, cart.Items)
		}
	}

	cart, err := svc.AddCartItem(ctx, 5, "p1", 2)
	if err != nil {
		t.Fatalf("add p1: %v", err)
	}
	checkTotal(cart)

	cart, err = svc.AddCartItem(ctx, 5, "p2", 4)
	if err != nil {
		t.Fatalf("add p2: %v", err)
	}
	checkTotal(cart)

	cart, err = svc.UpdateCartItem(ctx, 5, "p2", 1)
	if err != nil {
		t.Fatalf("update p2: %v", err)
	}
	checkTotal(cart)

	cart, err = svc.RemoveCartItem(ctx, 5, "p1")
	if err != nil {
		t.Fatalf("remove p1: %v", err)
	}
	checkTotal(cart)
}
