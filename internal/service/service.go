// Package service реализует бизнес-логику сервиса магазина.
package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vansh16aug/goala-foods-backend/internal/catalog"
	"github.com/vansh16aug/goala-foods-backend/internal/model"
	"github.com/vansh16aug/goala-foods-backend/internal/repository"
)

// ErrUsernameTaken возвращается при регистрации с уже занятым именем пользователя.
var (
	ErrUsernameTaken = errors.New("username already in use")
	// ErrEmailTaken возвращается при регистрации с уже занятым email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials возвращается при неверном email или пароле.
	// Сообщение едино для обоих случаев, чтобы не раскрывать существование email.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrItemNotFound возвращается, если товара нет среди позиций корзины.
	ErrItemNotFound = errors.New("item not found in cart")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, username, email string, passwordHash []byte) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetCartByUser(ctx context.Context, userID int64) (*model.Order, error)
	CreateCart(ctx context.Context, userID int64) (*model.Order, error)
	UpdateOrderItems(ctx context.Context, orderID int64, items []model.OrderItem, totalAmount float64) error
	CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error)
}

// Catalog описывает контракт клиента внешнего каталога товаров.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
}

// Service содержит бизнес-логику сервиса магазина.
type Service struct {
	repo    Repository
	catalog Catalog
}

// NewService создаёт новый сервис с указанным репозиторием и клиентом каталога.
func NewService(repo Repository, catalogClient Catalog) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogClient,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя.
// Уникальность имени и email проверяется двумя последовательными чтениями
// перед записью; одновременные регистрации с одинаковыми данными упираются
// в уникальные индексы и также получают ошибку конфликта.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) error {
	_, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	_, err = s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.repo.CreateUser(ctx, username, email, hashed); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return ErrUsernameTaken
		}
		return err
	}

	return nil
}

// AuthenticateUser проверяет email и пароль пользователя и возвращает его запись.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetCart возвращает корзину пользователя, создавая её при первом обращении.
// Ссылки на товары дополняются карточками из каталога.
func (s *Service) GetCart(ctx context.Context, userID int64) (*model.Order, error) {
	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.populateItems(ctx, cart.Items); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *Service) getOrCreateCart(ctx context.Context, userID int64) (*model.Order, error) {
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, err
	}

	return s.repo.CreateCart(ctx, userID)
}

func (s *Service) populateItems(ctx context.Context, items []model.OrderItem) error {
	if s.catalog == nil {
		return nil
	}

	for i := range items {
		product, err := s.catalog.GetProduct(ctx, items[i].ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				continue
			}
			return fmt.Errorf("resolve product %s: %w", items[i].ProductID, err)
		}
		items[i].Product = product
	}

	return nil
}

// AddCartItem добавляет товар в корзину пользователя или увеличивает
// количество уже имеющейся позиции.
func (s *Service) AddCartItem(ctx context.Context, userID int64, productID string, quantity int) (*model.Order, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("catalog client not configured")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := findItem(cart.Items, productID)
	if idx >= 0 {
		cart.Items[idx].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, model.OrderItem{
			ProductID: productID,
			Name:      product.Name,
			Quantity:  quantity,
			Price:     product.Price,
		})
	}

	return s.saveCart(ctx, cart)
}

// UpdateCartItem перезаписывает количество позиции корзины значением из запроса.
func (s *Service) UpdateCartItem(ctx context.Context, userID int64, productID string, quantity int) (*model.Order, error) {
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := findItem(cart.Items, productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}

	cart.Items[idx].Quantity = quantity

	return s.saveCart(ctx, cart)
}

// RemoveCartItem удаляет позицию из корзины. Отсутствие товара среди позиций
// не является ошибкой: корзина возвращается без изменений.
func (s *Service) RemoveCartItem(ctx context.Context, userID int64, productID string) (*model.Order, error) {
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			filtered = append(filtered, item)
		}
	}
	cart.Items = filtered

	return s.saveCart(ctx, cart)
}

// ClearCart опустошает корзину пользователя и обнуляет сумму.
func (s *Service) ClearCart(ctx context.Context, userID int64) error {
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		return err
	}

	return s.repo.UpdateOrderItems(ctx, cart.ID, []model.OrderItem{}, 0)
}

// PlaceOrder создаёт новый заказ в статусе Pending из переданных клиентом
// позиций, данных доставки и суммы. Позиции и сумма сохраняются как есть,
// без пересчёта; корзина пользователя не изменяется.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, items []model.OrderItem, shipping *model.ShippingInfo, totalAmount float64) (*model.Order, error) {
	order := &model.Order{
		UserID:       userID,
		Items:        items,
		ShippingInfo: shipping,
		TotalAmount:  totalAmount,
		Status:       model.OrderStatusPending,
	}

	return s.repo.CreateOrder(ctx, order)
}

func (s *Service) saveCart(ctx context.Context, cart *model.Order) (*model.Order, error) {
	cart.TotalAmount = recalcTotal(cart.Items)

	if err := s.repo.UpdateOrderItems(ctx, cart.ID, cart.Items, cart.TotalAmount); err != nil {
		return nil, err
	}

	return cart, nil
}

func findItem(items []model.OrderItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func recalcTotal(items []model.OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}
