// Package handler содержит HTTP-обработчики API сервиса магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vansh16aug/goala-foods-backend/internal/catalog"
	"github.com/vansh16aug/goala-foods-backend/internal/middleware"
	"github.com/vansh16aug/goala-foods-backend/internal/model"
	"github.com/vansh16aug/goala-foods-backend/internal/repository"
	"github.com/vansh16aug/goala-foods-backend/internal/service"
	"github.com/vansh16aug/goala-foods-backend/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, username, email, password string) error
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	GetCart(ctx context.Context, userID int64) (*model.Order, error)
	AddCartItem(ctx context.Context, userID int64, productID string, quantity int) (*model.Order, error)
	UpdateCartItem(ctx context.Context, userID int64, productID string, quantity int) (*model.Order, error)
	RemoveCartItem(ctx context.Context, userID int64, productID string) (*model.Order, error)
	ClearCart(ctx context.Context, userID int64) error
	PlaceOrder(ctx context.Context, userID int64, items []model.OrderItem, shipping *model.ShippingInfo, totalAmount float64) (*model.Order, error)
}

// Handler реализует HTTP-обработчики API сервиса магазина.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	corsMiddleware *middleware.CORSMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, cors *middleware.CORSMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		corsMiddleware: cors,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if err := validation.CheckRegistration(req.Username, req.Email, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	err := h.service.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "Username already in use")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already in use")
		default:
			h.logger.Error("register user error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

// Login выполняет аутентификацию пользователя и выпускает bearer-токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.authMiddleware.IssueToken(u.ID, u.Username)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User: loginUser{
			ID:       u.ID,
			Email:    u.Email,
			Username: u.Username,
		},
	})
}

// Protected отвечает идентификатором пользователя из проверенного токена.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "This is a protected route",
		"userId":  identity.UserID,
	})
}

// Status возвращает признак авторизации и личность текущего пользователя.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"isLoggedIn": true,
		"user": map[string]any{
			"userId":   identity.UserID,
			"username": identity.Username,
		},
	})
}

// Health проверяет доступность сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Server is running",
	})
}

// GetCart возвращает корзину текущего пользователя, создавая её при необходимости.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	cart, err := h.service.GetCart(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("get cart error", zap.Error(err), zap.Int64("userID", identity.UserID))
		writeError(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AddToCart добавляет товар в корзину текущего пользователя.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.service.AddCartItem(r.Context(), identity.UserID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("add to cart error", zap.Error(err), zap.Int64("userID", identity.UserID), zap.String("productID", req.ProductID))
		writeError(w, http.StatusInternalServerError, "Failed to add item to cart")
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem перезаписывает количество позиции корзины.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	productID := chi.URLParam(r, "productID")

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.service.UpdateCartItem(r.Context(), identity.UserID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			writeError(w, http.StatusNotFound, "Cart not found")
		case errors.Is(err, service.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "Item not found in cart")
		default:
			h.logger.Error("update cart item error", zap.Error(err), zap.Int64("userID", identity.UserID), zap.String("productID", productID))
			writeError(w, http.StatusInternalServerError, "Failed to update item quantity")
		}
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// RemoveCartItem удаляет позицию из корзины текущего пользователя.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	productID := chi.URLParam(r, "productID")

	cart, err := h.service.RemoveCartItem(r.Context(), identity.UserID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			writeError(w, http.StatusNotFound, "Cart not found")
			return
		}
		h.logger.Error("remove cart item error", zap.Error(err), zap.Int64("userID", identity.UserID), zap.String("productID", productID))
		writeError(w, http.StatusInternalServerError, "Failed to remove item from cart")
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// ClearCart опустошает корзину текущего пользователя.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	err := h.service.ClearCart(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			writeError(w, http.StatusNotFound, "Cart not found")
			return
		}
		h.logger.Error("clear cart error", zap.Error(err), zap.Int64("userID", identity.UserID))
		writeError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared successfully"})
}

type placeOrderItem struct {
	ID       string  `json:"_id"`
	ImageURL string  `json:"imageUrl"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type placeOrderRequest struct {
	Items        []placeOrderItem    `json:"items"`
	ShippingInfo *model.ShippingInfo `json:"shippingInfo"`
	TotalAmount  float64             `json:"totalAmount"`
}

// PlaceOrder создаёт новый заказ из переданных клиентом позиций и данных доставки.
// Сумма заказа принимается от клиента без пересчёта; корзина не затрагивается.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, model.OrderItem{
			ProductID: item.ID,
			Image:     item.ImageURL,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	order, err := h.service.PlaceOrder(r.Context(), identity.UserID, items, req.ShippingInfo, req.TotalAmount)
	if err != nil {
		h.logger.Error("place order error", zap.Error(err), zap.Int64("userID", identity.UserID))
		writeError(w, http.StatusInternalServerError, "Failed to place order")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully",
		"order":   order,
	})
}
