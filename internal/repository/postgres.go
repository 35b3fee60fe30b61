// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vansh16aug/goala-foods-backend/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже занятым именем или email.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrCartNotFound возвращается, если у пользователя нет корзины.
	ErrCartNotFound = errors.New("cart not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, username, email string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, email, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`,
		username,
	)
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	)
}

func (r *PostgresRepository) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// GetCartByUser возвращает корзину пользователя или ErrCartNotFound.
func (r *PostgresRepository) GetCartByUser(ctx context.Context, userID int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, items, shipping_info, total_amount, status, created_at
		 FROM orders
		 WHERE user_id = $1 AND status = $2
		 ORDER BY created_at
		 LIMIT 1`,
		userID, string(model.OrderStatusCart),
	)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return order, nil
}

// CreateCart создаёт пустую корзину для пользователя.
func (r *PostgresRepository) CreateCart(ctx context.Context, userID int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO orders (user_id, items, total_amount, status)
		 VALUES ($1, '[]', 0, $2)
		 RETURNING id, user_id, items, shipping_info, total_amount, status, created_at`,
		userID, string(model.OrderStatusCart),
	)

	order, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return order, nil
}

// UpdateOrderItems сохраняет позиции и итоговую сумму заказа.
func (r *PostgresRepository) UpdateOrderItems(ctx context.Context, orderID int64, items []model.OrderItem, totalAmount float64) error {
	if items == nil {
		items = []model.OrderItem{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE orders SET items = $2, total_amount = $3 WHERE id = $1`,
		orderID, itemsJSON, totalAmount,
	)
	if err != nil {
		return fmt.Errorf("update order items: %w", err)
	}

	return nil
}

// CreateOrder создаёт новый заказ с указанными позициями, данными доставки и суммой.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	items := order.Items
	if items == nil {
		items = []model.OrderItem{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	var shippingJSON []byte
	if order.ShippingInfo != nil {
		shippingJSON, err = json.Marshal(order.ShippingInfo)
		if err != nil {
			return nil, fmt.Errorf("marshal shipping info: %w", err)
		}
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO orders (user_id, items, shipping_info, total_amount, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, items, shipping_info, total_amount, status, created_at`,
		order.UserID, itemsJSON, shippingJSON, order.TotalAmount, string(order.Status),
	)

	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return created, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o            model.Order
		status       string
		itemsJSON    []byte
		shippingJSON []byte
	)

	err := row.Scan(&o.ID, &o.UserID, &itemsJSON, &shippingJSON, &o.TotalAmount, &status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	o.Status = model.OrderStatus(status)

	o.Items = []model.OrderItem{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}

	if len(shippingJSON) > 0 {
		var shipping model.ShippingInfo
		if err := json.Unmarshal(shippingJSON, &shipping); err != nil {
			return nil, fmt.Errorf("unmarshal shipping info: %w", err)
		}
		o.ShippingInfo = &shipping
	}

	return &o, nil
}
