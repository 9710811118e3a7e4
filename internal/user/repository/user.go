package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mockinterview/internal/common/cache"
	"mockinterview/internal/common/db"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserRepository interface {
	Create(ctx context.Context, tx db.Transaction, user *User) (int64, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error)
	GetByEmail(ctx context.Context, tx db.Transaction, email string) (*User, error)
	ExistsByEmail(ctx context.Context, tx db.Transaction, email string) (bool, error)
}

type MySQLUserRepository struct {
	dbProvider db.Provider
	cache      cache.BasicOps
	ttl        time.Duration
	emptyTTL   time.Duration
}

func NewUserRepositoryWithTTL(provider db.Provider, cacheClient cache.BasicOps, ttl, emptyTTL time.Duration) UserRepository {
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultUserCacheEmptyTTL
	}
	return &MySQLUserRepository{
		dbProvider: provider,
		cache:      cacheClient,
		ttl:        ttl,
		emptyTTL:   emptyTTL,
	}
}

const userColumns = "id, name, email, password_hash, created_at, updated_at"

func (r *MySQLUserRepository) Create(ctx context.Context, tx db.Transaction, user *User) (int64, error) {
	if user == nil {
		return 0, errors.New("user is nil")
	}

	query := "INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)"
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	result, err := querier.Exec(ctx, query, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		if key, ok := db.UniqueViolation(err); ok {
			if strings.Contains(strings.ToLower(key), "email") {
				return 0, ErrEmailExists
			}
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	// A miss for this email may have been cached before the account existed.
	if r.cache != nil {
		_ = r.cache.Del(ctx, userEmailKey(user.Email))
	}
	return id, nil
}

func (r *MySQLUserRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error) {
	if r.cache == nil || tx != nil {
		return r.getByIDFromDB(ctx, tx, id)
	}
	return r.cached(ctx, userInfoKey(id), func(ctx context.Context) (*User, error) {
		return r.getByIDFromDB(ctx, nil, id)
	})
}

func (r *MySQLUserRepository) GetByEmail(ctx context.Context, tx db.Transaction, email string) (*User, error) {
	if r.cache == nil || tx != nil {
		return r.getByEmailFromDB(ctx, tx, email)
	}
	return r.cached(ctx, userEmailKey(email), func(ctx context.Context) (*User, error) {
		return r.getByEmailFromDB(ctx, nil, email)
	})
}

func (r *MySQLUserRepository) ExistsByEmail(ctx context.Context, tx db.Transaction, email string) (bool, error) {
	query := "SELECT 1 FROM users WHERE email = ?"
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	var one int
	if err := querier.QueryRow(ctx, query, email).Scan(&one); err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MySQLUserRepository) cached(ctx context.Context, key string, load func(context.Context) (*User, error)) (*User, error) {
	user, err := cache.GetWithCached[*User](
		ctx,
		r.cache,
		key,
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(user *User) bool { return user == nil },
		marshalUser,
		unmarshalUser,
		func(ctx context.Context) (*User, error) {
			user, err := load(ctx)
			if errors.Is(err, ErrUserNotFound) {
				return nil, nil
			}
			return user, err
		},
	)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *MySQLUserRepository) getByIDFromDB(ctx context.Context, tx db.Transaction, id int64) (*User, error) {
	return r.queryOne(ctx, tx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (r *MySQLUserRepository) getByEmailFromDB(ctx context.Context, tx db.Transaction, email string) (*User, error) {
	return r.queryOne(ctx, tx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (r *MySQLUserRepository) queryOne(ctx context.Context, tx db.Transaction, query string, arg interface{}) (*User, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	user, err := scanUser(querier.QueryRow(ctx, query, arg))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func userInfoKey(id int64) string {
	return fmt.Sprintf("%s%d", userInfoKeyPrefix, id)
}

func userEmailKey(email string) string {
	return userEmailKeyPrefix + strings.ToLower(email)
}

func marshalUser(user *User) string {
	payload, err := json.Marshal(user)
	if err != nil {
		return ""
	}
	return string(payload)
}

func unmarshalUser(data string) (*User, error) {
	if data == "" {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUser(row db.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
