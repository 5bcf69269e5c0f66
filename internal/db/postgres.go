package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"diet-planner/config"
	"diet-planner/internal/catalog"
	"diet-planner/internal/models"
)

//go:embed schema.sql
var schema string

const foodColumns = `id, name, category, type, calories, protein, carbs, fat, fiber, price, image,
        COALESCE(swiggy_url, ''), COALESCE(zomato_url, ''), COALESCE(description, ''),
        COALESCE(benefits, '{}')`

type PostgresDB struct {
	pool *pgxpool.Pool
}

var _ catalog.Store = (*PostgresDB)(nil)

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the foods table when it does not exist yet.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func scanFoods(rows pgx.Rows) ([]models.FoodItem, error) {
	defer rows.Close()

	var foods []models.FoodItem
	for rows.Next() {
		var (
			f        models.FoodItem
			category string
			dietType string
		)
		err := rows.Scan(
			&f.ID, &f.Name, &category, &dietType,
			&f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.Fiber, &f.Price,
			&f.Image, &f.SwiggyURL, &f.ZomatoURL, &f.Description, &f.Benefits,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		f.Category = models.Category(category)
		f.Type = models.DietType(dietType)
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foods: %w", err)
	}
	return foods, nil
}

func (db *PostgresDB) FilterFoods(ctx context.Context, f catalog.Filter) ([]models.FoodItem, error) {
	query := `
        SELECT ` + foodColumns + `
        FROM foods
        WHERE category = $1
          AND ($2 = 'both' OR type = $2)
          AND price <= $3
        ORDER BY id
    `

	rows, err := db.pool.Query(ctx, query, string(f.Category), string(f.Diet), f.MaxPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to query filtered foods: %w", err)
	}
	return scanFoods(rows)
}

func (db *PostgresDB) FoodsByCategory(ctx context.Context, category models.Category) ([]models.FoodItem, error) {
	query := `
        SELECT ` + foodColumns + `
        FROM foods
        WHERE category = $1
        ORDER BY id
    `

	rows, err := db.pool.Query(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query foods by category: %w", err)
	}
	return scanFoods(rows)
}

func (db *PostgresDB) AllFoods(ctx context.Context) ([]models.FoodItem, error) {
	query := `
        SELECT ` + foodColumns + `
        FROM foods
        ORDER BY id
    `

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	return scanFoods(rows)
}

func (db *PostgresDB) CountFoods(ctx context.Context) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM foods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	return n, nil
}

// BatchResult reports the outcome of one insert batch.
type BatchResult struct {
	Batch    int
	Inserted int
	Err      error
}

// InsertFoods upserts foods in batches of batchSize. A failing batch does not
// stop the remaining ones.
func (db *PostgresDB) InsertFoods(ctx context.Context, foods []models.FoodItem, batchSize int) []BatchResult {
	query := `
        INSERT INTO foods (id, name, category, type, calories, protein, carbs, fat, fiber, price,
                           image, swiggy_url, zomato_url, description, benefits)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), $15)
        ON CONFLICT (id) DO UPDATE
        SET name = $2, category = $3, type = $4, calories = $5, protein = $6, carbs = $7,
            fat = $8, fiber = $9, price = $10, image = $11, swiggy_url = NULLIF($12, ''),
            zomato_url = NULLIF($13, ''), description = NULLIF($14, ''), benefits = $15
    `

	if batchSize <= 0 {
		batchSize = 50
	}

	var results []BatchResult
	for start := 0; start < len(foods); start += batchSize {
		end := min(start+batchSize, len(foods))
		chunk := foods[start:end]
		res := BatchResult{Batch: start/batchSize + 1}

		res.Err = db.insertBatch(ctx, query, chunk)
		if res.Err == nil {
			res.Inserted = len(chunk)
		}
		results = append(results, res)
	}
	return results
}

func (db *PostgresDB) insertBatch(ctx context.Context, query string, chunk []models.FoodItem) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, f := range chunk {
		benefits := f.Benefits
		if benefits == nil {
			benefits = []string{}
		}
		batch.Queue(query,
			f.ID, f.Name, string(f.Category), string(f.Type),
			f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, f.Price,
			f.Image, f.SwiggyURL, f.ZomatoURL, f.Description, benefits,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range chunk {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert %q: %w", chunk[i].Name, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}
	return tx.Commit(ctx)
}
