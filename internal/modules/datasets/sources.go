package datasets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/modules/query"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

// Querier runs a statement against the warehouse
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) ([]string, []domain.Row, error)
}

// ObjectGetter is the subset of the S3 client used to read snapshots
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// profileWarehouseColumns excludes the derived symbol_* columns
var profileWarehouseColumns = []string{
	"symbol", "price", "marketCap", "beta", "lastDividend", "range", "change", "changePercentage",
	"volume", "averageVolume", "companyName", "currency", "cik", "isin", "cusip",
	"exchangeFullName", "exchange", "industry", "website", "description",
	"ceo", "sector", "country", "fullTimeEmployees", "phone", "address", "city",
	"state", "zip", "image", "ipoDate", "defaultImage", "isEtf", "isActivelyTrading",
	"isAdr", "isFund",
}

// WarehouseSource builds full-table loaders against the SQL warehouse
type WarehouseSource struct {
	db      Querier
	dialect query.Dialect
	log     zerolog.Logger
}

// NewWarehouseSource creates a new warehouse source
func NewWarehouseSource(db Querier, dialect query.Dialect, log zerolog.Logger) *WarehouseSource {
	return &WarehouseSource{
		db:      db,
		dialect: dialect,
		log:     log.With().Str("component", "warehouse_source").Logger(),
	}
}

func (w *WarehouseSource) columns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = w.dialect.Ident(c)
	}
	return strings.Join(quoted, ", ")
}

func (w *WarehouseSource) query(ctx context.Context, sql string) ([]domain.Row, error) {
	_, rows, err := w.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Loader returns the warehouse loader for the schema's dataset
func (w *WarehouseSource) Loader(s *schema.Schema, limit int) cachestore.Loader {
	table := w.dialect.Table(s.Table())
	n := strconv.Itoa(limit)

	switch s.Key() {
	case domain.DatasetProfiles:
		sql := "SELECT " + w.columns(profileWarehouseColumns) + " FROM " + table +
			" ORDER BY " + w.dialect.Ident("companyName") + " ASC LIMIT " + n
		return func(ctx context.Context) ([]domain.Row, error) { return w.query(ctx, sql) }

	case domain.DatasetScores:
		score := w.dialect.Ident("overall_score")
		sql := "SELECT " + w.columns(s.Columns()) + " FROM " + table +
			" WHERE " + score + " IS NOT NULL ORDER BY " + score + " DESC LIMIT " + n
		return func(ctx context.Context) ([]domain.Row, error) { return w.query(ctx, sql) }

	case domain.DatasetEarnings:
		return func(ctx context.Context) ([]domain.Row, error) {
			return w.loadEarnings(ctx, table, n)
		}

	default:
		sql := "SELECT " + w.columns(s.Columns()) + " FROM " + table + " LIMIT " + n
		return func(ctx context.Context) ([]domain.Row, error) { return w.query(ctx, sql) }
	}
}

// loadEarnings looks for the first existing date column, then loads
// every row ordered by it with the column aliased for normalisation.
func (w *WarehouseSource) loadEarnings(ctx context.Context, table, limit string) ([]domain.Row, error) {
	for _, candidate := range DateCandidates {
		col := w.dialect.Ident(candidate)
		if _, _, err := w.db.Query(ctx, "SELECT "+col+" FROM "+table+" LIMIT 1"); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		w.log.Debug().Str("date_column", candidate).Msg("Detected earnings date column")
		return w.query(ctx, "SELECT *, "+col+" AS "+eventDateKey+" FROM "+table+
			" ORDER BY "+col+" ASC LIMIT "+limit)
	}

	w.log.Warn().Str("table", table).Msg("No earnings date column found, loading unordered")
	return w.query(ctx, "SELECT * FROM "+table+" LIMIT "+limit)
}

// decodeRows parses a JSON array of objects. Numbers decode as float64.
func decodeRows(r io.Reader) ([]domain.Row, error) {
	var rows []domain.Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// FileLoader reads a dataset from a local JSON array file
func FileLoader(filePath string) cachestore.Loader {
	return func(ctx context.Context) ([]domain.Row, error) {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filePath, err)
		}
		return decodeRows(bytes.NewReader(data))
	}
}

// S3Loader reads a dataset from a JSON array object in S3
func S3Loader(client ObjectGetter, bucket, key string) cachestore.Loader {
	return func(ctx context.Context) ([]domain.Row, error) {
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
		}
		defer out.Body.Close()
		return decodeRows(out.Body)
	}
}

// Sources resolves a dataset's configured source into a loader
type Sources struct {
	Warehouse *WarehouseSource
	S3        ObjectGetter
	Bucket    string
	Prefix    string
}

// Loader builds the normalising, row-limited loader for one dataset
func (src Sources) Loader(s *schema.Schema, cfg Settings) (cachestore.Loader, error) {
	var fetch cachestore.Loader
	switch cfg.Source {
	case SourceWarehouse, "":
		if src.Warehouse == nil {
			return nil, &domain.ConfigError{Field: cfg.Dataset + ".source", Reason: "warehouse source requires a warehouse connection"}
		}
		fetch = src.Warehouse.Loader(s, cfg.Limit)
	case SourceFile:
		fetch = FileLoader(cfg.Path)
	case SourceS3:
		if src.S3 == nil || src.Bucket == "" {
			return nil, &domain.ConfigError{Field: cfg.Dataset + ".source", Reason: "s3 source requires a bucket"}
		}
		key := cfg.Path
		if key == "" {
			key = cfg.Dataset + ".json"
		}
		fetch = S3Loader(src.S3, src.Bucket, path.Join(src.Prefix, key))
	default:
		return nil, &domain.ConfigError{Field: cfg.Dataset + ".source", Reason: fmt.Sprintf("unsupported source %q", cfg.Source)}
	}

	normalize := NormalizerFor(s.Key())
	limit := cfg.Limit
	return func(ctx context.Context) ([]domain.Row, error) {
		rows, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		rows = normalize(rows)
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		return rows, nil
	}, nil
}

// Register binds a loader for every configured dataset to the store
func Register(store *cachestore.Store, registry *schema.Registry, src Sources, settings []Settings) error {
	for _, cfg := range settings {
		if err := cfg.Validate(); err != nil {
			return err
		}
		s, ok := registry.Get(cfg.Dataset)
		if !ok {
			return &domain.ConfigError{Field: cfg.Dataset, Reason: "unknown dataset"}
		}
		loader, err := src.Loader(s, cfg)
		if err != nil {
			return err
		}
		if err := store.Register(s.Key(), loader, cfg.TTL); err != nil {
			return err
		}
	}
	return nil
}
