package database

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"net/url"
	"regexp"
	"strings"
	"time"

	"ab-sim/pkg/models"
	"ab-sim/pkg/sink"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultBatchSize = 500

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// IsDSN indique si la destination désigne une base MariaDB/MySQL.
func IsDSN(dest string) bool {
	return strings.HasPrefix(dest, "mariadb://") || strings.HasPrefix(dest, "mysql://")
}

// Open DSN mariadb:// ou mysql:// → format MySQL driver
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if IsDSN(dsn) {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// Redact masque le mot de passe d'une URL mysql:// pour les logs.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// Sink écrit les lignes simulées dans une table plate.
// Chaque exécution est taguée par un run_id pour coexister avec les précédentes.
type Sink struct {
	db        *sql.DB
	table     string
	runID     string
	batchSize int
}

// NewSink valide le nom de table (il est interpolé dans le SQL).
func NewSink(db *sql.DB, table string) (*Sink, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("table invalide: %q", table)
	}
	return &Sink{db: db, table: table, runID: uuid.NewString(), batchSize: defaultBatchSize}, nil
}

// RunID identifie les lignes de cette exécution.
func (s *Sink) RunID() string { return s.runID }

// EnsureTable crée la table si besoin.
func (s *Sink) EnsureTable(ctx context.Context) error {
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
		"\trun_id CHAR(36) NOT NULL,\n"+
		"\tuser_id INT NOT NULL,\n"+
		"\tts DATETIME NOT NULL,\n"+
		"\tvariant VARCHAR(16) NOT NULL,\n"+
		"\tcountry CHAR(2) NOT NULL,\n"+
		"\tdevice VARCHAR(16) NOT NULL,\n"+
		"\tconverted TINYINT(1) NOT NULL,\n"+
		"\trevenue DECIMAL(12,2) NOT NULL,\n"+
		"\tPRIMARY KEY (run_id, user_id)\n"+
		")", s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Write insère toutes les lignes dans une seule transaction, par lots.
// En cas d'erreur rien n'est conservé et le compte renvoyé vaut 0.
func (s *Sink) Write(ctx context.Context, rows iter.Seq[models.Row], progress sink.Progress) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op après Commit

	n := 0
	batch := make([]any, 0, s.batchSize*8)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		count := len(batch) / 8
		if _, err := tx.ExecContext(ctx, s.insertQuery(count), batch...); err != nil {
			return fmt.Errorf("insert rows %d..%d: %w", n-count+1, n, err)
		}
		if progress != nil {
			_ = progress.Add(count)
		}
		batch = batch[:0]
		return nil
	}

	for r := range rows {
		batch = append(batch,
			s.runID,
			r.UserID,
			r.Timestamp.UTC(),
			r.Variant.String(),
			r.Country.String(),
			r.Device.String(),
			r.Converted,
			decimal.NewFromFloat(r.Revenue).StringFixed(2),
		)
		n++
		if len(batch) == s.batchSize*8 {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (s *Sink) insertQuery(rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO `%s` (run_id, user_id, ts, variant, country, device, converted, revenue) VALUES ", s.table)
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString("(?,?,?,?,?,?,?,?)")
	}
	return b.String()
}
