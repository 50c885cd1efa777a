// Package storage keeps the backend's session cookies in a local SQLite
// file so a login survives between invocations, the way a browser would
// keep them.
package storage

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS cookies (
	origin TEXT NOT NULL,
	name TEXT NOT NULL,
	path TEXT NOT NULL DEFAULT '/',
	value TEXT NOT NULL,
	domain TEXT NOT NULL DEFAULT '',
	expires TEXT DEFAULT NULL,
	secure INTEGER NOT NULL DEFAULT 0,
	http_only INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (origin, name, path)
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureCookieColumns()
}

func (s *Store) ensureCookieColumns() error {
	required := map[string]string{
		"same_site": "ALTER TABLE cookies ADD COLUMN same_site INTEGER NOT NULL DEFAULT 0;",
		"saved_at":  "ALTER TABLE cookies ADD COLUMN saved_at TEXT NOT NULL DEFAULT '';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(cookies);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// SaveCookie upserts c for origin. A cookie the server expired (negative
// MaxAge, past Expires, empty value) is deleted instead.
func (s *Store) SaveCookie(origin string, c *http.Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	now := s.now()
	expires := sql.NullString{}
	switch {
	case c.MaxAge < 0:
		return s.deleteCookie(origin, c.Name, path)
	case c.MaxAge > 0:
		expires = sql.NullString{String: now.Add(time.Duration(c.MaxAge) * time.Second).UTC().Format(time.RFC3339), Valid: true}
	case !c.Expires.IsZero():
		if !c.Expires.After(now) {
			return s.deleteCookie(origin, c.Name, path)
		}
		expires = sql.NullString{String: c.Expires.UTC().Format(time.RFC3339), Valid: true}
	}
	if c.Value == "" {
		return s.deleteCookie(origin, c.Name, path)
	}

	_, err := s.db.Exec(`INSERT INTO cookies (origin, name, path, value, domain, expires, secure, http_only, same_site, saved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(origin, name, path) DO UPDATE SET
	value = excluded.value,
	domain = excluded.domain,
	expires = excluded.expires,
	secure = excluded.secure,
	http_only = excluded.http_only,
	same_site = excluded.same_site,
	saved_at = excluded.saved_at;`,
		origin, c.Name, path, c.Value, c.Domain, expires, boolToInt(c.Secure), boolToInt(c.HttpOnly), int(c.SameSite), now.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) deleteCookie(origin, name, path string) error {
	_, err := s.db.Exec(`DELETE FROM cookies WHERE origin = ? AND name = ? AND path = ?;`, origin, name, path)
	return err
}

// Cookies returns the unexpired cookies stored for origin.
func (s *Store) Cookies(origin string) ([]*http.Cookie, error) {
	rows, err := s.db.Query(`SELECT name, path, value, domain, expires, secure, http_only, same_site FROM cookies WHERE origin = ? ORDER BY name;`, origin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := s.now()
	var cookies []*http.Cookie
	for rows.Next() {
		var c http.Cookie
		var expires sql.NullString
		var secure, httpOnly, sameSite int
		if err := rows.Scan(&c.Name, &c.Path, &c.Value, &c.Domain, &expires, &secure, &httpOnly, &sameSite); err != nil {
			return nil, err
		}
		if expires.Valid {
			parsed, err := time.Parse(time.RFC3339, expires.String)
			if err != nil || !parsed.After(now) {
				continue
			}
			c.Expires = parsed
		}
		c.Secure = secure == 1
		c.HttpOnly = httpOnly == 1
		c.SameSite = http.SameSite(sameSite)
		cookies = append(cookies, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}

func (s *Store) ClearCookies(origin string) error {
	_, err := s.db.Exec(`DELETE FROM cookies WHERE origin = ?;`, origin)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
