package mysql

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE user_preferences (
	user_id INTEGER PRIMARY KEY,
	sidebar_open BOOLEAN NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	owner_id INTEGER NOT NULL,
	engineer_id INTEGER,
	status TEXT NOT NULL,
	budget REAL NOT NULL DEFAULT 0,
	start_date DATETIME,
	due_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE project_stages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	position INTEGER NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE project_documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL,
	uploaded_by INTEGER NOT NULL,
	file_name TEXT NOT NULL,
	url TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	content_type TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE estimates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reference TEXT NOT NULL UNIQUE,
	project_id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	input BLOB NOT NULL,
	result BLOB NOT NULL,
	total REAL NOT NULL,
	currency TEXT NOT NULL,
	created_by INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE system_settings (
	id INTEGER PRIMARY KEY,
	site_name TEXT NOT NULL,
	max_upload_mb INTEGER NOT NULL,
	allow_registration BOOLEAN NOT NULL,
	maintenance_mode BOOLEAN NOT NULL,
	default_currency TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// newTestDB 返回一个建好表的内存数据库
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// 内存库每个连接都是独立的数据库
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
