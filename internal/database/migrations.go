package database

const schema = `
CREATE TABLE IF NOT EXISTS {submissions} (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    form_id TEXT NOT NULL,
    form_name TEXT NOT NULL,
    form_data TEXT NOT NULL,
    files TEXT NULL,
    user_ip TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    referer TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    status TEXT NOT NULL DEFAULT 'unread' CHECK (status IN ('unread', 'read'))
);

CREATE TABLE IF NOT EXISTS {rate_limit} (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ip_address TEXT NOT NULL,
    submission_count INTEGER NOT NULL DEFAULT 1,
    first_attempt DATETIME NOT NULL,
    last_attempt DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS {forms} (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    form_code TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS {options} (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS {submissions}_form_id ON {submissions}(form_id);
CREATE INDEX IF NOT EXISTS {submissions}_status ON {submissions}(status);
CREATE INDEX IF NOT EXISTS {submissions}_created_at ON {submissions}(created_at);
CREATE INDEX IF NOT EXISTS {rate_limit}_ip_address ON {rate_limit}(ip_address);
CREATE INDEX IF NOT EXISTS {rate_limit}_last_attempt ON {rate_limit}(last_attempt);
`
