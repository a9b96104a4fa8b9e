package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS uploaded_files (
    file_id              TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    budget_type          TEXT NOT NULL,
    budget_year          INTEGER NOT NULL,
    uploader             TEXT NOT NULL,
    uploaded_at          TEXT NOT NULL,
    blob_key             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_budget (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    file_id              TEXT NOT NULL REFERENCES uploaded_files(file_id) ON DELETE CASCADE,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS classification_entries (
    file_id              TEXT NOT NULL,
    category             TEXT NOT NULL,
    subcategory          TEXT NOT NULL,
    allocation_id        TEXT NOT NULL DEFAULT '',
    label                TEXT NOT NULL DEFAULT '',
    amount               TEXT NOT NULL,
    allocated_amount     TEXT NOT NULL,
    status_category      TEXT NOT NULL,
    updated_by           TEXT NOT NULL,
    updated_at           TEXT NOT NULL,
    PRIMARY KEY (file_id, category, subcategory, allocation_id)
);

CREATE TABLE IF NOT EXISTS classification_versions (
    file_id              TEXT PRIMARY KEY,
    version              INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
    cache_key            TEXT PRIMARY KEY,
    payload              BLOB NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_uploaded ON uploaded_files(uploaded_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`
