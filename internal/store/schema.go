package store

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    root TEXT NOT NULL,
    id TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    reason TEXT,
    hashed BOOLEAN,
    snapshot_path TEXT NOT NULL,
    vault_dir TEXT NOT NULL,
    file_count INTEGER DEFAULT 0,
    total_bytes INTEGER DEFAULT 0,
    status TEXT NOT NULL,
    restored_at TIMESTAMP,
    restored INTEGER DEFAULT 0,
    rejected INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    PRIMARY KEY (root, id)
);

CREATE TABLE IF NOT EXISTS moves (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    root TEXT NOT NULL,
    session_id TEXT NOT NULL,
    rel_path TEXT NOT NULL,
    vault_path TEXT NOT NULL,
    size_bytes INTEGER,
    moved_at TIMESTAMP NOT NULL,
    FOREIGN KEY (root, session_id) REFERENCES sessions(root, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
CREATE INDEX IF NOT EXISTS idx_moves_session ON moves(root, session_id);
`
