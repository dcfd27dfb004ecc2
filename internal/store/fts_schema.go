package store

// ftsSchema adds a trigram-tokenized FTS5 virtual table over message bodies
// and subjects, kept in sync with the messages table via triggers. BM25
// ranking comes from FTS5 itself; the trigram tokenizer matches any substring
// of three or more characters, so partial-word queries of that length match.
// Two-character sequences are not indexed.
const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    subject, body_text,
    content='messages', content_rowid='rowid',
    tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS messages_fts_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, subject, body_text) VALUES (new.rowid, new.subject, new.body_text);
END;

CREATE TRIGGER IF NOT EXISTS messages_fts_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, subject, body_text) VALUES ('delete', old.rowid, old.subject, old.body_text);
END;

CREATE TRIGGER IF NOT EXISTS messages_fts_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, subject, body_text) VALUES ('delete', old.rowid, old.subject, old.body_text);
    INSERT INTO messages_fts(rowid, subject, body_text) VALUES (new.rowid, new.subject, new.body_text);
END;
`
