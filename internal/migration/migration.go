// Package migration holds the SQLite schema for a fresh database.
package migration

// Create builds every table. Columns added after the first release are also
// added to existing databases by the store's schema check.
const Create = `
CREATE TABLE IF NOT EXISTS User (
  name TEXT PRIMARY KEY,
  session_key TEXT,
  last_updated DATETIME
);

CREATE TABLE IF NOT EXISTS Artist (
  name TEXT PRIMARY KEY,
  tags_last_updated DATETIME
);

CREATE TABLE IF NOT EXISTS Album (
  artist TEXT,
  name TEXT,
  FOREIGN KEY (artist) REFERENCES Artist(name),
  PRIMARY KEY (artist, name)
);

CREATE TABLE IF NOT EXISTS Track (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  artist TEXT,
  album TEXT,
  name TEXT,
  uri TEXT,
  duration_ms INTEGER,
  duration_checked DATETIME,
  FOREIGN KEY (artist) REFERENCES Artist(name)
);

CREATE INDEX IF NOT EXISTS track_lookup ON Track (artist, album, name);

CREATE TABLE IF NOT EXISTS Listen (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user TEXT,
  track INTEGER,
  date TEXT,
  ms_played INTEGER,
  FOREIGN KEY (user) REFERENCES User(name),
  FOREIGN KEY (track) REFERENCES Track(id)
);

CREATE INDEX IF NOT EXISTS listen_user_date ON Listen (user, date);

CREATE TABLE IF NOT EXISTS Tag (
  name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS ArtistTag (
  artist TEXT,
  tag TEXT,
  count INTEGER,
  FOREIGN KEY (artist) REFERENCES Artist(name),
  FOREIGN KEY (tag) REFERENCES Tag(name),
  PRIMARY KEY (artist, tag)
);
`
