// Package players queries the game server's player database. The store is an
// external collaborator: the bot only ever reads from it.
package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var colourCodeRe = regexp.MustCompile(`[§&][0-9A-FK-ORa-fk-or]`)

// Info is one player record assembled from the link and nickname tables.
type Info struct {
	UUID     string `db:"uuid"`
	Username string `db:"username"`
	Nick     string `db:"nick"`
}

type Store struct {
	db *sqlx.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to player database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UUID resolves a Discord account id to the linked in-game UUID. Returns an
// empty string when no link exists.
func (s *Store) UUID(ctx context.Context, discordID string) (string, error) {
	var uuid string
	err := s.db.GetContext(ctx, &uuid,
		"SELECT uuid FROM discord_links WHERE discord_id = ?", discordID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve uuid for %s: %w", discordID, err)
	}
	return uuid, nil
}

// UUIDByName resolves an exact in-game username to a UUID. Returns an empty
// string on no match.
func (s *Store) UUIDByName(ctx context.Context, username string) (string, error) {
	var uuid string
	err := s.db.GetContext(ctx, &uuid,
		"SELECT uuid FROM players WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve uuid for %s: %w", username, err)
	}
	return uuid, nil
}

// SearchByNick returns the UUIDs of players whose nickname starts with the
// query, colour codes stripped, case-insensitively.
func (s *Store) SearchByNick(ctx context.Context, query string) ([]string, error) {
	type row struct {
		Nick string `db:"nick"`
		UUID string `db:"uuid"`
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, "SELECT nick, uuid FROM nicky"); err != nil {
		return nil, fmt.Errorf("failed to search nicknames: %w", err)
	}

	var uuids []string
	for _, r := range rows {
		nick := colourCodeRe.ReplaceAllString(r.Nick, "")
		if strings.HasPrefix(strings.ToLower(nick), strings.ToLower(query)) {
			uuids = append(uuids, r.UUID)
		}
	}
	return uuids, nil
}

// PlayerInfo fetches the username and nickname for a UUID.
func (s *Store) PlayerInfo(ctx context.Context, uuid string) (*Info, error) {
	info := &Info{UUID: uuid}
	err := s.db.GetContext(ctx, &info.Username,
		"SELECT username FROM players WHERE uuid = ?", uuid)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch player %s: %w", uuid, err)
	}
	err = s.db.GetContext(ctx, &info.Nick,
		"SELECT nick FROM nicky WHERE uuid = ?", uuid)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch nickname of %s: %w", uuid, err)
	}
	if info.Nick != "" {
		info.Nick = colourCodeRe.ReplaceAllString(info.Nick, "")
	}
	return info, nil
}
